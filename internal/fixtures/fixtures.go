// Package fixtures loads Django-style fixture files into the database.
// A fixture is a JSON array of {"model", "pk", "fields"} records; rows
// are upserted by primary key so reloading a file is safe.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boards-backend/internal/adapter/db/postgres"
	pkgauth "boards-backend/pkg/auth"
)

type record struct {
	Model  string          `json:"model"`
	PK     int64           `json:"pk"`
	Fields json.RawMessage `json:"fields"`
}

type userFields struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
	JobTitle     string `json:"job_title"`
}

type accountFields struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedBy int64  `json:"created_by"`
}

type boardFields struct {
	Account    int64  `json:"account"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Color      string `json:"color"`
	IsShared   bool   `json:"is_shared"`
	CreatedBy  int64  `json:"created_by"`
	ModifiedBy int64  `json:"modified_by"`
}

type cardFields struct {
	Board      int64           `json:"board"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Type       string          `json:"type"`
	Content    string          `json:"content"`
	Position   int64           `json:"position"`
	Stack      int64           `json:"stack"`
	Featured   bool            `json:"featured"`
	OriginURL  string          `json:"origin_url"`
	FileSize   int64           `json:"file_size"`
	MimeType   string          `json:"mime_type"`
	Data       json.RawMessage `json:"data"`
	CreatedBy  int64           `json:"created_by"`
	ModifiedBy int64           `json:"modified_by"`
}

// Loader upserts fixture records through the persistence schemas.
type Loader struct {
	db     *gorm.DB
	hasher *pkgauth.PasswordHasher
	log    *zap.Logger
}

// NewLoader creates a loader. The hasher handles plaintext fixture
// passwords.
func NewLoader(db *gorm.DB, hasher *pkgauth.PasswordHasher, log *zap.Logger) *Loader {
	return &Loader{db: db, hasher: hasher, log: log}
}

// LoadFile loads one fixture file and returns the number of records
// applied.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load applies a fixture stream inside one transaction. Any unknown
// model aborts the whole load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("failed to parse fixture: %w", err)
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range records {
			if err := l.apply(tx, rec); err != nil {
				return fmt.Errorf("record %d (%s pk=%d): %w", i, rec.Model, rec.PK, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("fixtures loaded", zap.Int("records", len(records)))
	return len(records), nil
}

var upsert = clause.OnConflict{UpdateAll: true}

func (l *Loader) apply(tx *gorm.DB, rec record) error {
	switch strings.ToLower(rec.Model) {
	case "users.user":
		return l.applyUser(tx, rec)
	case "accounts.account":
		return l.applyAccount(tx, rec)
	case "boards.board":
		return l.applyBoard(tx, rec)
	case "cards.card":
		return l.applyCard(tx, rec)
	default:
		return fmt.Errorf("unsupported model %q (supported: %s)",
			rec.Model, strings.Join(supportedModels(), ", "))
	}
}

func supportedModels() []string {
	models := []string{"users.user", "accounts.account", "boards.board", "cards.card"}
	sort.Strings(models)
	return models
}

func (l *Loader) applyUser(tx *gorm.DB, rec record) error {
	var f userFields
	if err := json.Unmarshal(rec.Fields, &f); err != nil {
		return err
	}
	if f.Username == "" || f.Email == "" {
		return fmt.Errorf("username and email are required")
	}

	hash := f.PasswordHash
	if hash == "" && f.Password != "" {
		var err error
		if hash, err = l.hasher.Hash(f.Password); err != nil {
			return err
		}
	}

	return tx.Clauses(upsert).Create(&postgres.UserSchema{
		ID:           rec.PK,
		Username:     strings.ToLower(f.Username),
		Email:        strings.ToLower(f.Email),
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: hash,
		JobTitle:     f.JobTitle,
	}).Error
}

// applyAccount upserts the account and makes created_by its owner.
func (l *Loader) applyAccount(tx *gorm.DB, rec record) error {
	var f accountFields
	if err := json.Unmarshal(rec.Fields, &f); err != nil {
		return err
	}
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Slug == "" {
		f.Slug = slug.Make(f.Name)
	}

	if err := tx.Clauses(upsert).Create(&postgres.AccountSchema{
		ID:          rec.PK,
		Name:        f.Name,
		Slug:        f.Slug,
		CreatedByID: f.CreatedBy,
	}).Error; err != nil {
		return err
	}

	if f.CreatedBy == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&postgres.AccountCollaboratorSchema{
		AccountID: rec.PK,
		UserID:    f.CreatedBy,
		IsOwner:   true,
	}).Error
}

func (l *Loader) applyBoard(tx *gorm.DB, rec record) error {
	var f boardFields
	if err := json.Unmarshal(rec.Fields, &f); err != nil {
		return err
	}
	if f.Name == "" || f.Account == 0 {
		return fmt.Errorf("name and account are required")
	}
	if f.Slug == "" {
		f.Slug = slug.Make(f.Name)
	}
	if f.ModifiedBy == 0 {
		f.ModifiedBy = f.CreatedBy
	}

	return tx.Clauses(upsert).Create(&postgres.BoardSchema{
		ID:           rec.PK,
		AccountID:    f.Account,
		Name:         f.Name,
		Slug:         f.Slug,
		Color:        f.Color,
		IsShared:     f.IsShared,
		CreatedByID:  f.CreatedBy,
		ModifiedByID: f.ModifiedBy,
	}).Error
}

func (l *Loader) applyCard(tx *gorm.DB, rec record) error {
	var f cardFields
	if err := json.Unmarshal(rec.Fields, &f); err != nil {
		return err
	}
	if f.Name == "" || f.Board == 0 {
		return fmt.Errorf("name and board are required")
	}
	if f.Slug == "" {
		f.Slug = slug.Make(f.Name)
	}
	if f.Type == "" {
		f.Type = "note"
	}
	if f.ModifiedBy == 0 {
		f.ModifiedBy = f.CreatedBy
	}

	return tx.Clauses(upsert).Create(&postgres.CardSchema{
		ID:           rec.PK,
		BoardID:      f.Board,
		Name:         f.Name,
		Slug:         f.Slug,
		Type:         f.Type,
		Content:      f.Content,
		Position:     f.Position,
		StackID:      f.Stack,
		Featured:     f.Featured,
		OriginURL:    f.OriginURL,
		FileSize:     f.FileSize,
		MimeType:     f.MimeType,
		Data:         string(f.Data),
		CreatedByID:  f.CreatedBy,
		ModifiedByID: f.ModifiedBy,
	}).Error
}
