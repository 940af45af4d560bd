package postgres

import (
	"time"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:30;not null;uniqueIndex"`
	Email        string `gorm:"size:254;not null;uniqueIndex"`
	FirstName    string `gorm:"size:30"`
	LastName     string `gorm:"size:30"`
	PasswordHash string `gorm:"size:128;not null"`
	JobTitle     string `gorm:"size:255"`
	AvatarPath   string
	TokenVersion int64     `gorm:"not null;default:0"`
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AccountSchema represents the accounts table.
type AccountSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:255;not null"`
	Slug         string `gorm:"size:255;not null;uniqueIndex"`
	CreatedByID  int64  `gorm:"index"`
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the AccountSchema model.
func (AccountSchema) TableName() string {
	return "accounts"
}

// AccountCollaboratorSchema links users to accounts.
type AccountCollaboratorSchema struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	AccountID    int64     `gorm:"not null;uniqueIndex:idx_account_user"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_account_user;index"`
	IsOwner      bool      `gorm:"not null;default:false"`
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the AccountCollaboratorSchema model.
func (AccountCollaboratorSchema) TableName() string {
	return "account_collaborators"
}

// BoardSchema represents the boards table. Slug is unique per account.
type BoardSchema struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	AccountID       int64  `gorm:"not null;uniqueIndex:idx_account_board_slug;index"`
	Name            string `gorm:"size:255;not null"`
	Slug            string `gorm:"size:255;not null;uniqueIndex:idx_account_board_slug"`
	Color           string `gorm:"size:7"`
	IsShared        bool   `gorm:"not null;default:false;index"`
	ThumbnailXSPath string
	ThumbnailSMPath string
	ThumbnailMDPath string
	ThumbnailLGPath string
	CreatedByID     int64
	ModifiedByID    int64
	DateCreated     time.Time `gorm:"autoCreateTime"`
	DateModified    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the BoardSchema model.
func (BoardSchema) TableName() string {
	return "boards"
}

// BoardCollaboratorSchema grants board access to a user or an invited user.
// Exactly one of UserID and InvitedUserID is non-zero.
type BoardCollaboratorSchema struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	BoardID       int64  `gorm:"not null;index"`
	UserID        int64  `gorm:"index"`
	InvitedUserID int64  `gorm:"index"`
	Permission    string `gorm:"size:5;not null"`
	CreatedByID   int64
	DateCreated   time.Time `gorm:"autoCreateTime"`
	DateModified  time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the BoardCollaboratorSchema model.
func (BoardCollaboratorSchema) TableName() string {
	return "board_collaborators"
}

// BoardCollaboratorRequestSchema is an open request for board access.
type BoardCollaboratorRequestSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	BoardID      int64  `gorm:"not null;index"`
	UserID       int64  `gorm:"index"`
	Email        string `gorm:"size:254"`
	FirstName    string `gorm:"size:30"`
	LastName     string `gorm:"size:30"`
	Message      string
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the BoardCollaboratorRequestSchema model.
func (BoardCollaboratorRequestSchema) TableName() string {
	return "board_collaborator_requests"
}

// CardSchema represents the cards table. Slug is unique per board;
// Position orders cards within the board.
type CardSchema struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	BoardID         int64  `gorm:"not null;uniqueIndex:idx_board_card_slug;index"`
	Name            string `gorm:"size:255;not null"`
	Slug            string `gorm:"size:255;not null;uniqueIndex:idx_board_card_slug"`
	Type            string `gorm:"size:5;not null"`
	Content         string
	Position        int64 `gorm:"not null;default:0;index"`
	StackID         int64 `gorm:"index"`
	Featured        bool  `gorm:"not null;default:false"`
	OriginURL       string
	FileSize        int64
	MimeType        string `gorm:"size:255"`
	ThumbnailXSPath string
	ThumbnailSMPath string
	ThumbnailMDPath string
	ThumbnailLGPath string
	Data            string
	CommentsCount   int64 `gorm:"not null;default:0"`
	CreatedByID     int64 `gorm:"index"`
	ModifiedByID    int64
	DateCreated     time.Time `gorm:"autoCreateTime"`
	DateModified    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the CardSchema model.
func (CardSchema) TableName() string {
	return "cards"
}

// CommentSchema represents the comments table.
type CommentSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	CardID       int64  `gorm:"not null;index"`
	Content      string `gorm:"not null"`
	CreatedByID  int64  `gorm:"index"`
	ModifiedByID int64
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the CommentSchema model.
func (CommentSchema) TableName() string {
	return "comments"
}

// SignupRequestSchema records emails that requested an invitation.
type SignupRequestSchema struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"size:254;not null;uniqueIndex"`
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the SignupRequestSchema model.
func (SignupRequestSchema) TableName() string {
	return "signup_requests"
}

// InvitedUserSchema is a pending account invitation, unique per
// account and email.
type InvitedUserSchema struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement"`
	AccountID           int64  `gorm:"not null;uniqueIndex:idx_account_invite_email"`
	Email               string `gorm:"size:254;not null;uniqueIndex:idx_account_invite_email"`
	FirstName           string `gorm:"size:30"`
	LastName            string `gorm:"size:30"`
	UserID              int64  `gorm:"index"`
	BoardCollaboratorID int64
	CreatedByID         int64
	DateCreated         time.Time `gorm:"autoCreateTime"`
	DateModified        time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the InvitedUserSchema model.
func (InvitedUserSchema) TableName() string {
	return "invited_users"
}

// NotificationSchema represents the notifications table.
type NotificationSchema struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	RecipientID  int64  `gorm:"not null;index"`
	ActorID      int64
	Label        string `gorm:"size:50;not null"`
	Description  string
	Data         string
	Unread       bool      `gorm:"not null;default:true"`
	DateCreated  time.Time `gorm:"autoCreateTime"`
	DateModified time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the NotificationSchema model.
func (NotificationSchema) TableName() string {
	return "notifications"
}

// MigrationModels is the AutoMigrate set used by the migrate command
// and by repository tests.
func MigrationModels() []interface{} {
	return []interface{}{
		&UserSchema{},
		&AccountSchema{},
		&AccountCollaboratorSchema{},
		&BoardSchema{},
		&BoardCollaboratorSchema{},
		&BoardCollaboratorRequestSchema{},
		&CardSchema{},
		&CommentSchema{},
		&SignupRequestSchema{},
		&InvitedUserSchema{},
		&NotificationSchema{},
	}
}
