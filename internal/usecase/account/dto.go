package account

import (
	"time"

	domain "boards-backend/internal/domain/account"
	boarduc "boards-backend/internal/usecase/board"
)

// View is the serialized form of an account.
type View struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	CreatedBy    int64     `json:"created_by"`
	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}

// DetailView is an account together with the boards the caller may see
// in it.
type DetailView struct {
	View
	Boards []boarduc.View `json:"boards"`
}

// NewView builds the serialized form of an account.
func NewView(a *domain.Account) View {
	return View{
		ID:           a.ID,
		Name:         a.Name,
		Slug:         a.Slug,
		CreatedBy:    a.CreatedByID,
		DateCreated:  a.DateCreated,
		DateModified: a.DateModified,
	}
}

// NewViews builds serialized forms for an account list.
func NewViews(accounts []domain.Account) []View {
	out := make([]View, len(accounts))
	for i := range accounts {
		out[i] = NewView(&accounts[i])
	}
	return out
}
