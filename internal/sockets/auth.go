package sockets

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"boards-backend/internal/domain/account"
)

// AccountDirectory answers the two membership questions room
// authorization needs. Satisfied by the account repository.
type AccountDirectory interface {
	GetCollaborator(ctx context.Context, accountID, userID int64) (*account.Collaborator, error)
	HasSharedBoard(ctx context.Context, accountID int64) (bool, error)
}

// RoomAuthorizer decides whether a connection may join a room.
// Account rooms ("a<id>") are open to collaborators and, when the
// account has a shared board, to everyone. User rooms ("u<id>") are
// private to that user.
type RoomAuthorizer struct {
	accounts AccountDirectory
	log      *zap.Logger
}

// NewRoomAuthorizer creates a RoomAuthorizer backed by the directory.
func NewRoomAuthorizer(accounts AccountDirectory, log *zap.Logger) *RoomAuthorizer {
	return &RoomAuthorizer{accounts: accounts, log: log}
}

// CanJoin reports whether userID (zero for anonymous) may subscribe
// to room. Lookup failures deny.
func (a *RoomAuthorizer) CanJoin(ctx context.Context, userID int64, room string) bool {
	switch {
	case strings.HasPrefix(room, "u"):
		id, err := strconv.ParseInt(room[1:], 10, 64)
		return err == nil && userID != 0 && id == userID

	case strings.HasPrefix(room, "a"):
		accountID, err := strconv.ParseInt(room[1:], 10, 64)
		if err != nil || accountID < 1 {
			return false
		}
		return a.canJoinAccount(ctx, userID, accountID)

	default:
		return false
	}
}

func (a *RoomAuthorizer) canJoinAccount(ctx context.Context, userID, accountID int64) bool {
	if userID != 0 {
		collab, err := a.accounts.GetCollaborator(ctx, accountID, userID)
		if err != nil {
			a.log.Warn("collaborator lookup failed",
				zap.Int64("account_id", accountID),
				zap.Int64("user_id", userID),
				zap.Error(err))
			return false
		}
		if collab != nil {
			return true
		}
	}

	shared, err := a.accounts.HasSharedBoard(ctx, accountID)
	if err != nil {
		a.log.Warn("shared board lookup failed",
			zap.Int64("account_id", accountID),
			zap.Error(err))
		return false
	}
	return shared
}
