package repository

import (
	"context"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	// Update persists profile fields and role. Bookmarks are changed only
	// through AddBookmark and RemoveBookmark.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// AddBookmark appends petID to the user's list and returns the new list.
	// It returns ErrDuplicate when petID is already present.
	AddBookmark(ctx context.Context, userID, petID string) ([]string, error)
	// RemoveBookmark drops petID if present and returns the resulting list.
	RemoveBookmark(ctx context.Context, userID, petID string) ([]string, error)
	// PurgeBookmark removes petID from every user's list.
	PurgeBookmark(ctx context.Context, petID string) error
}
