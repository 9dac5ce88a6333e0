package repository

import (
	"context"
	"time"

	"github.com/storagerental/users-service/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and populates its ID and timestamps.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns users matching the filter plus the total count of matches
	// ignoring skip/limit.
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)

	// Update persists the user's mutable fields. A non-zero expectedUpdatedAt
	// guards the write: ErrPreconditionFailed when the row exists but has been
	// modified since that value was read, ErrNotFound when no row exists. A
	// zero expectedUpdatedAt writes unconditionally (last-writer-wins).
	Update(ctx context.Context, user *domain.User, expectedUpdatedAt time.Time) error

	// Delete removes a user, with the same expectedUpdatedAt contract as
	// Update.
	Delete(ctx context.Context, id int64, expectedUpdatedAt time.Time) error
}
