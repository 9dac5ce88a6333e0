package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/storagerental/users-service/internal/domain"
	"github.com/storagerental/users-service/pkg/database"
	apperrors "github.com/storagerental/users-service/pkg/errors"
)

const userColumns = `user_id, first_name, last_name, email, password_hash, phone_number, address, city, state, zip_code, status, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and populates its generated ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, phone_number, address, city, state, zip_code, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING user_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Phone,
		u.Address,
		u.City,
		u.State,
		u.ZipCode,
		u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// List returns users matching the filter ordered by user_id, plus the total
// number of matches ignoring skip/limit.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.City != nil {
		args = append(args, *filter.City)
		conds = append(conds, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		conds = append(conds, fmt.Sprintf("state = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, filter.Limit, filter.Skip)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY user_id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, total, nil
}

// Update persists the user's mutable fields. When expectedUpdatedAt is
// non-zero the write is guarded so a concurrent write since the caller's read
// fails with ErrPreconditionFailed rather than being silently overwritten; a
// zero value writes unconditionally.
func (r *UserRepository) Update(ctx context.Context, u *domain.User, expectedUpdatedAt time.Time) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, phone_number = $4, address = $5,
		    city = $6, state = $7, zip_code = $8, status = $9, updated_at = $10
		WHERE user_id = $11`

	args := []any{
		u.FirstName,
		u.LastName,
		u.Email,
		u.Phone,
		u.Address,
		u.City,
		u.State,
		u.ZipCode,
		u.Status,
		u.UpdatedAt,
		u.ID,
	}
	if !expectedUpdatedAt.IsZero() {
		query += ` AND updated_at = $12`
		args = append(args, expectedUpdatedAt)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		if expectedUpdatedAt.IsZero() {
			return apperrors.NotFound("user", u.ID)
		}
		return r.staleOrMissing(ctx, u.ID)
	}

	return nil
}

// Delete removes a user, with the same expectedUpdatedAt contract as Update.
func (r *UserRepository) Delete(ctx context.Context, id int64, expectedUpdatedAt time.Time) error {
	query := `DELETE FROM users WHERE user_id = $1`
	args := []any{id}
	if !expectedUpdatedAt.IsZero() {
		query += ` AND updated_at = $2`
		args = append(args, expectedUpdatedAt)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		if expectedUpdatedAt.IsZero() {
			return apperrors.NotFound("user", id)
		}
		return r.staleOrMissing(ctx, id)
	}

	return nil
}

// staleOrMissing disambiguates a guarded write that touched zero rows: the
// row either no longer exists (not found) or exists with a newer updated_at
// (precondition failed).
func (r *UserRepository) staleOrMissing(ctx context.Context, id int64) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return apperrors.PreconditionFailed("user has been modified since it was last read")
	}
	return apperrors.NotFound("user", id)
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := scanUserRow(r.db.QueryRow(ctx, query, args...), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// scanUserRow scans the standard user column set from a row or rows iterator.
func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Address,
		&u.City,
		&u.State,
		&u.ZipCode,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
