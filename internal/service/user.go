package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/storagerental/users-service/internal/auth"
	"github.com/storagerental/users-service/internal/domain"
	"github.com/storagerental/users-service/internal/etag"
	"github.com/storagerental/users-service/internal/jobs"
	"github.com/storagerental/users-service/internal/repository"
	apperrors "github.com/storagerental/users-service/pkg/errors"
	"github.com/storagerental/users-service/pkg/middleware"
	"github.com/storagerental/users-service/pkg/pagination"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// JobKindEmailVerification identifies the simulated verification-email job.
const JobKindEmailVerification = "email_verification"

// EventPublisher publishes user lifecycle events. Failures are logged by the
// service, never surfaced to the caller.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, userID int64, email string) error
}

// RentalFetcher retrieves rental records from the rental service.
type RentalFetcher interface {
	ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]domain.Rental, error)
	GetDetail(ctx context.Context, userID, rentalID int64) (*domain.Rental, error)
}

// UserService implements the business logic for user, auth, rental-proxy and
// verification-job operations.
type UserService struct {
	repo        repository.UserRepository
	jwtManager  *auth.JWTManager
	google      auth.GoogleVerifier
	events      EventPublisher
	tracker     *jobs.Tracker
	rentals     RentalFetcher
	logger      *slog.Logger
	verifyDelay time.Duration
}

// NewUserService creates a new user service. verifyDelay is how long the
// simulated verification-email job takes before completing.
func NewUserService(
	repo repository.UserRepository,
	jwtManager *auth.JWTManager,
	google auth.GoogleVerifier,
	events EventPublisher,
	tracker *jobs.Tracker,
	rentals RentalFetcher,
	logger *slog.Logger,
	verifyDelay time.Duration,
) *UserService {
	return &UserService{
		repo:        repo,
		jwtManager:  jwtManager,
		google:      google,
		events:      events,
		tracker:     tracker,
		rentals:     rentals,
		logger:      logger,
		verifyDelay: verifyDelay,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
}

// UpdateInput holds the parameters for a partial user update. Nil fields are
// left unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	City      *string
	State     *string
	ZipCode   *string
	Status    *domain.Status
}

// --- Auth operations ---

// Register creates a new user account with a hashed password. New accounts
// always start out active.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if input.Email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if input.FirstName == "" {
		return nil, "", apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, "", apperrors.InvalidInput("last name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		Status:       domain.StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, etag.Fingerprint(user.ID, user.UpdatedAt), nil
}

// Login authenticates a user with email and password and returns a signed
// access token. Accounts created through Google sign-in have no password and
// cannot log in this way.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if password == "" {
		return nil, "", apperrors.InvalidInput("password is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}

	if user.Status != domain.StatusActive {
		return nil, "", apperrors.Unauthorized("account is not active")
	}

	// Google-provisioned accounts have an empty hash; CompareHashAndPassword
	// rejects those along with wrong passwords.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, token, nil
}

// LoginWithGoogle verifies a Google ID token, finds or creates the matching
// local account by email, and returns a locally signed access token. First
// sign-in for an unseen email creates a new active account with no password.
func (s *UserService) LoginWithGoogle(ctx context.Context, idToken string) (*domain.User, string, error) {
	if idToken == "" {
		return nil, "", apperrors.InvalidInput("id token is required")
	}

	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid google id token")
	}

	user, err := s.repo.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if user.Status != domain.StatusActive {
			return nil, "", apperrors.Unauthorized("account is not active")
		}
	case errors.Is(err, apperrors.ErrNotFound):
		user = &domain.User{
			Email:     profile.Email,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Status:    domain.StatusActive,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("create google user: %w", err)
		}
		if err := s.events.PublishUserRegistered(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.registered event",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "user registered via google",
			slog.Int64("user_id", user.ID),
			slog.String("email", user.Email),
		)
	default:
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}

	return user, token, nil
}

// ResolveToken validates a bearer token and resolves its subject to a live
// user. Expired tokens, bad signatures, and subjects that no longer resolve
// all fail authentication.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token subject")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Unauthorized("token subject no longer exists")
	}

	return &middleware.Claims{UserID: user.ID, Email: user.Email}, nil
}

// --- Profile operations ---

// Get retrieves a user by id along with its current entity tag. Callers may
// only read their own record; the ownership check runs before the lookup so a
// 403 never reveals whether the target exists. When ifNoneMatch identifies
// the current tag the bool result is true and the caller should respond 304.
func (s *UserService) Get(ctx context.Context, actorID, id int64, ifNoneMatch string) (*domain.User, string, bool, error) {
	if actorID != id {
		return nil, "", false, apperrors.Forbidden("cannot access another user's account")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", false, fmt.Errorf("get user: %w", err)
	}

	tag := etag.Fingerprint(user.ID, user.UpdatedAt)
	if ifNoneMatch != "" && etag.Matches(ifNoneMatch, tag) {
		return nil, tag, true, nil
	}

	return user, tag, false, nil
}

// List returns users matching the filter with pagination metadata. Listing is
// not self-gated.
func (s *UserService) List(ctx context.Context, filter domain.UserFilter) (*pagination.Result[domain.User], error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := pagination.NewResult(users, total, pagination.Params{Skip: filter.Skip, Limit: filter.Limit})
	return &result, nil
}

// Update applies a partial update to the caller's own record. When ifMatch is
// supplied it must identify the record's current entity tag or the update is
// rejected with 412 and no side effects; when absent the write is
// unconditional. Returns the updated user and its new entity tag.
func (s *UserService) Update(ctx context.Context, actorID, id int64, input UpdateInput, ifMatch string) (*domain.User, string, error) {
	if actorID != id {
		return nil, "", apperrors.Forbidden("cannot modify another user's account")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("get user for update: %w", err)
	}

	currentTag := etag.Fingerprint(user.ID, user.UpdatedAt)
	if ifMatch != "" && !etag.Matches(ifMatch, currentTag) {
		return nil, "", apperrors.PreconditionFailed("resource has been modified, refresh and retry")
	}

	if err := applyUpdate(user, input); err != nil {
		return nil, "", err
	}

	// With If-Match, the updated_at guard also catches writers racing between
	// our read and this write. Without it the write is unconditional
	// (last-writer-wins), so no guard is passed.
	var expected time.Time
	if ifMatch != "" {
		expected = user.UpdatedAt
	}
	if err := s.repo.Update(ctx, user, expected); err != nil {
		return nil, "", fmt.Errorf("update user: %w", err)
	}

	if err := s.events.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.Int64("user_id", user.ID),
	)

	return user, etag.Fingerprint(user.ID, user.UpdatedAt), nil
}

// Delete removes the caller's own record. ifMatch behaves as in Update.
func (s *UserService) Delete(ctx context.Context, actorID, id int64, ifMatch string) error {
	if actorID != id {
		return apperrors.Forbidden("cannot delete another user's account")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user for delete: %w", err)
	}

	currentTag := etag.Fingerprint(user.ID, user.UpdatedAt)
	if ifMatch != "" && !etag.Matches(ifMatch, currentTag) {
		return apperrors.PreconditionFailed("resource has been modified, refresh and retry")
	}

	var expected time.Time
	if ifMatch != "" {
		expected = user.UpdatedAt
	}
	if err := s.repo.Delete(ctx, id, expected); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.events.PublishUserDeleted(ctx, user.ID, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.Int64("user_id", user.ID),
	)

	return nil
}

// --- Verification jobs ---

// VerifyEmail queues a simulated verification-email job for the caller's own
// account and returns immediately with the pending job.
func (s *UserService) VerifyEmail(ctx context.Context, actorID, id int64) (jobs.Job, error) {
	if actorID != id {
		return jobs.Job{}, apperrors.Forbidden("cannot verify another user's email")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return jobs.Job{}, fmt.Errorf("get user for verification: %w", err)
	}

	delay := s.verifyDelay
	job := s.tracker.Submit(JobKindEmailVerification, user.ID, func(ctx context.Context) error {
		select {
		case <-time.After(delay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	s.logger.InfoContext(ctx, "verification email queued",
		slog.Int64("user_id", user.ID),
		slog.String("job_id", job.ID),
	)

	return job, nil
}

// JobStatus returns a snapshot of a tracked job.
func (s *UserService) JobStatus(jobID string) (jobs.Job, error) {
	job, ok := s.tracker.Get(jobID)
	if !ok {
		return jobs.Job{}, apperrors.NotFound("job", jobID)
	}
	return job, nil
}

// --- Rental proxy operations ---

// GetRentals returns the caller's rentals from the rental service. Any
// rental the upstream attributes to a different user fails the whole request
// rather than leaking another user's data.
func (s *UserService) GetRentals(ctx context.Context, actorID, id int64, activeOnly bool) ([]domain.Rental, error) {
	if actorID != id {
		return nil, apperrors.Forbidden("cannot access another user's rentals")
	}

	rentals, err := s.rentals.ListByUser(ctx, id, activeOnly)
	if err != nil {
		return nil, err
	}

	for _, r := range rentals {
		if r.UserID != id {
			s.logger.ErrorContext(ctx, "rental service returned rental for wrong user",
				slog.Int64("requested_user_id", id),
				slog.Int64("rental_user_id", r.UserID),
				slog.Int64("rental_id", r.ID),
			)
			return nil, apperrors.Forbidden("rental does not belong to this user")
		}
	}

	return rentals, nil
}

// GetRentalDetail returns a single rental, verifying it belongs to the caller.
func (s *UserService) GetRentalDetail(ctx context.Context, actorID, id, rentalID int64) (*domain.Rental, error) {
	if actorID != id {
		return nil, apperrors.Forbidden("cannot access another user's rentals")
	}

	rental, err := s.rentals.GetDetail(ctx, id, rentalID)
	if err != nil {
		return nil, err
	}

	if rental.UserID != id {
		s.logger.ErrorContext(ctx, "rental service returned rental for wrong user",
			slog.Int64("requested_user_id", id),
			slog.Int64("rental_user_id", rental.UserID),
			slog.Int64("rental_id", rental.ID),
		)
		return nil, apperrors.Forbidden("rental does not belong to this user")
	}

	return rental, nil
}

// --- Helpers ---

// applyUpdate copies supplied fields onto the user, validating as it goes.
func applyUpdate(user *domain.User, input UpdateInput) error {
	if input.FirstName != nil {
		if *input.FirstName == "" {
			return apperrors.InvalidInput("first name must not be empty")
		}
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return apperrors.InvalidInput("last name must not be empty")
		}
		user.LastName = *input.LastName
	}
	if input.Email != nil {
		if *input.Email == "" {
			return apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	if input.City != nil {
		user.City = *input.City
	}
	if input.State != nil {
		if *input.State != "" && len(*input.State) != 2 {
			return apperrors.InvalidInput("state must be a 2-letter code")
		}
		user.State = *input.State
	}
	if input.ZipCode != nil {
		user.ZipCode = *input.ZipCode
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return apperrors.InvalidInput("status must be one of active, inactive, suspended")
		}
		user.Status = *input.Status
	}
	return nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
