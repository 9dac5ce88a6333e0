package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storagerental/users-service/internal/domain"
	"github.com/storagerental/users-service/internal/service"
	apperrors "github.com/storagerental/users-service/pkg/errors"
	"github.com/storagerental/users-service/pkg/httputil"
	"github.com/storagerental/users-service/pkg/middleware"
	"github.com/storagerental/users-service/pkg/pagination"
	"github.com/storagerental/users-service/pkg/validator"
)

// maxBodySize caps request bodies at 1MB.
const maxBodySize = 1 << 20

// UserHandler handles HTTP requests for user CRUD, rental proxy, and
// verification-job endpoints.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateUserRequest is the JSON request body for user registration.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Phone     string `json:"phone_number" validate:"omitempty,max=20"`
	Address   string `json:"address" validate:"omitempty,max=255"`
	City      string `json:"city" validate:"omitempty,max=100"`
	State     string `json:"state" validate:"omitempty,len=2"`
	ZipCode   string `json:"zip_code" validate:"omitempty,max=10"`
}

// UpdateUserRequest is the JSON request body for a partial user update.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone_number" validate:"omitempty,max=20"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	State     *string `json:"state" validate:"omitempty,len=2"`
	ZipCode   *string `json:"zip_code" validate:"omitempty,max=10"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// --- Resource representations ---

// userResource is a user payload with hypermedia links.
type userResource struct {
	*domain.User
	Links map[string]string `json:"_links"`
}

func userLinks(id int64) map[string]string {
	self := fmt.Sprintf("/api/v1/users/%d", id)
	return map[string]string{
		"self":    self,
		"update":  self,
		"delete":  self,
		"rentals": self + "/rentals",
	}
}

func newUserResource(u *domain.User) userResource {
	return userResource{User: u, Links: userLinks(u.ID)}
}

// --- CRUD handlers ---

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tag, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/users/%d", user.ID))
	w.Header().Set("ETag", `"`+tag+`"`)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newUserResource(user)})
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	filter := domain.UserFilter{Skip: params.Skip, Limit: params.Limit}
	q := r.URL.Query()
	if city := q.Get("city"); city != "" {
		filter.City = &city
	}
	if state := q.Get("state"); state != "" {
		filter.State = &state
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.Status(raw)
		if !domain.ValidStatus(status) {
			httputil.WriteError(w, r, apperrors.InvalidInput("status must be one of active, inactive, suspended"), h.logger)
			return
		}
		filter.Status = &status
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resources := make([]userResource, 0, len(result.Data))
	for i := range result.Data {
		resources = append(resources, newUserResource(&result.Data[i]))
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(resources, result.TotalCount, params),
	})
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	user, tag, notModified, err := h.service.Get(r.Context(), actorID, id, r.Header.Get("If-None-Match"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("ETag", `"`+tag+`"`)
	if notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newUserResource(user)})
}

// Update handles PUT /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		input.Status = &status
	}

	actorID := middleware.UserIDFromContext(r.Context())
	user, tag, err := h.service.Update(r.Context(), actorID, id, input, r.Header.Get("If-Match"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("ETag", `"`+tag+`"`)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newUserResource(user)})
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actorID, id, r.Header.Get("If-Match")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Rental proxy handlers ---

// ListRentals handles GET /api/v1/users/{id}/rentals
func (h *UserHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("active_only") == "true"
	actorID := middleware.UserIDFromContext(r.Context())

	rentals, err := h.service.GetRentals(r.Context(), actorID, id, activeOnly)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rentals})
}

// GetRental handles GET /api/v1/users/{id}/rentals/{rentalID}
func (h *UserHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	rentalID, ok := httputil.ParseID(w, chi.URLParam(r, "rentalID"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	rental, err := h.service.GetRentalDetail(r.Context(), actorID, id, rentalID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rental})
}

// --- Verification job handlers ---

// jobResource is a job payload with hypermedia links.
type jobResource struct {
	JobID       string            `json:"job_id"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Links       map[string]string `json:"_links"`
}

// VerifyEmail handles POST /api/v1/users/{id}/verify-email
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	actorID := middleware.UserIDFromContext(r.Context())
	job, err := h.service.VerifyEmail(r.Context(), actorID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: jobResource{
		JobID:  job.ID,
		Status: string(job.Status),
		Links: map[string]string{
			"poll": "/api/v1/users/tasks/" + job.ID,
			"self": fmt.Sprintf("/api/v1/users/%d/verify-email", id),
		},
	}})
}

// JobStatus handles GET /api/v1/users/tasks/{jobID}. The raw id is looked up
// as-is; any unknown id, well-formed or not, is a plain miss.
func (h *UserHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.JobStatus(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: jobResource{
		JobID:       job.ID,
		Status:      string(job.Status),
		Error:       job.Error,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Links: map[string]string{
			"self": "/api/v1/users/tasks/" + job.ID,
		},
	}})
}
