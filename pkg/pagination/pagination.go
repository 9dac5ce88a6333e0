package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/storagerental/users-service/pkg/errors"
)

const (
	// DefaultLimit is used when the request carries no limit parameter.
	DefaultLimit = 10
	// MaxLimit caps the number of records a single page may return.
	MaxLimit = 100
)

// Params holds offset pagination parameters extracted from query strings.
type Params struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Skip:  0,
		Limit: DefaultLimit,
	}
}

// FromRequest extracts skip/limit parameters from an HTTP request. Values that
// do not parse or fall outside the allowed range (skip >= 0, 1 <= limit <= 100)
// yield an InvalidInput error rather than being silently clamped.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()

	if skip := r.URL.Query().Get("skip"); skip != "" {
		v, err := strconv.Atoi(skip)
		if err != nil || v < 0 {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("skip must be a non-negative integer, got %q", skip))
		}
		p.Skip = v
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 1 || v > MaxLimit {
			return Params{}, apperrors.InvalidInput(fmt.Sprintf("limit must be between 1 and %d, got %q", MaxLimit, limit))
		}
		p.Limit = v
	}

	return p, nil
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
	Skip       int `json:"skip"`
	Limit      int `json:"limit"`
}

// NewResult creates a paginated result. A nil data slice is normalized to an
// empty one so the JSON encoding is always an array.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Skip:       params.Skip,
		Limit:      params.Limit,
	}
}
