// Package rentals proxies rental lookups to the rental service over HTTP.
package rentals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/storagerental/users-service/internal/domain"
	apperrors "github.com/storagerental/users-service/pkg/errors"
	"github.com/storagerental/users-service/pkg/httpclient"
)

// Doer is the HTTP surface the client needs; both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client fetches a user's rentals from the rental service.
type Client struct {
	http    Doer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a rental service client. baseURL has no trailing slash,
// e.g. "http://rentals:8080".
func NewClient(http Doer, baseURL string, logger *slog.Logger) *Client {
	return &Client{http: http, baseURL: baseURL, logger: logger}
}

// ListByUser returns the rentals belonging to the given user. A 404 from the
// rental service means the user simply has no rentals and yields an empty
// list. Connectivity failures and 5xx responses surface as 503 so callers
// can distinguish "no rentals" from "rental service down".
func (c *Client) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]domain.Rental, error) {
	url := fmt.Sprintf("%s/api/v1/rentals?user_id=%d", c.baseURL, userID)
	if activeOnly {
		url += "&active_only=true"
	}

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.logger.WarnContext(ctx, "rental service unreachable",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("rental service is unavailable")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var rentals []domain.Rental
		if err := json.NewDecoder(resp.Body).Decode(&rentals); err != nil {
			return nil, fmt.Errorf("decode rentals response: %w", err)
		}
		if rentals == nil {
			rentals = []domain.Rental{}
		}
		return rentals, nil
	case resp.StatusCode == http.StatusNotFound:
		return []domain.Rental{}, nil
	default:
		c.logUnexpected(ctx, resp, userID)
		return nil, apperrors.ServiceUnavailable("rental service returned an unexpected response")
	}
}

// GetDetail returns a single rental. The rental service's 404 maps to
// NotFound; any other failure maps to 503 as in ListByUser.
func (c *Client) GetDetail(ctx context.Context, userID, rentalID int64) (*domain.Rental, error) {
	url := fmt.Sprintf("%s/api/v1/rentals/%d", c.baseURL, rentalID)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		c.logger.WarnContext(ctx, "rental service unreachable",
			slog.Int64("rental_id", rentalID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("rental service is unavailable")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var rental domain.Rental
		if err := json.NewDecoder(resp.Body).Decode(&rental); err != nil {
			return nil, fmt.Errorf("decode rental response: %w", err)
		}
		return &rental, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("rental", rentalID)
	default:
		c.logUnexpected(ctx, resp, userID)
		return nil, apperrors.ServiceUnavailable("rental service returned an unexpected response")
	}
}

func (c *Client) logUnexpected(ctx context.Context, resp *http.Response, userID int64) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	c.logger.WarnContext(ctx, "unexpected rental service response",
		slog.Int("status", resp.StatusCode),
		slog.Int64("user_id", userID),
		slog.String("body", string(body)),
	)
}

// interface checks
var (
	_ Doer = (*httpclient.Client)(nil)
	_ Doer = (*httpclient.CircuitBreakerClient)(nil)
)
