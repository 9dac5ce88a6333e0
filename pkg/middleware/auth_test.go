package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storagerental/users-service/pkg/httputil"
)

func okValidator(claims *Claims) TokenValidator {
	return func(ctx context.Context, token string) (*Claims, error) {
		return claims, nil
	}
}

func failValidator() TokenValidator {
	return func(ctx context.Context, token string) (*Claims, error) {
		return nil, fmt.Errorf("token expired")
	}
}

func TestAuth_MissingHeader_Returns401(t *testing.T) {
	handler := Auth(okValidator(&Claims{UserID: 1}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_MalformedHeader_Returns401(t *testing.T) {
	handler := Auth(okValidator(&Claims{UserID: 1}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	for _, header := range []string{"sometoken", "Basic abc123", "Bearer"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
		req.Header.Set("Authorization", header)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q should be rejected", header)
	}
}

func TestAuth_InvalidToken_Returns401(t *testing.T) {
	handler := Auth(failValidator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_ErrorBody_UsesStandardEnvelope(t *testing.T) {
	handler := Auth(failValidator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	handler.ServeHTTP(rec, req)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Equal(t, "invalid or expired token", resp.Error.Message)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	var gotID int64
	var gotEmail string
	handler := Auth(okValidator(&Claims{UserID: 42, Email: "jane@example.com"}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = UserIDFromContext(r.Context())
			gotEmail = EmailFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotID)
	assert.Equal(t, "jane@example.com", gotEmail)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	handler := Auth(okValidator(&Claims{UserID: 7}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	req.Header.Set("Authorization", "bearer good-token")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserIDFromContext_Missing(t *testing.T) {
	assert.Equal(t, int64(0), UserIDFromContext(context.Background()))
}

func TestEmailFromContext_Missing(t *testing.T) {
	assert.Equal(t, "", EmailFromContext(context.Background()))
}
