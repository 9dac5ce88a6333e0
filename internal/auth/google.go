package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleProfile holds the identity fields extracted from a verified Google ID token.
type GoogleProfile struct {
	Email     string
	FirstName string
	LastName  string
}

// GoogleVerifier validates Google-issued ID tokens and extracts the profile.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleProfile, error)
}

// GoogleTokenVerifier verifies ID tokens against Google's public keys for a
// configured OAuth client ID.
type GoogleTokenVerifier struct {
	clientID string
}

// NewGoogleTokenVerifier creates a verifier bound to the given OAuth client ID.
func NewGoogleTokenVerifier(clientID string) *GoogleTokenVerifier {
	return &GoogleTokenVerifier{clientID: clientID}
}

// Verify checks the token signature, audience, and expiry, and returns the
// holder's email and name claims.
func (v *GoogleTokenVerifier) Verify(ctx context.Context, token string) (*GoogleProfile, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("google id token missing email claim")
	}

	profile := &GoogleProfile{Email: email}
	if given, ok := payload.Claims["given_name"].(string); ok {
		profile.FirstName = given
	}
	if family, ok := payload.Claims["family_name"].(string); ok {
		profile.LastName = family
	}

	return profile, nil
}
