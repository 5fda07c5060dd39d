package auth

import (
	"context"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the verified payload of a Google ID token.
type GoogleIdentity struct {
	Email   string
	Name    string
	Subject string
}

// GoogleVerifier validates a Google-issued ID token and returns the
// identity it binds. Faked in tests.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (GoogleIdentity, error)
}

// GoogleClient verifies ID tokens against a Google OAuth client ID.
type GoogleClient struct {
	ClientID string
}

func (g *GoogleClient) Verify(ctx context.Context, rawIDToken string) (GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, g.ClientID)
	if err != nil {
		return GoogleIdentity{}, err
	}
	id := GoogleIdentity{Subject: payload.Subject}
	if v, ok := payload.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := payload.Claims["name"].(string); ok {
		id.Name = v
	}
	return id, nil
}
