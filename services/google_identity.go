package services

import (
	"context"
	"errors"
	"net/url"

	"google.golang.org/api/idtoken"
)

// ExternalIdentity is what a provider vouches for after verifying its token.
type ExternalIdentity struct {
	Email string
	Name  string
}

func (e ExternalIdentity) displayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Email
}

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*ExternalIdentity, error)
}

// GoogleVerifier validates Google Sign-In id tokens against the OAuth
// client id.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*ExternalIdentity, error) {
	payload, err := g.validate(ctx, token, g.clientID)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, wrapError(ErrUpstream, err, "google identity service unavailable")
		}
		return nil, wrapError(ErrInvalidToken, err, "invalid google token")
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, newError(ErrInvalidToken, "google token has no email")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, newError(ErrInvalidToken, "google email is not verified")
	}
	name, _ := payload.Claims["name"].(string)

	return &ExternalIdentity{Email: email, Name: name}, nil
}
