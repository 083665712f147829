package services

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubGoogle(payload *idtoken.Payload, err error) *GoogleVerifier {
	g := NewGoogleVerifier("client-id.apps.googleusercontent.com")
	g.validate = func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
		if audience != "client-id.apps.googleusercontent.com" {
			return nil, errors.New("audience mismatch")
		}
		return payload, err
	}
	return g
}

func TestGoogleVerifier(t *testing.T) {
	ctx := context.Background()

	id, err := stubGoogle(&idtoken.Payload{Claims: map[string]interface{}{
		"email":          "g@gmail.com",
		"email_verified": true,
		"name":           "Google User",
	}}, nil).Verify(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "g@gmail.com", id.Email)
	assert.Equal(t, "Google User", id.Name)

	_, err = stubGoogle(nil, errors.New("idtoken: token expired")).Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)

	netErr := &url.Error{Op: "Get", URL: "https://www.googleapis.com/oauth2/v3/certs", Err: errors.New("timeout")}
	_, err = stubGoogle(nil, netErr).Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = stubGoogle(&idtoken.Payload{Claims: map[string]interface{}{
		"email": "g@gmail.com", "email_verified": false,
	}}, nil).Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = stubGoogle(&idtoken.Payload{Claims: map[string]interface{}{}}, nil).Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
