package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestVerify(t *testing.T) {
	v := &GoogleVerifier{validate: func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "good" || audience != "client-id" {
			return nil, errors.New("idtoken: invalid token")
		}
		return &idtoken.Payload{Claims: map[string]interface{}{
			"email":          "ann@example.com",
			"email_verified": true,
			"name":           "Ann",
			"picture":        "https://example.com/ann.png",
		}}, nil
	}}

	payload, err := v.Verify(context.Background(), "good", "client-id")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", payload.Email)
	assert.Equal(t, "Ann", payload.Name)
	assert.Equal(t, "https://example.com/ann.png", payload.Picture)

	_, err = v.Verify(context.Background(), "bad", "client-id")
	assert.Error(t, err)
}

func TestPayloadFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		wantErr string
	}{
		{"missing email", map[string]interface{}{"name": "Ann"}, "email not found in claims"},
		{"unverified", map[string]interface{}{"email": "a@b.c", "email_verified": false, "name": "Ann"}, "email not verified"},
		{"missing name", map[string]interface{}{"email": "a@b.c"}, "name not found in claims"},
		{"no picture", map[string]interface{}{"email": "a@b.c", "name": "Ann"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := payloadFromClaims(tt.claims)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, payload.Picture)
		})
	}
}
