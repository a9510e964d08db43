package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// RevokeRefreshToken reports whether this call performed the revoke. It
	// is false when the token was already revoked or does not exist.
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) (bool, error)
}

type TokenPayload struct {
	Email   string
	Name    string
	Picture string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, domain.Tokens, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, domain.Tokens, error)
	LoginWithGoogle(ctx context.Context, googleToken string) (*domain.User, domain.Tokens, error)
	// RefreshAccessToken returns a new access token and the (possibly
	// rotated) refresh token.
	RefreshAccessToken(ctx context.Context, refreshToken string) (domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	SessionSource
}
