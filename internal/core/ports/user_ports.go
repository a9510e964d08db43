package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type UserRepository interface {
	// GetByEmail and GetByID return nil, nil when the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Create returns domain.ErrEmailTaken when the email is already in use.
	Create(ctx context.Context, user *domain.User) error
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
