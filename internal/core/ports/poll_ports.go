package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PollRepository interface {
	// Create persists the poll and its options atomically and fills in the
	// backend-assigned ids and timestamps.
	Create(ctx context.Context, poll *domain.Poll) error
	// GetByID returns nil, nil when no poll matches.
	GetByID(ctx context.Context, id int64) (*domain.Poll, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Poll, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Poll, error)
	ListIDs(ctx context.Context) ([]int64, error)
	// Update and Delete apply the owner access policy: only actor's polls
	// are affected.
	Update(ctx context.Context, id int64, actor uuid.UUID, patch domain.PollPatch) (*domain.Poll, error)
	Delete(ctx context.Context, id int64, actor uuid.UUID) error
}

type CreatePollInput struct {
	Title       string
	Description string
	Options     []string
	OwnerID     uuid.UUID
	OwnerName   string
}

type ListPollsInput struct {
	Limit  int
	Offset int
}

type UpdatePollInput struct {
	ID          int64
	Actor       uuid.UUID
	Title       *string
	Description *string
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id int64) (*domain.Poll, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Update(ctx context.Context, input UpdatePollInput) (*domain.Poll, error)
	Delete(ctx context.Context, id int64, actor uuid.UUID) error
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error)
	ListVotedBy(ctx context.Context, userID uuid.UUID) ([]*domain.Poll, error)
}
