package ports

import (
	"context"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type TallyRepository interface {
	// ReconcileVotes recomputes the denormalized option vote counts of a poll
	// from its vote rows.
	ReconcileVotes(ctx context.Context, pollID int64) error
}

type TallyService interface {
	Results(ctx context.Context, pollID int64) (*domain.Results, error)
	ReconcileAll(ctx context.Context) error
}
