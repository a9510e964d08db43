package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type VoteRepository interface {
	// SaveVote returns domain.ErrDuplicateVote when the voter already has a
	// vote on the poll.
	SaveVote(ctx context.Context, vote *domain.Vote) error
	HasVoted(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error)
	PollIDsVotedBy(ctx context.Context, userID uuid.UUID) ([]int64, error)
}

type VoteInput struct {
	PollID   int64
	OptionID int64
	UserID   uuid.UUID
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Ballot, error)
	HasVoted(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error)
	// Ballot decides whether the viewer gets the ballot or the results.
	// A nil viewer always gets the ballot.
	Ballot(ctx context.Context, pollID int64, viewer *uuid.UUID) (*domain.Ballot, error)
}

// ResultsPublisher receives a fresh results snapshot after each vote.
type ResultsPublisher interface {
	PublishResults(ctx context.Context, results *domain.Results)
}
