package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type voteService struct {
	pollRepo  ports.PollRepository
	voteRepo  ports.VoteRepository
	publisher ports.ResultsPublisher
	recorder  VoteRecorder
}

// VoteRecorder observes the outcome of each vote attempt.
type VoteRecorder interface {
	VoteCast()
	VoteRejected(reason string)
}

type VoteOption func(*voteService)

func WithResultsPublisher(p ports.ResultsPublisher) VoteOption {
	return func(s *voteService) { s.publisher = p }
}

func WithVoteRecorder(r VoteRecorder) VoteOption {
	return func(s *voteService) { s.recorder = r }
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository, opts ...VoteOption) ports.VoteService {
	s := &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Ballot, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		s.recorder.VoteRejected("not_found")
		return nil, domain.ErrPollNotFound
	}
	if !poll.HasOption(input.OptionID) {
		s.recorder.VoteRejected("invalid_option")
		return nil, domain.ErrInvalidOption
	}

	// No "has voted" pre-check: the unique constraint decides.
	vote := &domain.Vote{
		PollID:   input.PollID,
		OptionID: input.OptionID,
		UserID:   input.UserID,
	}
	if err := s.voteRepo.SaveVote(ctx, vote); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateVote):
			s.recorder.VoteRejected("duplicate")
		default:
			s.recorder.VoteRejected("backend")
		}
		return nil, err
	}
	s.recorder.VoteCast()

	// Re-read so the results include the trigger-maintained counts.
	updated, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrPollNotFound
	}

	results := domain.ResultsOf(updated)
	if s.publisher != nil {
		s.publisher.PublishResults(ctx, results)
	}

	return &domain.Ballot{Poll: updated, State: domain.BallotVoted, Results: results}, nil
}

func (s *voteService) HasVoted(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	return s.voteRepo.HasVoted(ctx, pollID, userID)
}

func (s *voteService) Ballot(ctx context.Context, pollID int64, viewer *uuid.UUID) (*domain.Ballot, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}

	if viewer == nil || *viewer == uuid.Nil {
		return &domain.Ballot{Poll: poll, State: domain.BallotNotVoted}, nil
	}

	voted, err := s.voteRepo.HasVoted(ctx, pollID, *viewer)
	if err != nil {
		return nil, err
	}
	if !voted {
		return &domain.Ballot{Poll: poll, State: domain.BallotNotVoted}, nil
	}

	return &domain.Ballot{Poll: poll, State: domain.BallotVoted, Results: domain.ResultsOf(poll)}, nil
}

type nopRecorder struct{}

func (nopRecorder) VoteCast()           {}
func (nopRecorder) VoteRejected(string) {}
