package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

// DefaultReconcileConcurrency caps how many polls ReconcileAll repairs at
// once, and so how many connections it holds.
const DefaultReconcileConcurrency = 4

type tallyService struct {
	pollRepo    ports.PollRepository
	tallyRepo   ports.TallyRepository
	concurrency int
}

// NewTallyService returns a TallyService. A concurrency below 1 falls back to
// DefaultReconcileConcurrency.
func NewTallyService(pollRepo ports.PollRepository, tallyRepo ports.TallyRepository, concurrency int) ports.TallyService {
	if concurrency < 1 {
		concurrency = DefaultReconcileConcurrency
	}
	return &tallyService{
		pollRepo:    pollRepo,
		tallyRepo:   tallyRepo,
		concurrency: concurrency,
	}
}

func (s *tallyService) Results(ctx context.Context, pollID int64) (*domain.Results, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	return domain.ResultsOf(poll), nil
}

func (s *tallyService) ReconcileAll(ctx context.Context) error {
	ids, err := s.pollRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all polls: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := s.tallyRepo.ReconcileVotes(gctx, id); err != nil {
				return fmt.Errorf("failed to reconcile poll %d: %w", id, err)
			}
			return nil
		})
	}

	return g.Wait()
}
