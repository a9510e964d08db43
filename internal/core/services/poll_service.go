package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type pollService struct {
	repo     ports.PollRepository
	voteRepo ports.VoteRepository
}

func NewPollService(repo ports.PollRepository, voteRepo ports.VoteRepository) ports.PollService {
	return &pollService{
		repo:     repo,
		voteRepo: voteRepo,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	title, err := validTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.OwnerID == uuid.Nil {
		return nil, domain.NewValidationError("owner", "owner is required")
	}

	poll := &domain.Poll{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
		OwnerName:   input.OwnerName,
	}

	for _, optText := range input.Options {
		optText = strings.TrimSpace(optText)
		if optText == "" {
			continue
		}
		if utf8.RuneCountInString(optText) > domain.MaxOptionLength {
			return nil, domain.NewValidationError("options", fmt.Sprintf("options must be at most %d characters", domain.MaxOptionLength))
		}
		poll.Options = append(poll.Options, domain.PollOption{Text: optText})
	}

	if len(poll.Options) < domain.MinPollOptions {
		return nil, domain.NewValidationError("options", "at least two non-empty options are required")
	}
	if len(poll.Options) > domain.MaxPollOptions {
		return nil, domain.NewValidationError("options", fmt.Sprintf("at most %d options are allowed", domain.MaxPollOptions))
	}

	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id int64) (*domain.Poll, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *pollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	limit, offset := input.Limit, input.Offset
	if limit <= 0 {
		limit = ports.DefaultPageSize
	}
	if limit > ports.MaxPageSize {
		limit = ports.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, limit, offset)
}

func (s *pollService) Update(ctx context.Context, input ports.UpdatePollInput) (*domain.Poll, error) {
	patch := domain.PollPatch{}
	if input.Title != nil {
		title, err := validTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		patch.Description = &description
	}

	return s.repo.Update(ctx, input.ID, input.Actor, patch)
}

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", domain.NewValidationError("title", "title is required")
	}
	n := utf8.RuneCountInString(title)
	if n < domain.MinTitleLength {
		return "", domain.NewValidationError("title", fmt.Sprintf("title must be at least %d characters", domain.MinTitleLength))
	}
	if n > domain.MaxTitleLength {
		return "", domain.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength))
	}
	return title, nil
}

func (s *pollService) Delete(ctx context.Context, id int64, actor uuid.UUID) error {
	return s.repo.Delete(ctx, id, actor)
}

func (s *pollService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *pollService) ListVotedBy(ctx context.Context, userID uuid.UUID) ([]*domain.Poll, error) {
	ids, err := s.voteRepo.PollIDsVotedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Poll{}, nil
	}

	return s.repo.ListByIDs(ctx, ids)
}
