package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

// memoryBackend mimics the PostgreSQL schema: generated ids, the
// (poll_id, user_id) unique constraint, the vote-count trigger and the owner
// filter on update/delete.
type memoryBackend struct {
	mu         sync.Mutex
	nextPoll   int64
	nextOption int64
	nextVote   int64
	clock      time.Time
	polls      map[int64]*domain.Poll
	votes      []domain.Vote
	createErr  error
	createCall int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		clock: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		polls: make(map[int64]*domain.Poll),
	}
}

func clonePoll(p *domain.Poll) *domain.Poll {
	c := *p
	c.Options = append([]domain.PollOption(nil), p.Options...)
	return &c
}

func (b *memoryBackend) Create(ctx context.Context, poll *domain.Poll) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCall++
	if b.createErr != nil {
		return b.createErr
	}

	b.nextPoll++
	b.clock = b.clock.Add(time.Second)
	poll.ID = b.nextPoll
	poll.CreatedAt = b.clock
	for i := range poll.Options {
		b.nextOption++
		poll.Options[i].ID = b.nextOption
		poll.Options[i].PollID = poll.ID
		poll.Options[i].Votes = 0
	}
	b.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (b *memoryBackend) GetByID(ctx context.Context, id int64) (*domain.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.polls[id]
	if !ok {
		return nil, nil
	}
	return clonePoll(p), nil
}

func (b *memoryBackend) sorted(filter func(*domain.Poll) bool) []*domain.Poll {
	var out []*domain.Poll
	for _, p := range b.polls {
		if filter(p) {
			out = append(out, clonePoll(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (b *memoryBackend) List(ctx context.Context, limit, offset int) ([]*domain.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.sorted(func(*domain.Poll) bool { return true })
	if offset >= len(all) {
		return []*domain.Poll{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (b *memoryBackend) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sorted(func(p *domain.Poll) bool { return p.OwnerID == ownerID }), nil
}

func (b *memoryBackend) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return b.sorted(func(p *domain.Poll) bool { return wanted[p.ID] }), nil
}

func (b *memoryBackend) ListIDs(ctx context.Context) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.polls))
	for id := range b.polls {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *memoryBackend) Update(ctx context.Context, id int64, actor uuid.UUID, patch domain.PollPatch) (*domain.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	if p.OwnerID != actor {
		return nil, domain.NewBackendError("update poll", domain.ErrForbidden)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	return clonePoll(p), nil
}

func (b *memoryBackend) Delete(ctx context.Context, id int64, actor uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.polls[id]
	if !ok {
		return domain.ErrPollNotFound
	}
	if p.OwnerID != actor {
		return domain.NewBackendError("delete poll", domain.ErrForbidden)
	}
	delete(b.polls, id)
	kept := b.votes[:0]
	for _, v := range b.votes {
		if v.PollID != id {
			kept = append(kept, v)
		}
	}
	b.votes = kept
	return nil
}

func (b *memoryBackend) SaveVote(ctx context.Context, vote *domain.Vote) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range b.votes {
		if v.PollID == vote.PollID && v.UserID == vote.UserID {
			return domain.ErrDuplicateVote
		}
	}
	p, ok := b.polls[vote.PollID]
	if !ok {
		return domain.NewBackendError("save vote", domain.ErrInvalidOption)
	}
	found := false
	for i := range p.Options {
		if p.Options[i].ID == vote.OptionID {
			p.Options[i].Votes++
			found = true
		}
	}
	if !found {
		return domain.NewBackendError("save vote", domain.ErrInvalidOption)
	}
	b.nextVote++
	vote.ID = b.nextVote
	vote.CreatedAt = b.clock
	b.votes = append(b.votes, *vote)
	return nil
}

func (b *memoryBackend) HasVoted(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range b.votes {
		if v.PollID == pollID && v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (b *memoryBackend) PollIDsVotedBy(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int64
	for _, v := range b.votes {
		if v.UserID == userID {
			ids = append(ids, v.PollID)
		}
	}
	return ids, nil
}

func (b *memoryBackend) ReconcileVotes(ctx context.Context, pollID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.polls[pollID]
	if !ok {
		return nil
	}
	counts := make(map[int64]int64)
	for _, v := range b.votes {
		if v.PollID == pollID {
			counts[v.OptionID]++
		}
	}
	for i := range p.Options {
		p.Options[i].Votes = counts[p.Options[i].ID]
	}
	return nil
}

// corrupt overwrites an option count, simulating drift of the denormalized column.
func (b *memoryBackend) corrupt(pollID int64, idx int, votes int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls[pollID].Options[idx].Votes = votes
}

var (
	_ ports.PollRepository  = (*memoryBackend)(nil)
	_ ports.VoteRepository  = (*memoryBackend)(nil)
	_ ports.TallyRepository = (*memoryBackend)(nil)
)
