package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vncsmyrnk/pollstr/internal/adapters/realtime"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
	"github.com/vncsmyrnk/pollstr/internal/logging"
	"github.com/vncsmyrnk/pollstr/internal/metrics"
)

// stubPolls keeps polls in memory and records what the handlers pass in.
type stubPolls struct {
	mu        sync.Mutex
	polls     map[int64]*domain.Poll
	lastList  ports.ListPollsInput
	lastInput ports.CreatePollInput
	err       error
}

func (s *stubPolls) Create(_ context.Context, in ports.CreatePollInput) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	if len(in.Options) < domain.MinPollOptions {
		return nil, domain.NewValidationError("options", "at least 2 options are required")
	}
	p := &domain.Poll{ID: int64(len(s.polls) + 1), Title: in.Title, OwnerID: in.OwnerID, OwnerName: in.OwnerName}
	for i, text := range in.Options {
		p.Options = append(p.Options, domain.PollOption{ID: int64(i + 1), PollID: p.ID, Text: text})
	}
	s.polls[p.ID] = p
	return p, nil
}

func (s *stubPolls) GetPoll(_ context.Context, id int64) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls[id], s.err
}

func (s *stubPolls) ListPolls(_ context.Context, in ports.ListPollsInput) ([]*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = in
	return nil, s.err
}

func (s *stubPolls) Update(_ context.Context, in ports.UpdatePollInput) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.polls[in.ID]
	if p == nil {
		return nil, domain.ErrPollNotFound
	}
	if p.OwnerID != in.Actor {
		return nil, domain.NewBackendError("update poll", domain.ErrForbidden)
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	return p, nil
}

func (s *stubPolls) Delete(_ context.Context, id int64, actor uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.polls[id]
	if p == nil {
		return domain.ErrPollNotFound
	}
	if p.OwnerID != actor {
		return domain.NewBackendError("delete poll", domain.ErrForbidden)
	}
	delete(s.polls, id)
	return nil
}

func (s *stubPolls) ListOwned(_ context.Context, owner uuid.UUID) ([]*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Poll
	for _, p := range s.polls {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPolls) ListVotedBy(context.Context, uuid.UUID) ([]*domain.Poll, error) {
	return []*domain.Poll{}, nil
}

// stubVotes allows one vote per user and poll.
type stubVotes struct {
	polls *stubPolls
	hub   ports.ResultsPublisher
	mu    sync.Mutex
	voted map[int64]map[uuid.UUID]bool
}

func (s *stubVotes) Vote(ctx context.Context, in ports.VoteInput) (*domain.Ballot, error) {
	poll, _ := s.polls.GetPoll(ctx, in.PollID)
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	if !poll.HasOption(in.OptionID) {
		return nil, domain.ErrInvalidOption
	}

	s.mu.Lock()
	if s.voted[in.PollID] == nil {
		s.voted[in.PollID] = map[uuid.UUID]bool{}
	}
	if s.voted[in.PollID][in.UserID] {
		s.mu.Unlock()
		return nil, domain.ErrDuplicateVote
	}
	s.voted[in.PollID][in.UserID] = true
	s.mu.Unlock()

	s.polls.mu.Lock()
	for i := range poll.Options {
		if poll.Options[i].ID == in.OptionID {
			poll.Options[i].Votes++
		}
	}
	results := domain.ResultsOf(poll)
	s.polls.mu.Unlock()

	if s.hub != nil {
		s.hub.PublishResults(ctx, results)
	}
	return &domain.Ballot{Poll: poll, State: domain.BallotVoted, Results: results}, nil
}

func (s *stubVotes) HasVoted(_ context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voted[pollID][userID], nil
}

func (s *stubVotes) Ballot(ctx context.Context, pollID int64, viewer *uuid.UUID) (*domain.Ballot, error) {
	poll, _ := s.polls.GetPoll(ctx, pollID)
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	if viewer != nil {
		if voted, _ := s.HasVoted(ctx, pollID, *viewer); voted {
			return &domain.Ballot{Poll: poll, State: domain.BallotVoted, Results: domain.ResultsOf(poll)}, nil
		}
	}
	return &domain.Ballot{Poll: poll, State: domain.BallotNotVoted}, nil
}

type stubTally struct{ polls *stubPolls }

func (s stubTally) Results(ctx context.Context, pollID int64) (*domain.Results, error) {
	poll, _ := s.polls.GetPoll(ctx, pollID)
	if poll == nil {
		return nil, domain.ErrPollNotFound
	}
	return domain.ResultsOf(poll), nil
}

func (stubTally) ReconcileAll(context.Context) error { return nil }

type stubUsers struct{ users map[uuid.UUID]*domain.User }

func (s stubUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users[id], nil
}

// stubAuth treats a user's email as its access token.
type stubAuth struct {
	users    map[string]*domain.User
	notifier ports.SessionNotifier
}

func (s *stubAuth) GetSession(_ context.Context, token string) (*domain.User, error) {
	return s.users[token], nil
}

func (s *stubAuth) Register(_ context.Context, in ports.RegisterInput) (*domain.User, domain.Tokens, error) {
	if _, ok := s.users[in.Email]; ok {
		return nil, domain.Tokens{}, domain.ErrEmailTaken
	}
	u := &domain.User{ID: uuid.New(), Email: in.Email, Name: in.Name}
	s.users[in.Email] = u
	return u, domain.Tokens{AccessToken: in.Email, RefreshToken: "refresh:" + in.Email}, nil
}

func (s *stubAuth) SignIn(_ context.Context, email, password string) (*domain.User, domain.Tokens, error) {
	u, ok := s.users[email]
	if !ok || password != "correct horse" {
		return nil, domain.Tokens{}, domain.ErrInvalidCredentials
	}
	return u, domain.Tokens{AccessToken: email, RefreshToken: "refresh:" + email}, nil
}

func (s *stubAuth) LoginWithGoogle(context.Context, string) (*domain.User, domain.Tokens, error) {
	return nil, domain.Tokens{}, domain.ErrUnauthenticated
}

func (s *stubAuth) RefreshAccessToken(_ context.Context, refresh string) (domain.Tokens, error) {
	email := refresh[len("refresh:"):]
	if _, ok := s.users[email]; !ok {
		return domain.Tokens{}, domain.ErrUnauthenticated
	}
	return domain.Tokens{AccessToken: email, RefreshToken: refresh + "'"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, refresh string) error {
	email := refresh[len("refresh:"):]
	if u, ok := s.users[email]; ok && s.notifier != nil {
		s.notifier.Publish(ctx, ports.SessionEvent{Kind: ports.SessionSignedOut, UserID: u.ID})
	}
	return nil
}

type fixture struct {
	handler http.Handler
	polls   *stubPolls
	auth    *stubAuth
	broker  *session.Broker
	ann     *domain.User
	bob     *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ann := &domain.User{ID: uuid.New(), Email: "ann@example.com", Name: "Ann"}
	bob := &domain.User{ID: uuid.New(), Email: "bob@example.com", Name: "Bob"}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := realtime.NewHub()
	go hub.Run(ctx)

	broker := session.NewBroker()
	polls := &stubPolls{polls: map[int64]*domain.Poll{}}
	auth := &stubAuth{users: map[string]*domain.User{ann.Email: ann, bob.Email: bob}, notifier: broker}

	handler := NewRouter(
		RouterConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: 5 * time.Second,
			RedirectURL:    "http://localhost:3000/",
			Cookies:        CookieConfig{Insecure: true},
		},
		Services{
			Polls:    polls,
			Votes:    &stubVotes{polls: polls, hub: hub, voted: map[int64]map[uuid.UUID]bool{}},
			Tally:    stubTally{polls: polls},
			Users:    stubUsers{users: map[uuid.UUID]*domain.User{ann.ID: ann, bob.ID: bob}},
			Auth:     auth,
			Sessions: broker,
			Hub:      hub,
		},
		metrics.New("pollstr_test", prometheus.NewRegistry()),
		logging.New(io.Discard, "error"),
	)

	return &fixture{handler: handler, polls: polls, auth: auth, broker: broker, ann: ann, bob: bob}
}
