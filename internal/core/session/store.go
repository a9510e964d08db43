package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type State int

const (
	// Unknown lasts until the first session check resolves. Readers must not
	// treat it as signed out.
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type Snapshot struct {
	State State
	User  *domain.User
}

// Store holds the current identity of one client. The subscription callback
// and SignOut are its only writers.
type Store struct {
	mu       sync.RWMutex
	user     *domain.User
	state    State
	nextID   uint64
	watchers map[uint64]func(Snapshot)
}

func NewStore() *Store {
	return &Store{watchers: make(map[uint64]func(Snapshot))}
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, User: s.user}
}

// Restore resolves the Unknown state by asking source for the session behind
// accessToken. On failure the store resolves to Anonymous and the error is
// returned.
func (s *Store) Restore(ctx context.Context, source ports.SessionSource, accessToken string) error {
	if accessToken == "" {
		s.replace(nil)
		return nil
	}

	user, err := source.GetSession(ctx, accessToken)
	if err != nil {
		s.replace(nil)
		return err
	}
	s.replace(user)
	return nil
}

// Bind subscribes the store to session changes for userID. The returned func
// releases the subscription and must be called when the client goes away.
func (s *Store) Bind(subscriber ports.SessionSubscriber, userID uuid.UUID) (release func()) {
	return subscriber.Subscribe(userID, s.apply)
}

func (s *Store) SignOut() {
	s.replace(nil)
}

// Watch registers fn to be called with every new snapshot.
func (s *Store) Watch(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

func (s *Store) apply(event ports.SessionEvent) {
	if event.Kind == ports.SessionSignedOut {
		s.replace(nil)
		return
	}
	s.replace(event.User)
}

// replace swaps the whole identity; there is no merging of fields.
func (s *Store) replace(user *domain.User) {
	s.mu.Lock()
	s.user = user
	if user == nil {
		s.state = Anonymous
	} else {
		s.state = Authenticated
	}
	snap := Snapshot{State: s.state, User: s.user}
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
}
