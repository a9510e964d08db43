package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

type SessionEventKind string

const (
	SessionSignedIn    SessionEventKind = "signed_in"
	SessionRefreshed   SessionEventKind = "token_refreshed"
	SessionUserUpdated SessionEventKind = "user_updated"
	SessionSignedOut   SessionEventKind = "signed_out"
)

// SessionEvent always carries the complete identity after the change. User
// is nil for SessionSignedOut.
type SessionEvent struct {
	Kind   SessionEventKind `json:"kind"`
	UserID uuid.UUID        `json:"user_id"`
	User   *domain.User     `json:"user"`
}

// SessionSource restores an existing session from an access token. An
// invalid or expired token yields nil, nil.
type SessionSource interface {
	GetSession(ctx context.Context, accessToken string) (*domain.User, error)
}

type SessionNotifier interface {
	Publish(ctx context.Context, event SessionEvent)
}

type SessionSubscriber interface {
	// Subscribe registers fn for the events of one user and returns the
	// handle that removes it.
	Subscribe(userID uuid.UUID, fn func(SessionEvent)) (unsubscribe func())
}
