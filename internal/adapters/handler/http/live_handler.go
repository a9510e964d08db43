package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/adapters/realtime"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
	"github.com/vncsmyrnk/pollstr/internal/core/session"
)

// LiveHandler serves the websocket streams: live poll results and the
// session change feed.
type LiveHandler struct {
	hub            *realtime.Hub
	tally          ports.TallyService
	sessions       ports.SessionSource
	subscriber     ports.SessionSubscriber
	originPatterns []string
	logger         *log.Entry
}

func NewLiveHandler(hub *realtime.Hub, tally ports.TallyService, sessions ports.SessionSource, subscriber ports.SessionSubscriber, originPatterns []string) *LiveHandler {
	return &LiveHandler{
		hub:            hub,
		tally:          tally,
		sessions:       sessions,
		subscriber:     subscriber,
		originPatterns: originPatterns,
		logger:         log.WithField("component", "live"),
	}
}

func (h *LiveHandler) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
}

// PollResults streams a results snapshot on connect and after every vote.
func (h *LiveHandler) PollResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	results, err := h.tally.Results(r.Context(), pollID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	initial, err := json.Marshal(results)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	conn, err := h.accept(w, r)
	if err != nil {
		h.logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	// The upgraded connection outlives the request timeout.
	ctx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := h.hub.Join(ctx, pollID)
	if err != nil {
		conn.Close(websocket.StatusTryAgainLater, "results stream unavailable")
		return
	}

	if err := h.hub.Serve(ctx, conn, client, initial); err != nil {
		h.logger.WithError(err).WithField("poll_id", pollID).Debug("results stream ended")
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

// SessionEvents keeps a session store bound to the caller's session events
// and forwards every snapshot. The stream ends once the session is signed
// out.
func (h *LiveHandler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	user := session.UserFrom(r.Context())

	store := session.NewStore()
	if err := store.Restore(r.Context(), h.sessions, accessToken(r)); err != nil {
		WriteError(w, r, err)
		return
	}

	conn, err := h.accept(w, r)
	if err != nil {
		h.logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	ctx = conn.CloseRead(ctx)

	updates := make(chan session.Snapshot, 8)
	unwatch := store.Watch(func(snap session.Snapshot) {
		select {
		case updates <- snap:
		default:
			cancel()
		}
	})
	defer unwatch()
	release := store.Bind(h.subscriber, user.ID)
	defer release()

	snap := store.Current()
	for {
		if err := writeSnapshot(ctx, conn, snap); err != nil {
			return
		}
		if snap.State != session.Authenticated {
			conn.Close(websocket.StatusNormalClosure, "signed out")
			return
		}

		select {
		case <-ctx.Done():
			return
		case snap = <-updates:
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap session.Snapshot) error {
	data, err := json.Marshal(sessionResponse{State: snap.State.String(), User: snap.User})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
