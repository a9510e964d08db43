package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

const DefaultChannel = "pollstr:session-events"

func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return c, nil
}

// SessionRelay carries session events between server instances. Publish goes
// through Redis and Run feeds every received event, including this
// instance's own, into the local notifier.
type SessionRelay struct {
	client    *redis.Client
	channel   string
	local     ports.SessionNotifier
	ready     chan struct{}
	readyOnce sync.Once
	logger    *log.Entry
}

func NewSessionRelay(client *redis.Client, channel string, local ports.SessionNotifier) *SessionRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &SessionRelay{
		client:  client,
		channel: channel,
		local:   local,
		ready:   make(chan struct{}),
		logger:  log.WithField("component", "session-relay"),
	}
}

func (r *SessionRelay) Publish(ctx context.Context, event ports.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.WithError(err).Error("failed to encode session event")
		return
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		// Local subscribers still hear about it.
		r.logger.WithError(err).Warn("redis publish failed, delivering locally only")
		r.local.Publish(ctx, event)
	}
}

// Ready is closed once the subscription is confirmed by Redis.
func (r *SessionRelay) Ready() <-chan struct{} {
	return r.ready
}

func (r *SessionRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.WithField("channel", r.channel).Info("Subscribed to session events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event ports.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.WithError(err).Warn("dropping malformed session event")
				continue
			}
			r.local.Publish(ctx, event)
		}
	}
}
