package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

const clientBuffer = 16

var ErrHubClosed = errors.New("realtime hub closed")

type message struct {
	pollID int64
	data   []byte
}

// Client is one websocket subscriber of a poll's live results.
type Client struct {
	PollID int64
	Send   chan []byte
}

// Hub fans results snapshots out to the subscribers of each poll. The client
// maps are owned by the Run goroutine.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		broadcast:  make(chan message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, conns := range h.clients {
			for c := range conns {
				close(c.Send)
			}
		}
		h.clients = nil
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			conns := h.clients[client.PollID]
			if conns == nil {
				conns = make(map[*Client]struct{})
				h.clients[client.PollID] = conns
			}
			conns[client] = struct{}{}

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.broadcast:
			for c := range h.clients[msg.pollID] {
				select {
				case c.Send <- msg.data:
				default:
					// too slow to keep up
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	conns := h.clients[c.PollID]
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.clients, c.PollID)
	}
}

func (h *Hub) Join(ctx context.Context, pollID int64) (*Client, error) {
	c := &Client{PollID: pollID, Send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
		return c, nil
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishResults implements ports.ResultsPublisher.
func (h *Hub) PublishResults(ctx context.Context, results *domain.Results) {
	if results == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		log.WithError(err).WithField("component", "realtime").Error("failed to encode results")
		return
	}
	select {
	case h.broadcast <- message{pollID: results.PollID, data: data}:
	case <-h.done:
	case <-ctx.Done():
	}
}

// Serve pumps the client's snapshots into conn until the peer goes away,
// ctx ends or the hub drops the client. initial, when set, is written first.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, c *Client, initial []byte) error {
	defer h.Leave(c)

	// Incoming frames are not expected; CloseRead handles control frames and
	// cancels ctx once the peer closes.
	ctx = conn.CloseRead(ctx)

	if initial != nil {
		if err := conn.Write(ctx, websocket.MessageText, initial); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-c.Send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "stream closed")
				return nil
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return err
			}
		}
	}
}
