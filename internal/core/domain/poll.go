package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinPollOptions  = 2
	MaxPollOptions  = 20
	MinTitleLength  = 5
	MaxTitleLength  = 200
	MaxOptionLength = 200
)

type Poll struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	OwnerName   string       `json:"owner_name"`
	Options     []PollOption `json:"options"`
}

type PollOption struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
	Votes  int64  `json:"votes"`
}

// PollPatch carries a partial update. Nil fields are left unchanged.
type PollPatch struct {
	Title       *string
	Description *string
}

func (p *Poll) IsOwnedBy(userID uuid.UUID) bool {
	return p != nil && p.OwnerID == userID
}

func (p *Poll) HasOption(optionID int64) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

func (p *Poll) TotalVotes() int64 {
	var total int64
	for _, opt := range p.Options {
		total += opt.Votes
	}
	return total
}
