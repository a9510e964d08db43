package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID        int64     `json:"id"`
	PollID    int64     `json:"poll_id"`
	OptionID  int64     `json:"option_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type BallotState string

const (
	BallotNotVoted BallotState = "not_voted"
	BallotVoted    BallotState = "voted"
)

// Ballot is what a single viewer is allowed to see for a poll: the options to
// vote on, or the results once a vote exists.
type Ballot struct {
	Poll    *Poll       `json:"poll"`
	State   BallotState `json:"state"`
	Results *Results    `json:"results,omitempty"`
}
