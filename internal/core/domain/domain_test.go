package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResultsOf(t *testing.T) {
	poll := &Poll{
		ID: 7,
		Options: []PollOption{
			{ID: 1, Text: "Pizza", Votes: 2},
			{ID: 2, Text: "Salad", Votes: 1},
			{ID: 3, Text: "Soup", Votes: 0},
		},
	}

	results := ResultsOf(poll)

	assert.Equal(t, int64(7), results.PollID)
	assert.Equal(t, int64(3), results.TotalVotes)
	assert.Len(t, results.Options, 3)
	assert.InDelta(t, 66.66, results.Options[0].Percentage, 0.1)
	assert.InDelta(t, 33.33, results.Options[1].Percentage, 0.1)
	assert.Equal(t, 0.0, results.Options[2].Percentage)
	assert.Equal(t, "Pizza", results.Options[0].Text)
}

func TestResultsOf_NoVotes(t *testing.T) {
	poll := &Poll{Options: []PollOption{{ID: 1}, {ID: 2}}}

	results := ResultsOf(poll)

	assert.Equal(t, int64(0), results.TotalVotes)
	for _, o := range results.Options {
		assert.Equal(t, 0.0, o.Percentage)
	}
}

func TestPollHelpers(t *testing.T) {
	owner := uuid.New()
	poll := &Poll{OwnerID: owner, Options: []PollOption{{ID: 10}, {ID: 11}}}

	assert.True(t, poll.IsOwnedBy(owner))
	assert.False(t, poll.IsOwnedBy(uuid.New()))
	assert.True(t, poll.HasOption(11))
	assert.False(t, poll.HasOption(12))

	var missing *Poll
	assert.False(t, missing.IsOwnedBy(owner))
}

func TestErrorTaxonomy(t *testing.T) {
	verr := fmt.Errorf("create poll: %w", NewValidationError("options", "at least two options are required"))
	assert.True(t, IsValidation(verr))
	assert.False(t, IsBackend(verr))
	assert.Equal(t, "create poll: options: at least two options are required", verr.Error())

	berr := NewBackendError("update poll", ErrForbidden)
	assert.True(t, IsBackend(berr))
	assert.True(t, errors.Is(berr, ErrForbidden))
	assert.Nil(t, NewBackendError("noop", nil))
}
