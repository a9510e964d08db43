package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

func TestVoteRepository_SaveVoteBumpsTally(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	owner := createUser(t, db, "Ann")
	voter := createUser(t, db, "Bob")

	poll := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	require.NoError(t, polls.Create(ctx, poll))

	vote := &domain.Vote{PollID: poll.ID, OptionID: poll.Options[1].ID, UserID: voter}
	require.NoError(t, votes.SaveVote(ctx, vote))
	assert.NotZero(t, vote.ID)

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Options[0].Votes)
	assert.Equal(t, int64(1), got.Options[1].Votes)

	voted, err := votes.HasVoted(ctx, poll.ID, voter)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = votes.HasVoted(ctx, poll.ID, owner)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteRepository_DuplicateLeavesCountsUnchanged(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	owner := createUser(t, db, "Ann")
	voter := createUser(t, db, "Bob")

	poll := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	require.NoError(t, polls.Create(ctx, poll))
	require.NoError(t, votes.SaveVote(ctx, &domain.Vote{PollID: poll.ID, OptionID: poll.Options[0].ID, UserID: voter}))

	err := votes.SaveVote(ctx, &domain.Vote{PollID: poll.ID, OptionID: poll.Options[1].ID, UserID: voter})
	require.ErrorIs(t, err, domain.ErrDuplicateVote)
	assert.Equal(t, "you have already voted on this poll", err.Error())

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Options[0].Votes)
	assert.Equal(t, int64(0), got.Options[1].Votes)
}

func TestVoteRepository_OptionFromAnotherPoll(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	owner := createUser(t, db, "Ann")

	lunch := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	dinner := newPoll(owner, "Dinner?", "Soup", "Salad")
	require.NoError(t, polls.Create(ctx, lunch))
	require.NoError(t, polls.Create(ctx, dinner))

	err := votes.SaveVote(ctx, &domain.Vote{PollID: lunch.ID, OptionID: dinner.Options[0].ID, UserID: owner})
	require.ErrorIs(t, err, domain.ErrInvalidOption)
	assert.True(t, domain.IsBackend(err))
}

func TestVoteRepository_PollIDsVotedBy(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	owner := createUser(t, db, "Ann")
	voter := createUser(t, db, "Bob")

	ids, err := votes.PollIDsVotedBy(ctx, voter)
	require.NoError(t, err)
	assert.Empty(t, ids)

	lunch := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	dinner := newPoll(owner, "Dinner?", "Soup", "Salad")
	require.NoError(t, polls.Create(ctx, lunch))
	require.NoError(t, polls.Create(ctx, dinner))
	require.NoError(t, votes.SaveVote(ctx, &domain.Vote{PollID: dinner.ID, OptionID: dinner.Options[0].ID, UserID: voter}))

	ids, err = votes.PollIDsVotedBy(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, []int64{dinner.ID}, ids)
}

func TestTallyRepository_ReconcileVotes(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	tally := NewTallyRepository(db)
	owner := createUser(t, db, "Ann")

	poll := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	require.NoError(t, polls.Create(ctx, poll))
	require.NoError(t, votes.SaveVote(ctx, &domain.Vote{PollID: poll.ID, OptionID: poll.Options[0].ID, UserID: owner}))

	_, err := db.Exec(`UPDATE poll_options SET votes = 7 WHERE poll_id = $1`, poll.ID)
	require.NoError(t, err)

	require.NoError(t, tally.ReconcileVotes(ctx, poll.ID))

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Options[0].Votes)
	assert.Equal(t, int64(0), got.Options[1].Votes)
}

func TestTallyRepository_ReconcileDuringVoting(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	polls := NewPollRepository(db)
	votes := NewVoteRepository(db)
	tally := NewTallyRepository(db)
	owner := createUser(t, db, "Ann")

	poll := newPoll(owner, "Lunch?", "Pizza", "Sushi")
	require.NoError(t, polls.Create(ctx, poll))

	voters := make([]uuid.UUID, 40)
	for i := range voters {
		voters[i] = createUser(t, db, fmt.Sprintf("voter%d", i))
	}

	var g errgroup.Group
	for i, voter := range voters {
		vote := &domain.Vote{PollID: poll.ID, OptionID: poll.Options[i%2].ID, UserID: voter}
		g.Go(func() error { return votes.SaveVote(ctx, vote) })
		if i%4 == 0 {
			g.Go(func() error { return tally.ReconcileVotes(ctx, poll.ID) })
		}
	}
	require.NoError(t, g.Wait())

	counted := make(map[int64]int64)
	rows, err := db.Query(`SELECT option_id, COUNT(*) FROM votes WHERE poll_id = $1 GROUP BY option_id`, poll.ID)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var option, n int64
		require.NoError(t, rows.Scan(&option, &n))
		counted[option] = n
	}
	require.NoError(t, rows.Err())

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	for _, opt := range got.Options {
		assert.Equal(t, counted[opt.ID], opt.Votes, "option %d", opt.ID)
	}
	assert.Equal(t, int64(20), got.Options[0].Votes)
}
