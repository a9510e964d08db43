package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// SaveVote inserts the vote row. The option tally is bumped by the
// votes_increment_option trigger in the same statement, so a rejected insert
// leaves every count untouched.
func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (poll_id, option_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, vote.PollID, vote.OptionID, vote.UserID).Scan(&vote.ID, &vote.CreatedAt)
	if err == nil {
		return nil
	}

	if constraint, ok := constraintViolation(err, uniqueViolation); ok && constraint == "votes_one_per_user" {
		return domain.ErrDuplicateVote
	}
	if constraint, ok := constraintViolation(err, foreignKeyViolation); ok && constraint == "votes_option_in_poll" {
		return domain.NewBackendError("save vote", fmt.Errorf("%w: %v", domain.ErrInvalidOption, err))
	}
	return domain.NewBackendError("save vote", err)
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE poll_id = $1 AND user_id = $2`

	var one int
	err := r.db.QueryRowContext(ctx, query, pollID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, domain.NewBackendError("check vote", err)
	}
	return true, nil
}

func (r *voteRepository) PollIDsVotedBy(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT poll_id FROM votes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, domain.NewBackendError("list voted polls", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewBackendError("list voted polls", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewBackendError("list voted polls", err)
	}
	return ids, nil
}
