package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
)

// Backend rows never leave this package; everything above the adapter only
// sees domain types.

const pollColumns = `id, title, description, created_at, user_id, created_by`

type pollRow struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
	UserID      uuid.UUID
	CreatedBy   string
}

func (r *pollRow) scanTargets() []any {
	return []any{&r.ID, &r.Title, &r.Description, &r.CreatedAt, &r.UserID, &r.CreatedBy}
}

func (r pollRow) toDomain(options []domain.PollOption) *domain.Poll {
	if options == nil {
		options = []domain.PollOption{}
	}
	return &domain.Poll{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		OwnerID:     r.UserID,
		OwnerName:   r.CreatedBy,
		Options:     options,
	}
}

type optionRow struct {
	ID     int64
	PollID int64
	Text   string
	Votes  int64
}

func (r optionRow) toDomain() domain.PollOption {
	return domain.PollOption{
		ID:     r.ID,
		PollID: r.PollID,
		Text:   r.Text,
		Votes:  r.Votes,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanPollRows(rows *sql.Rows) ([]pollRow, error) {
	var out []pollRow
	for rows.Next() {
		var r pollRow
		if err := rows.Scan(r.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return out, nil
}

// fetchOptions loads the options of every given poll in one query, in
// submission order.
func fetchOptions(ctx context.Context, q queryer, pollIDs []int64) (map[int64][]domain.PollOption, error) {
	byPoll := make(map[int64][]domain.PollOption, len(pollIDs))
	if len(pollIDs) == 0 {
		return byPoll, nil
	}

	query := `
		SELECT id, poll_id, text, votes
		FROM poll_options
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, id
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(pollIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r optionRow
		if err := rows.Scan(&r.ID, &r.PollID, &r.Text, &r.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		byPoll[r.PollID] = append(byPoll[r.PollID], r.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return byPoll, nil
}

func assemblePolls(ctx context.Context, q queryer, rows []pollRow) ([]*domain.Poll, error) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	options, err := fetchOptions(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	polls := make([]*domain.Poll, 0, len(rows))
	for _, r := range rows {
		polls = append(polls, r.toDomain(options[r.ID]))
	}
	return polls, nil
}
