package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewBackendError("create poll", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (title, description, user_id, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, queryPoll, poll.Title, poll.Description, poll.OwnerID, poll.OwnerName).
		Scan(&poll.ID, &poll.CreatedAt)
	if err != nil {
		return domain.NewBackendError("create poll", fmt.Errorf("failed to insert poll: %w", err))
	}

	queryOption := `
		INSERT INTO poll_options (poll_id, text)
		VALUES ($1, $2)
		RETURNING id, votes
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return domain.NewBackendError("create poll", fmt.Errorf("failed to prepare option statement: %w", err))
	}
	defer stmt.Close()

	for i := range poll.Options {
		opt := &poll.Options[i]
		opt.PollID = poll.ID
		if err := stmt.QueryRowContext(ctx, poll.ID, opt.Text).Scan(&opt.ID, &opt.Votes); err != nil {
			return domain.NewBackendError("create poll", fmt.Errorf("failed to insert option: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewBackendError("create poll", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id int64) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	var row pollRow
	err := r.db.QueryRowContext(ctx, query, id).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewBackendError("get poll", err)
	}

	options, err := fetchOptions(ctx, r.db, []int64{row.ID})
	if err != nil {
		return nil, domain.NewBackendError("get poll", err)
	}

	return row.toDomain(options[row.ID]), nil
}

func (r *pollRepository) List(ctx context.Context, limit, offset int) ([]*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryPolls(ctx, "list polls", query, limit, offset)
}

func (r *pollRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryPolls(ctx, "list owned polls", query, ownerID)
}

func (r *pollRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Poll, error) {
	if len(ids) == 0 {
		return []*domain.Poll{}, nil
	}
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`
	return r.queryPolls(ctx, "list polls by id", query, pq.Array(ids))
}

func (r *pollRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM polls ORDER BY id`)
	if err != nil {
		return nil, domain.NewBackendError("list poll ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewBackendError("list poll ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewBackendError("list poll ids", err)
	}
	return ids, nil
}

func (r *pollRepository) Update(ctx context.Context, id int64, actor uuid.UUID, patch domain.PollPatch) (*domain.Poll, error) {
	query := `
		UPDATE polls
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + pollColumns

	var row pollRow
	err := r.db.QueryRowContext(ctx, query, id, actor, patch.Title, patch.Description).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missOrForbidden(ctx, "update poll", id)
		}
		return nil, domain.NewBackendError("update poll", err)
	}

	options, err := fetchOptions(ctx, r.db, []int64{row.ID})
	if err != nil {
		return nil, domain.NewBackendError("update poll", err)
	}
	return row.toDomain(options[row.ID]), nil
}

// Delete removes the poll; options and votes go with it through the
// ON DELETE CASCADE constraints.
func (r *pollRepository) Delete(ctx context.Context, id int64, actor uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1 AND user_id = $2`, id, actor)
	if err != nil {
		return domain.NewBackendError("delete poll", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.NewBackendError("delete poll", err)
	}
	if affected == 0 {
		return r.missOrForbidden(ctx, "delete poll", id)
	}
	return nil
}

// missOrForbidden tells apart an owner-filtered statement that matched
// nothing because the poll is gone from one that hit someone else's poll.
func (r *pollRepository) missOrForbidden(ctx context.Context, op string, id int64) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return domain.NewBackendError(op, err)
	}
	if !exists {
		return domain.ErrPollNotFound
	}
	return domain.NewBackendError(op, domain.ErrForbidden)
}

func (r *pollRepository) queryPolls(ctx context.Context, op, query string, args ...any) ([]*domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewBackendError(op, err)
	}
	defer rows.Close()

	pollRows, err := scanPollRows(rows)
	if err != nil {
		return nil, domain.NewBackendError(op, err)
	}

	polls, err := assemblePolls(ctx, r.db, pollRows)
	if err != nil {
		return nil, domain.NewBackendError(op, err)
	}
	return polls, nil
}
