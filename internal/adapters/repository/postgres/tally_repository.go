package postgres

import (
	"context"
	"database/sql"

	"github.com/vncsmyrnk/pollstr/internal/core/domain"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

type tallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) ports.TallyRepository {
	return &tallyRepository{db: db}
}

// ReconcileVotes locks the poll's option rows before counting. The count runs
// in a later statement so its snapshot sees every vote committed before the
// locks were granted; votes that arrive afterwards block in the trigger and
// increment the reconciled value.
func (r *tallyRepository) ReconcileVotes(ctx context.Context, pollID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewBackendError("begin reconcile", err)
	}
	defer tx.Rollback()

	lock := `SELECT id FROM poll_options WHERE poll_id = $1 ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, lock, pollID)
	if err != nil {
		return domain.NewBackendError("lock poll options", err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.NewBackendError("lock poll options", err)
	}

	update := `
		UPDATE poll_options o
		SET votes = (SELECT COUNT(*) FROM votes v WHERE v.option_id = o.id)
		WHERE o.poll_id = $1
	`
	if _, err := tx.ExecContext(ctx, update, pollID); err != nil {
		return domain.NewBackendError("reconcile votes", err)
	}

	return domain.NewBackendError("commit reconcile", tx.Commit())
}
