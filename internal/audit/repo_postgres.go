package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo stores sync runs in the sync_runs table created by
// migrations/001_init.sql.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, run Run) error {
	const q = `
INSERT INTO sync_runs (id, agent_id, trigger, imported, updated, total, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		run.ID,
		run.AgentID,
		string(run.Trigger),
		run.Imported,
		run.Updated,
		run.Total,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	const q = `
SELECT id, agent_id, trigger, imported, updated, total, error, started_at, finished_at
FROM sync_runs
ORDER BY started_at DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.AgentID,
			&run.Trigger,
			&run.Imported,
			&run.Updated,
			&run.Total,
			&run.Error,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
