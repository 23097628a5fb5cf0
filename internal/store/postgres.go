package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"calldash/internal/calls"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE calls (
//	    call_id             TEXT PRIMARY KEY,
//	    legacy_call_id      TEXT,
//	    from_number         TEXT NOT NULL DEFAULT '',
//	    to_number           TEXT NOT NULL DEFAULT '',
//	    start_time          TIMESTAMPTZ,
//	    end_time            TIMESTAMPTZ,
//	    duration_seconds    INTEGER NOT NULL DEFAULT 0,
//	    direction           TEXT NOT NULL,
//	    status              TEXT NOT NULL,
//	    agent_id            TEXT NOT NULL DEFAULT '',
//	    agent_name          TEXT NOT NULL DEFAULT '',
//	    provider_status     TEXT NOT NULL DEFAULT '',
//	    transcript          TEXT NOT NULL DEFAULT '',
//	    provider_total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    recording_url       TEXT NOT NULL DEFAULT '',
//	    cost_per_minute     DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    created_at          BIGINT NOT NULL,
//	    updated_at          BIGINT NOT NULL
//	);
//	CREATE INDEX calls_legacy_id_idx ON calls (legacy_call_id);
//	CREATE INDEX calls_agent_id_idx ON calls (agent_id);
//
// migrations/001_init.sql carries the authoritative DDL.

const uniqueViolation = "23505"

// PostgresRepo implements Repository on database/sql with the pgx stdlib
// driver, the same way the user store does.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callColumns = `
call_id, legacy_call_id, from_number, to_number, start_time, end_time,
duration_seconds, direction, status, agent_id, agent_name, provider_status,
transcript, provider_total_cost, recording_url, cost_per_minute,
created_at, updated_at`

// anchorOrder sorts newest-first by the same anchor cascade the metrics
// engine buckets with.
const anchorOrder = `
ORDER BY COALESCE(start_time, end_time, to_timestamp(created_at / 1000.0)) DESC`

func (r *PostgresRepo) UpsertCall(ctx context.Context, c calls.Call) (bool, error) {
	existing, err := r.findByAnyID(ctx, c.ExternalID, c.LegacyID)
	switch {
	case err == nil:
		return false, r.updateCall(ctx, existing.ExternalID, c)
	case errors.Is(err, ErrNotFound):
		if insErr := r.insertCall(ctx, c); insErr != nil {
			// A concurrent sync may have inserted the row between the lookup
			// and the insert; resolve the race by updating.
			var pgErr *pgconn.PgError
			if errors.As(insErr, &pgErr) && pgErr.Code == uniqueViolation {
				return false, r.updateCall(ctx, c.ExternalID, c)
			}
			return false, insErr
		}
		return true, nil
	default:
		return false, err
	}
}

func (r *PostgresRepo) insertCall(ctx context.Context, c calls.Call) error {
	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ExternalID,
		nullString(c.LegacyID),
		c.FromNumber,
		c.ToNumber,
		nullTime(c.StartTime),
		nullTime(c.EndTime),
		c.DurationSeconds,
		string(c.Direction),
		string(c.Status),
		c.AgentID,
		c.AgentName,
		c.ProviderStatus,
		c.Transcript,
		c.ProviderTotalCost,
		c.RecordingURL,
		c.CostPerMinute,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// updateCall refreshes every provider-derived field but keeps the original
// creation stamp so first-seen time survives re-syncs.
func (r *PostgresRepo) updateCall(ctx context.Context, keyID string, c calls.Call) error {
	const q = `
UPDATE calls SET
    legacy_call_id = $2, from_number = $3, to_number = $4, start_time = $5,
    end_time = $6, duration_seconds = $7, direction = $8, status = $9,
    agent_id = $10, agent_name = $11, provider_status = $12, transcript = $13,
    provider_total_cost = $14, recording_url = $15, cost_per_minute = $16,
    updated_at = $17
WHERE call_id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		keyID,
		nullString(c.LegacyID),
		c.FromNumber,
		c.ToNumber,
		nullTime(c.StartTime),
		nullTime(c.EndTime),
		c.DurationSeconds,
		string(c.Direction),
		string(c.Status),
		c.AgentID,
		c.AgentName,
		c.ProviderStatus,
		c.Transcript,
		c.ProviderTotalCost,
		c.RecordingURL,
		c.CostPerMinute,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetCall(ctx context.Context, externalID string) (calls.Call, error) {
	return r.findByAnyID(ctx, externalID, externalID)
}

// findByAnyID matches on the provider id first, then on the legacy id.
func (r *PostgresRepo) findByAnyID(ctx context.Context, externalID, legacyID string) (calls.Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE call_id = $1 OR ($2 <> '' AND (call_id = $2 OR legacy_call_id = $2)) OR legacy_call_id = $1
LIMIT 1
`
	row := r.db.QueryRowContext(ctx, q, externalID, legacyID)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return calls.Call{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) ListCalls(ctx context.Context, opts ListOptions) ([]calls.Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE ($1 = '' OR agent_id = $1)` + anchorOrder + `
LIMIT CASE WHEN $2 > 0 THEN $2 ELSE NULL END OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, q, opts.AgentID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]calls.Call, 0, 64)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountCalls(ctx context.Context, agentID string) (int, error) {
	const q = `SELECT COUNT(*) FROM calls WHERE ($1 = '' OR agent_id = $1)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, agentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) DeleteAllCalls(ctx context.Context, agentID string) (int64, error) {
	const q = `DELETE FROM calls WHERE ($1 = '' OR agent_id = $1)`
	res, err := r.db.ExecContext(ctx, q, agentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (calls.Call, error) {
	var c calls.Call
	var legacy sql.NullString
	var start, end sql.NullTime
	if err := row.Scan(
		&c.ExternalID,
		&legacy,
		&c.FromNumber,
		&c.ToNumber,
		&start,
		&end,
		&c.DurationSeconds,
		&c.Direction,
		&c.Status,
		&c.AgentID,
		&c.AgentName,
		&c.ProviderStatus,
		&c.Transcript,
		&c.ProviderTotalCost,
		&c.RecordingURL,
		&c.CostPerMinute,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return calls.Call{}, err
	}
	c.LegacyID = legacy.String
	if start.Valid {
		t := start.Time
		c.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		c.EndTime = &t
	}
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
