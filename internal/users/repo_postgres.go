package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, username, password_hash, role, agent_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Username, u.PasswordHash, u.Role, u.AgentID, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, u User) error {
	const q = `
UPDATE users
SET password_hash = $2, role = $3, agent_id = $4
WHERE lower(username) = lower($1)
`
	res, err := r.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Role, u.AgentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const q = `
SELECT id, username, password_hash, role, agent_id, created_at
FROM users
WHERE lower(username) = lower($1)
`
	var u User
	err := r.db.QueryRowContext(ctx, q, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.AgentID,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]User, error) {
	const q = `
SELECT id, username, password_hash, role, agent_id, created_at
FROM users
ORDER BY username
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AgentID, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
