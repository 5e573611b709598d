package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			token TEXT PRIMARY KEY,
			first_seen TIMESTAMPTZ NOT NULL,
			last_active TIMESTAMPTZ NOT NULL,
			turn_count INTEGER NOT NULL DEFAULT 0 CHECK (turn_count >= 0)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init session schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, token string) (Session, error) {
	var out Session
	err := s.pool.QueryRow(ctx,
		`SELECT token, first_seen, last_active, turn_count FROM chat_sessions WHERE token=$1`,
		token,
	).Scan(&out.Token, &out.FirstSeen, &out.LastActive, &out.TurnCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return out, nil
}

// GetOrCreate is a single upsert round trip. The no-op update on conflict
// makes RETURNING yield the existing row; xmax = 0 only for fresh inserts.
func (s *PostgresStore) GetOrCreate(ctx context.Context, candidate Session) (Session, bool, error) {
	var (
		out     Session
		created bool
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (token, first_seen, last_active, turn_count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO UPDATE SET token = EXCLUDED.token
		 RETURNING token, first_seen, last_active, turn_count, (xmax = 0)`,
		candidate.Token,
		candidate.FirstSeen,
		candidate.LastActive,
		candidate.TurnCount,
	).Scan(&out.Token, &out.FirstSeen, &out.LastActive, &out.TurnCount, &created)
	if err != nil {
		return Session{}, false, fmt.Errorf("get or create session: %w", err)
	}
	return out, created, nil
}

func (s *PostgresStore) Touch(ctx context.Context, token string, at time.Time, countTurn bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chat_sessions
		 SET turn_count = turn_count + $3, last_active = GREATEST(last_active, $2)
		 WHERE token=$1`,
		token,
		at,
		turnDelta(countTurn),
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
