package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Domnoval/THE-37TH-MOVE/internal/storage"
)

// SQLiteStore persists sessions in a single-node SQLite file. Timestamps are
// stored as unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := storage.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS chat_sessions (
		token TEXT PRIMARY KEY,
		first_seen INTEGER NOT NULL,
		last_active INTEGER NOT NULL,
		turn_count INTEGER NOT NULL DEFAULT 0 CHECK (turn_count >= 0)
	);`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, token string) (Session, error) {
	return scanSQLiteSession(s.db.QueryRowContext(ctx,
		`SELECT token, first_seen, last_active, turn_count FROM chat_sessions WHERE token=?`,
		token,
	))
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, candidate Session) (Session, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (token, first_seen, last_active, turn_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (token) DO NOTHING`,
		candidate.Token,
		candidate.FirstSeen.UnixNano(),
		candidate.LastActive.UnixNano(),
		candidate.TurnCount,
	)
	if err != nil {
		return Session{}, false, fmt.Errorf("get or create session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Session{}, false, fmt.Errorf("get or create session: %w", err)
	}
	if n == 1 {
		return candidate, true, nil
	}
	stored, err := s.Get(ctx, candidate.Token)
	if err != nil {
		return Session{}, false, err
	}
	return stored, false, nil
}

func (s *SQLiteStore) Touch(ctx context.Context, token string, at time.Time, countTurn bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions
		 SET turn_count = turn_count + ?, last_active = MAX(last_active, ?)
		 WHERE token=?`,
		turnDelta(countTurn),
		at.UnixNano(),
		token,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanSQLiteSession(row *sql.Row) (Session, error) {
	var (
		out                   Session
		firstSeen, lastActive int64
	)
	err := row.Scan(&out.Token, &firstSeen, &lastActive, &out.TurnCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	out.FirstSeen = time.Unix(0, firstSeen).UTC()
	out.LastActive = time.Unix(0, lastActive).UTC()
	return out, nil
}
