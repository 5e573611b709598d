package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversational memory in PostgreSQL.
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
		`CREATE TABLE IF NOT EXISTS conversation_memories (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			session_token TEXT NOT NULL,
			personality_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			topics TEXT[] NOT NULL DEFAULT '{}',
			sentiment DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			strength DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (strength >= 0 AND strength <= 1),
			pii_redacted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_memories_scope_created
			ON conversation_memories (session_token, personality_id, created_at DESC, seq DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	topics := e.Topics
	if topics == nil {
		topics = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_memories
		 (id, session_token, personality_id, user_message, ai_response, topics, sentiment, strength, pii_redacted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID,
		e.SessionToken,
		e.PersonalityID,
		e.UserMessage,
		e.AIResponse,
		topics,
		e.Sentiment,
		e.Strength,
		e.PIIRedacted,
		e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append memory: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Recent(ctx context.Context, sessionToken, personalityID string, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_token, personality_id, user_message, ai_response, topics, sentiment, strength, pii_redacted, created_at
		 FROM conversation_memories
		 WHERE session_token=$1 AND personality_id=$2
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $3`,
		sessionToken,
		personalityID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent memories: %w", err)
	}
	defer rows.Close()

	items := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionToken, &e.PersonalityID, &e.UserMessage, &e.AIResponse,
			&e.Topics, &e.Sentiment, &e.Strength, &e.PIIRedacted, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
