package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Domnoval/THE-37TH-MOVE/internal/storage"
)

// SQLiteStore persists conversational memory in a single-node SQLite file.
// Topics are stored as a JSON array and timestamps as unix nanoseconds; rowid
// breaks ties between equal timestamps.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := storage.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_memories (
			id TEXT PRIMARY KEY,
			session_token TEXT NOT NULL,
			personality_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			topics TEXT NOT NULL DEFAULT '[]',
			sentiment REAL NOT NULL DEFAULT 0.5,
			strength REAL NOT NULL DEFAULT 0,
			pii_redacted INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_memories_scope_created
			ON conversation_memories (session_token, personality_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) (Entry, error) {
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
	rawTopics, err := json.Marshal(topics)
	if err != nil {
		return Entry{}, fmt.Errorf("encode topics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversation_memories
		 (id, session_token, personality_id, user_message, ai_response, topics, sentiment, strength, pii_redacted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.SessionToken,
		e.PersonalityID,
		e.UserMessage,
		e.AIResponse,
		string(rawTopics),
		e.Sentiment,
		e.Strength,
		e.PIIRedacted,
		e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append memory: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, sessionToken, personalityID string, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_token, personality_id, user_message, ai_response, topics, sentiment, strength, pii_redacted, created_at
		 FROM conversation_memories
		 WHERE session_token=? AND personality_id=?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
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
		var (
			e         Entry
			rawTopics string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.SessionToken, &e.PersonalityID, &e.UserMessage, &e.AIResponse,
			&rawTopics, &e.Sentiment, &e.Strength, &e.PIIRedacted, &createdAt); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		if err := json.Unmarshal([]byte(rawTopics), &e.Topics); err != nil {
			return nil, fmt.Errorf("decode topics for %s: %w", e.ID, err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
