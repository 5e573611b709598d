// Package recorder persists completed turns and advances session counters.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Domnoval/THE-37TH-MOVE/internal/memory"
	"github.com/Domnoval/THE-37TH-MOVE/internal/session"
)

// Placeholder scores; no sentiment or engagement model exists yet.
const (
	DefaultSentiment = 0.5
	DefaultStrength  = 0.8
)

// DurabilityError reports which of the two turn writes failed. A turn is only
// fully durable when both succeed.
type DurabilityError struct {
	EntryErr   error
	SessionErr error
}

func (e *DurabilityError) Error() string {
	switch {
	case e.EntryErr != nil && e.SessionErr != nil:
		return fmt.Sprintf("record turn: entry: %v; session: %v", e.EntryErr, e.SessionErr)
	case e.EntryErr != nil:
		return fmt.Sprintf("record turn: entry: %v", e.EntryErr)
	default:
		return fmt.Sprintf("record turn: session: %v", e.SessionErr)
	}
}

func (e *DurabilityError) Unwrap() []error {
	errs := make([]error, 0, 2)
	for _, err := range []error{e.EntryErr, e.SessionErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Options tunes a Recorder.
type Options struct {
	RedactPII bool
}

type Recorder struct {
	sessions session.Store
	memories memory.Store
	redact   bool
	now      func() time.Time
	logger   *zap.Logger
}

func New(sessions session.Store, memories memory.Store, logger *zap.Logger, opts Options) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sessions: sessions,
		memories: memories,
		redact:   opts.RedactPII,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Record appends the turn and touches the session. The two writes are
// independent and issued concurrently; a failure of either yields a
// *DurabilityError alongside whatever was stored. created marks the turn
// that opened sess: its turn is already counted, so only last_active moves.
func (r *Recorder) Record(ctx context.Context, sess session.Session, created bool, personalityID, userMessage, aiResponse string) (memory.Entry, error) {
	now := r.now()
	entry := memory.Entry{
		SessionToken:  sess.Token,
		PersonalityID: personalityID,
		UserMessage:   userMessage,
		AIResponse:    aiResponse,
		Topics:        ExtractTopics(userMessage),
		Sentiment:     DefaultSentiment,
		Strength:      DefaultStrength,
		CreatedAt:     now,
	}
	if r.redact {
		var userChanged, aiChanged bool
		entry.UserMessage, userChanged = RedactPII(entry.UserMessage)
		entry.AIResponse, aiChanged = RedactPII(entry.AIResponse)
		entry.PIIRedacted = userChanged || aiChanged
	}

	var (
		g          errgroup.Group
		stored     memory.Entry
		entryErr   error
		sessionErr error
	)
	g.Go(func() error {
		stored, entryErr = r.memories.Append(ctx, entry)
		return entryErr
	})
	g.Go(func() error {
		sessionErr = r.sessions.Touch(ctx, sess.Token, now, !created)
		return sessionErr
	})
	if err := g.Wait(); err != nil {
		derr := &DurabilityError{EntryErr: entryErr, SessionErr: sessionErr}
		r.logger.Warn("turn not fully durable",
			zap.String("session_token", sess.Token),
			zap.String("personality_id", personalityID),
			zap.Bool("entry_written", entryErr == nil),
			zap.Bool("session_touched", sessionErr == nil),
			zap.Error(derr),
		)
		if entryErr != nil {
			return memory.Entry{}, derr
		}
		return stored, derr
	}

	r.logger.Debug("turn recorded",
		zap.String("session_token", sess.Token),
		zap.String("personality_id", personalityID),
		zap.String("entry_id", stored.ID),
		zap.Strings("topics", stored.Topics),
	)
	return stored, nil
}

// IsEntryLost reports whether err means the memory entry itself was not written.
func IsEntryLost(err error) bool {
	var derr *DurabilityError
	return errors.As(err, &derr) && derr.EntryErr != nil
}
