// Package chat turns one inbound message into a personality-conditioned,
// memory-augmented reply and records the turn.
//
// Concurrent requests on one session are not coordinated: both may read the
// same memory window and both append, with no ordering between them.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Domnoval/THE-37TH-MOVE/internal/generation"
	"github.com/Domnoval/THE-37TH-MOVE/internal/memory"
	"github.com/Domnoval/THE-37TH-MOVE/internal/observability"
	"github.com/Domnoval/THE-37TH-MOVE/internal/persona"
	"github.com/Domnoval/THE-37TH-MOVE/internal/prompt"
	"github.com/Domnoval/THE-37TH-MOVE/internal/recorder"
	"github.com/Domnoval/THE-37TH-MOVE/internal/session"
)

// Defaults applied by NewService when Options leaves a field zero.
const (
	DefaultMaxMessageLength  = 5000
	DefaultGenerationTimeout = 30 * time.Second
)

// Request is one inbound chat message. ConversationID, RememberContext, and
// ConversationStyle are accepted but not used yet.
type Request struct {
	Message           string
	PersonalityID     string
	SessionToken      string
	ConversationID    string
	RememberContext   *bool
	ConversationStyle string
}

// PersonalityRef names the personality that produced a reply.
type PersonalityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Reply is the outcome of one successful turn.
type Reply struct {
	Message      string         `json:"message"`
	SessionToken string         `json:"session_token"`
	Personality  PersonalityRef `json:"personality"`
}

// Options tunes a Service. Provider only labels metrics.
type Options struct {
	WindowLimit       int
	MaxMessageLength  int
	GenerationTimeout time.Duration
	Provider          string
}

// Service runs chat turns. It is safe for concurrent use.
type Service struct {
	resolver  *session.Resolver
	catalog   persona.Catalog
	memories  memory.Store
	generator generation.Client
	recorder  *recorder.Recorder
	metrics   *observability.Metrics
	logger    *zap.Logger
	opts      Options
}

// NewService wires a Service; a nil logger is replaced with a no-op one.
func NewService(
	resolver *session.Resolver,
	catalog persona.Catalog,
	memories memory.Store,
	generator generation.Client,
	rec *recorder.Recorder,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *Service {
	if opts.WindowLimit <= 0 {
		opts.WindowLimit = memory.DefaultWindow
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultMaxMessageLength
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if strings.TrimSpace(opts.Provider) == "" {
		opts.Provider = "unknown"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver:  resolver,
		catalog:   catalog,
		memories:  memories,
		generator: generator,
		recorder:  rec,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// Handle runs one turn. It returns *ValidationError or *NotFoundError for
// caller problems; every other error is internal. A failure to record the
// turn after a successful generation is logged and the reply is still
// returned.
func (s *Service) Handle(ctx context.Context, req Request) (Reply, error) {
	started := time.Now()

	message, personalityID, err := s.validate(req)
	if err != nil {
		return Reply{}, err
	}
	log := s.logger.With(zap.String("personality_id", personalityID))

	stageStart := time.Now()
	profile, err := s.catalog.Get(ctx, personalityID)
	s.observe(observability.StageLookupProfile, stageStart, err)
	if errors.Is(err, persona.ErrNotFound) {
		return Reply{}, &NotFoundError{Resource: "personality", ID: personalityID}
	}
	if err != nil {
		return Reply{}, fmt.Errorf("lookup personality: %w", err)
	}

	stageStart = time.Now()
	sess, created, err := s.resolver.Resolve(ctx, req.SessionToken)
	s.observe(observability.StageResolveSession, stageStart, err)
	if err != nil {
		return Reply{}, err
	}
	if s.metrics != nil {
		event := "reused"
		if created {
			event = "created"
		}
		s.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
	log = log.With(zap.String("session_token", sess.Token))

	stageStart = time.Now()
	window, err := s.memories.Recent(ctx, sess.Token, personalityID, s.opts.WindowLimit)
	s.observe(observability.StageLoadMemory, stageStart, err)
	if err != nil {
		return Reply{}, fmt.Errorf("load memory window: %w", err)
	}

	composed := prompt.Compose(profile, window, message)

	stageStart = time.Now()
	text, err := s.generate(ctx, composed)
	s.observe(observability.StageGenerate, stageStart, err)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ProviderErrors.WithLabelValues(s.opts.Provider, generation.Classify(err)).Inc()
		}
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}

	// The reply is already committed from here on; persistence failures only
	// cost this turn's memory.
	stageStart = time.Now()
	_, err = s.recorder.Record(ctx, sess, created, personalityID, message, text)
	s.observe(observability.StageRecordTurn, stageStart, err)
	if err != nil {
		s.countWriteFailures(err)
		log.Warn("reply returned without durable memory", zap.Error(err))
	}
	s.observe(observability.StageTotal, started, nil)

	log.Debug("turn complete",
		zap.Int("window", len(window)),
		zap.Bool("session_created", created),
	)
	return Reply{
		Message:      text,
		SessionToken: sess.Token,
		Personality: PersonalityRef{
			ID:   personalityID,
			Name: prompt.DisplayName(profile),
		},
	}, nil
}

func (s *Service) validate(req Request) (string, string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", "", &ValidationError{Field: "message", Message: "is required"}
	}
	personalityID := strings.TrimSpace(req.PersonalityID)
	if personalityID == "" {
		return "", "", &ValidationError{Field: "personality_id", Message: "is required"}
	}
	return truncateRunes(message, s.opts.MaxMessageLength), personalityID, nil
}

func (s *Service) generate(ctx context.Context, composed string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	text, err := s.generator.Generate(genCtx, composed)
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, generation.ErrUnavailable) {
			return "", &generation.ProviderError{Provider: s.opts.Provider, Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", generation.ErrEmptyCandidate
	}
	return text, nil
}

func (s *Service) countWriteFailures(err error) {
	if s.metrics == nil {
		return
	}
	var derr *recorder.DurabilityError
	if !errors.As(err, &derr) {
		s.metrics.MemoryWriteFailures.WithLabelValues("entry").Inc()
		return
	}
	if derr.EntryErr != nil {
		s.metrics.MemoryWriteFailures.WithLabelValues("entry").Inc()
	}
	if derr.SessionErr != nil {
		s.metrics.MemoryWriteFailures.WithLabelValues("session").Inc()
	}
}

func (s *Service) observe(stage string, since time.Time, err error) {
	s.metrics.ObserveStage(stage, time.Since(since), err)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
