package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Domnoval/THE-37TH-MOVE/internal/chat"
	"github.com/Domnoval/THE-37TH-MOVE/internal/config"
	"github.com/Domnoval/THE-37TH-MOVE/internal/observability"
)

const maxBodyBytes = 1 << 20

// ChatService runs one chat turn.
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (chat.Reply, error)
}

type Server struct {
	cfg     config.Config
	chat    ChatService
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func New(cfg config.Config, chatService ChatService, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.AllowedOrigin) == "" {
		cfg.AllowedOrigin = "*"
	}
	return &Server{
		cfg:     cfg,
		chat:    chatService,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			http.NotFound(w, r)
			return
		}
		s.metrics.Handler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/v1/chat", s.handleChat)
	r.Options("/v1/chat", s.handlePreflight)

	return r
}

// cors adds permissive access-control headers to every response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":              "ready",
		"generation_provider": s.cfg.ResolvedGenerationProvider(),
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.countOutcome("method_not_allowed")
	s.respondFailure(w, http.StatusMethodNotAllowed, codeMethodNotAllowed,
		"method "+r.Method+" is not allowed", nil)
}

type chatRequest struct {
	Message           string `json:"message"`
	PersonalityID     string `json:"personality_id"`
	SessionToken      string `json:"session_token,omitempty"`
	ConversationID    string `json:"conversation_id,omitempty"`
	RememberContext   *bool  `json:"remember_context,omitempty"`
	ConversationStyle string `json:"conversation_style,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r, &req); err != nil {
		s.countOutcome("invalid_request")
		s.respondFailure(w, http.StatusBadRequest, codeInvalidRequest, "request body must be a JSON object", err.Error())
		return
	}

	if s.chat == nil {
		s.countOutcome("internal_error")
		s.respondFailure(w, http.StatusInternalServerError, codeInternalError, "chat service not configured", nil)
		return
	}

	reply, err := s.chat.Handle(r.Context(), chat.Request{
		Message:           req.Message,
		PersonalityID:     req.PersonalityID,
		SessionToken:      req.SessionToken,
		ConversationID:    req.ConversationID,
		RememberContext:   req.RememberContext,
		ConversationStyle: req.ConversationStyle,
	})
	if err != nil {
		s.respondChatError(w, err, req)
		return
	}

	s.countOutcome("ok")
	s.respondSuccess(w, reply)
}

func (s *Server) respondChatError(w http.ResponseWriter, err error, req chatRequest) {
	var (
		verr *chat.ValidationError
		nf   *chat.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		s.countOutcome("invalid_request")
		s.respondFailure(w, http.StatusBadRequest, codeInvalidRequest, verr.Field+" "+verr.Message, nil)
	case errors.As(err, &nf):
		s.countOutcome("personality_not_found")
		s.respondFailure(w, http.StatusNotFound, codePersonalityNotFound, "personality not found", map[string]string{"personality_id": nf.ID})
	default:
		s.countOutcome("internal_error")
		requestID := s.respondFailure(w, http.StatusInternalServerError, codeInternalError, "internal server error", nil)
		s.logger.Error("chat request failed",
			zap.String("request_id", requestID),
			zap.String("personality_id", req.PersonalityID),
			zap.String("session_token", req.SessionToken),
			zap.Error(err),
		)
	}
}

func (s *Server) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	}
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
