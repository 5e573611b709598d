package httpapi

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	codeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	codeInvalidRequest      = "INVALID_REQUEST"
	codePersonalityNotFound = "PERSONALITY_NOT_FOUND"
	codeInternalError       = "INTERNAL_ERROR"
)

// timestampLayout is ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope wraps every chat response.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
	RequestID string    `json:"request_id"`
	Timestamp string    `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (s *Server) respondSuccess(w http.ResponseWriter, data any) string {
	env := s.envelope()
	env.Success = true
	env.Data = data
	respondJSON(w, http.StatusOK, env)
	return env.RequestID
}

func (s *Server) respondFailure(w http.ResponseWriter, status int, code, message string, details any) string {
	env := s.envelope()
	env.Error = &APIError{Code: code, Message: message, Details: details}
	respondJSON(w, status, env)
	return env.RequestID
}

func (s *Server) envelope() Envelope {
	return Envelope{
		RequestID: uuid.NewString(),
		Timestamp: s.now().Format(timestampLayout),
	}
}
