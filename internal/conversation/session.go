package conversation

import (
	"context"
	"sync"
	"time"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Responder produces the assistant's reply for a user message. The
// classification pipeline implements this; the session only records turns.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, text string) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Session maintains the ordered transcript for one logical conversation.
// Safe for concurrent use.
type Session struct {
	responder Responder
	now       func() time.Time

	mu           sync.Mutex
	turns        []Turn
	lastResponse string
	hasResponse  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionClock injects the time source used for turn timestamps.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session around the given responder.
func NewSession(responder Responder, opts ...SessionOption) *Session {
	s := &Session{
		responder: responder,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage appends a user turn, invokes the responder, appends the
// resulting assistant turn and returns the response. A responder error
// leaves the user turn in the transcript but records no assistant turn.
func (s *Session) SendMessage(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.turns = append(s.turns, Turn{Role: RoleUser, Text: text, Timestamp: s.now()})
	s.mu.Unlock()

	response, err := s.responder.Respond(ctx, text)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Text: response, Timestamp: s.now()})
	s.lastResponse = response
	s.hasResponse = true
	return response, nil
}

// History returns a copy of the transcript in chronological order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastResponse returns the most recent assistant reply, and whether one
// exists.
func (s *Session) LastResponse() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResponse, s.hasResponse
}

// Reset clears the transcript and the last-response pointer atomically.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.lastResponse = ""
	s.hasResponse = false
}
