package protocol

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger of the session.
// The fields protocol, party and round are added to every entry.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// NewSessionID returns a fresh random identifier for a protocol execution.
// Envelopes are bound to it, so that they are never accepted by another execution.
func NewSessionID() []byte {
	id := uuid.New()
	return id[:]
}
