package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one client connection. Created once when the
// connection opens and passed explicitly through the auditor and chain
// engine; there is no shared mutable session state.
type Session struct {
	ID            string
	ClientName    string
	ClientVersion string
	StartedAt     time.Time
}

// NewSession creates a Session with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
}
