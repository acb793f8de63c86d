package session

import (
	"sync/atomic"
	"time"

	"github.com/mikoto-studio/vstage/internal/model/profile"
)

// Session captures the server-side state of one connected client. The profile
// is an immutable snapshot taken when the connection was accepted; global
// profile changes never reach a live session unless it reloads explicitly.
type Session struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Profile   profile.Profile `json:"profile"`

	closed atomic.Bool
}

// New builds a session with the given identifier and profile snapshot.
func New(id string, snapshot profile.Profile) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Profile:   snapshot,
	}
}

// Close marks the session as torn down. It returns true only for the first
// caller, so racing disconnect paths release resources exactly once.
func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Reload replaces the profile snapshot. Only the owning dispatch goroutine
// may call this.
func (s *Session) Reload(snapshot profile.Profile) {
	s.Profile = snapshot
}
