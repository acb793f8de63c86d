package session

import (
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"

	sessionmodel "github.com/mikoto-studio/vstage/internal/model/session"
)

// ErrRegistryFull is returned when the registry refuses new sessions.
var ErrRegistryFull = errors.New("session registry full")

const shardCount = 16

// DefaultMaxSessions bounds concurrent sessions per process.
const DefaultMaxSessions = 1024

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*sessionmodel.Session
}

// Registry is the process-wide session table. It is sharded by session ID so
// operations on one session never contend with operations on another beyond
// the shard they happen to share.
type Registry struct {
	shards [shardCount]shard
	max    int
	count  atomic.Int64
}

// NewRegistry creates a registry capped at max sessions; max <= 0 applies
// DefaultMaxSessions.
func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	r := &Registry{max: max}
	for i := range r.shards {
		r.shards[i].sessions = make(map[string]*sessionmodel.Session)
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &r.shards[h.Sum32()%shardCount]
}

// Add registers a session. It fails only when the registry is exhausted.
func (r *Registry) Add(s *sessionmodel.Session) error {
	if r.count.Add(1) > int64(r.max) {
		r.count.Add(-1)
		return ErrRegistryFull
	}

	sh := r.shardFor(s.ID)
	sh.mu.Lock()
	sh.sessions[s.ID] = s
	sh.mu.Unlock()
	return nil
}

// Get looks up a session by identifier.
func (r *Registry) Get(id string) (*sessionmodel.Session, bool) {
	sh := r.shardFor(id)
	sh.mu.RLock()
	s, ok := sh.sessions[id]
	sh.mu.RUnlock()
	return s, ok
}

// Remove deletes a session. It is idempotent and reports whether the session
// was present.
func (r *Registry) Remove(id string) bool {
	sh := r.shardFor(id)
	sh.mu.Lock()
	_, ok := sh.sessions[id]
	if ok {
		delete(sh.sessions, id)
	}
	sh.mu.Unlock()

	if ok {
		r.count.Add(-1)
	}
	return ok
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	return int(r.count.Load())
}
