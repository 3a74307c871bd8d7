package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/it-helpdesk/internal/repository"
)

// SessionRegistry implements repository.SessionRegistry in process memory.
type SessionRegistry struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]repository.RawSession
}

var _ repository.SessionRegistry = (*SessionRegistry)(nil)

// NewSessionRegistry builds an empty registry. A nil clock uses time.Now.
func NewSessionRegistry(now func() time.Time) *SessionRegistry {
	if now == nil {
		now = time.Now
	}
	return &SessionRegistry{now: now, sessions: make(map[string]repository.RawSession)}
}

func (r *SessionRegistry) Put(_ context.Context, session repository.RawSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload := append([]byte(nil), session.Payload...)
	session.Payload = payload
	r.sessions[session.Key] = session
	return nil
}

func (r *SessionRegistry) Get(_ context.Context, key string) (*repository.RawSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[key]
	if !ok || !session.ExpiresAt.After(r.now()) {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRegistry) ListActive(_ context.Context) ([]repository.RawSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var result []repository.RawSession
	for _, session := range r.sessions {
		if session.ExpiresAt.After(now) {
			result = append(result, session)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Key < result[b].Key })
	return result, nil
}

func (r *SessionRegistry) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, key)
	return nil
}

func (r *SessionRegistry) PurgeExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	purged := 0
	for key, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, key)
			purged++
		}
	}
	return purged, nil
}
