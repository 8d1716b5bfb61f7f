package storage

import (
	"context"
	"sync"
	"time"

	"github.com/agroscan/agroscan-bot/internal/domain/port"
)

type sessionEntry[S any] struct {
	session  S
	lastUsed time.Time
}

// MemorySessionRepository is an in-memory per-chat session store.
// Nothing survives a restart.
type MemorySessionRepository[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]*sessionEntry[S]
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty store.
func NewMemorySessionRepository[S any]() *MemorySessionRepository[S] {
	return &MemorySessionRepository[S]{
		sessions: make(map[int64]*sessionEntry[S]),
		now:      time.Now,
	}
}

// GetOrCreate returns the chat's session, creating it if not found.
func (r *MemorySessionRepository[S]) GetOrCreate(ctx context.Context, chatID int64, create func() S) (S, error) {
	if err := ctx.Err(); err != nil {
		var zero S
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.sessions[chatID]
	if !exists {
		entry = &sessionEntry[S]{session: create()}
		r.sessions[chatID] = entry
	}
	entry.lastUsed = r.now()
	return entry.session, nil
}

// Delete removes the chat's session.
func (r *MemorySessionRepository[S]) Delete(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, chatID)
	return nil
}

// EvictIdle removes sessions not used within idleFor.
func (r *MemorySessionRepository[S]) EvictIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idleFor)
	evicted := 0
	for chatID, entry := range r.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(r.sessions, chatID)
			evicted++
		}
	}
	return evicted, nil
}

// Count returns the number of stored sessions.
func (r *MemorySessionRepository[S]) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

var _ port.SessionRepository[struct{}] = (*MemorySessionRepository[struct{}])(nil)
