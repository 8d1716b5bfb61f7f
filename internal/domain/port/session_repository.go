package port

import (
	"context"
	"time"
)

// SessionRepository keeps one session per chat.
type SessionRepository[S any] interface {
	// GetOrCreate returns the chat's session, calling create if there is none.
	// Every call marks the session as used.
	GetOrCreate(ctx context.Context, chatID int64, create func() S) (S, error)

	// Delete drops the chat's session. Deleting a missing session is not an error.
	Delete(ctx context.Context, chatID int64) error

	// EvictIdle drops sessions unused for longer than idleFor and reports how many went.
	EvictIdle(ctx context.Context, idleFor time.Duration) (int, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)
}
