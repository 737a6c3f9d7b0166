package session

import (
	"time"
)

// HistoryLimit bounds the rolling per-user query history.
const HistoryLimit = 3

// Store interface for per-user session management
type Store interface {
	EnsureSession(id string, ttl time.Duration) (Session, error)
	GetSession(id string) (Session, error)
}

// Session holds one user's rolling query history.
type Session interface {
	ID() string
	Expire(ttl time.Duration)
	AddQuery(query string) error
	RecentQueries() []string
}
