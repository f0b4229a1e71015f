// Package corpus provides the member-message corpus: the upstream API client,
// the TTL-bounded snapshot cache, and the durable backup snapshot file.
package corpus

import (
	"context"
	"time"
)

// Message is a single member message fetched from the upstream API.
// Messages are immutable once fetched; indexes reference them by ID.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"message"`
}

// Snapshot is an immutable, ordered view of the corpus at one fetch epoch.
// Snapshots are replaced wholesale on refresh, never mutated in place.
type Snapshot struct {
	Messages  []Message
	FetchedAt time.Time
}

// Len returns the number of messages in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Messages)
}

// Age returns how long ago the snapshot was fetched.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Source fetches messages from the upstream member-messages API.
type Source interface {
	// FetchAll retrieves the full message set. The returned total is the
	// upstream's reported corpus size, which may exceed len(messages) if the
	// fetch limit was too small.
	FetchAll(ctx context.Context) (total int, messages []Message, err error)
}
