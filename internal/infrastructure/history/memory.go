package history

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/runova/backend/internal/domain"
)

const (
	defaultMaxSessions  = 1024
	defaultMaxExchanges = 8
)

// MemoryStore keeps per-session conversation history in an LRU cache:
// bounded in the number of live sessions and in exchanges per session, so
// an abandoned session ages out instead of leaking.
type MemoryStore struct {
	sessions     *lru.Cache[string, []domain.Exchange]
	maxExchanges int
}

// NewMemoryStore creates a store. Non-positive limits fall back to the
// defaults.
func NewMemoryStore(maxSessions, maxExchanges int) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if maxExchanges <= 0 {
		maxExchanges = defaultMaxExchanges
	}
	cache, _ := lru.New[string, []domain.Exchange](maxSessions)
	return &MemoryStore{
		sessions:     cache,
		maxExchanges: maxExchanges,
	}
}

// Append records one exchange, trimming the session to the newest
// maxExchanges entries.
func (s *MemoryStore) Append(sessionID string, exchange domain.Exchange) {
	if sessionID == "" {
		return
	}
	existing, _ := s.sessions.Get(sessionID)
	updated := append(append([]domain.Exchange(nil), existing...), exchange)
	if len(updated) > s.maxExchanges {
		updated = updated[len(updated)-s.maxExchanges:]
	}
	s.sessions.Add(sessionID, updated)
}

// Get returns the session's exchanges, oldest first. The returned slice
// is a copy and safe to retain.
func (s *MemoryStore) Get(sessionID string) []domain.Exchange {
	existing, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	return append([]domain.Exchange(nil), existing...)
}

// Clear forgets a session.
func (s *MemoryStore) Clear(sessionID string) {
	s.sessions.Remove(sessionID)
}
