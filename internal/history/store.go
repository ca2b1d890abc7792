package history

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxSessions bounds how many live sessions are kept in memory.
const DefaultMaxSessions = 10000

// Store maps session ids to their history. Entries expire after the
// configured TTL without a read or write, which ends the session.
type Store struct {
	// mu keeps a Load refresh from overwriting a concurrent Save.
	mu       sync.Mutex
	sessions *expirable.LRU[string, History]
}

// NewStore creates a store holding at most maxSessions histories, each
// expiring ttl after it was last loaded or saved.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		sessions: expirable.NewLRU[string, History](maxSessions, nil, ttl),
	}
}

// Load returns the history of a session and refreshes its expiry, so the
// history lives as long as the sliding session cookie. Unknown or expired
// sessions yield an empty history.
func (s *Store) Load(sessionID string) History {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.sessions.Get(sessionID)
	if ok {
		// Get does not touch the expiry; re-adding does.
		s.sessions.Add(sessionID, h)
	}
	return h
}

// Save replaces the history of a session and refreshes its expiry.
func (s *Store) Save(sessionID string, h History) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions.Add(sessionID, h)
}

// Clear forgets a session.
func (s *Store) Clear(sessionID string) {
	s.sessions.Remove(sessionID)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
