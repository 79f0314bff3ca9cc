package session

import (
	"sync"
	"time"
)

// DefaultMaxTurns is the turn limit used when NewStore is given a value < 1.
const DefaultMaxTurns = 20

// Store holds conversation histories keyed by conversation id.
//
// The map lock only covers lookup, insertion and deletion. All reads and
// writes of a conversation's turns happen under that conversation's lock.
type Store struct {
	maxTurns int
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*conversation
}

type conversation struct {
	mu          sync.Mutex
	turns       []Turn
	lastTouched time.Time

	// removed is set once the conversation has been deleted from the map.
	// Writers holding a stale pointer re-resolve the id.
	removed bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock replaces time.Now. Intended for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store that keeps at most maxTurns turns per
// conversation.
func NewStore(maxTurns int, opts ...StoreOption) *Store {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	s := &Store{
		maxTurns: maxTurns,
		now:      time.Now,
		sessions: make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxTurns returns the per-conversation turn limit.
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

// History returns a copy of the turns of conversation id. Unknown ids yield an
// empty, non-nil slice.
func (s *Store) History(id string) []Turn {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return []Turn{}
	}
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Append adds turn to conversation id, creating the conversation if needed.
// The history afterwards ends with turn and holds at most MaxTurns turns.
func (s *Store) Append(id string, turn Turn) {
	s.update(id, func(c *conversation) {
		c.turns = append(c.turns, turn)
		c.turns = truncate(c.turns, s.maxTurns)
	})
}

// Seed appends turn only if conversation id has no turns yet. It reports
// whether the turn was added.
func (s *Store) Seed(id string, turn Turn) bool {
	added := false
	s.update(id, func(c *conversation) {
		if len(c.turns) > 0 {
			return
		}
		c.turns = append(c.turns, turn)
		added = true
	})
	return added
}

// update runs fn under the lock of conversation id and touches it.
func (s *Store) update(id string, fn func(c *conversation)) {
	for {
		c := s.getOrCreate(id)

		c.mu.Lock()
		if c.removed {
			c.mu.Unlock()
			continue
		}
		fn(c)
		c.lastTouched = s.now()
		c.mu.Unlock()
		return
	}
}

func (s *Store) getOrCreate(id string) *conversation {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.sessions[id]; ok {
		return c
	}
	c = &conversation{lastTouched: s.now()}
	s.sessions[id] = c
	return c
}

// Clear removes conversation id. Clearing an unknown id is a no-op.
func (s *Store) Clear(id string) {
	s.remove(id, func(*conversation) bool { return true })
}

// Expire removes conversation id if it has not been touched since cutoff.
// The check happens under the conversation lock, so a conversation appended to
// after the caller's snapshot is kept.
func (s *Store) Expire(id string, cutoff time.Time) bool {
	return s.remove(id, func(c *conversation) bool {
		return c.lastTouched.Before(cutoff)
	})
}

func (s *Store) remove(id string, shouldRemove func(c *conversation) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[id]
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !shouldRemove(c) {
		return false
	}
	c.removed = true
	c.turns = nil
	delete(s.sessions, id)
	return true
}

// Snapshot returns the id and last-touched time of every conversation.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	convs := make([]*conversation, 0, len(s.sessions))
	for id, c := range s.sessions {
		ids = append(ids, id)
		convs = append(convs, c)
	}
	s.mu.RUnlock()

	entries := make([]Entry, 0, len(ids))
	for i, c := range convs {
		c.mu.Lock()
		if !c.removed {
			entries = append(entries, Entry{
				ID:          ids[i],
				LastTouched: c.lastTouched,
				Turns:       len(c.turns),
			})
		}
		c.mu.Unlock()
	}
	return entries
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// truncate enforces the turn limit. A leading system turn is kept and the
// most recent turns fill the remaining slots. With a limit of one, only the
// newest turn is kept.
func truncate(turns []Turn, maxTurns int) []Turn {
	if len(turns) <= maxTurns {
		return turns
	}

	if maxTurns > 1 && turns[0].Role == RoleSystem {
		tail := turns[len(turns)-(maxTurns-1):]
		out := make([]Turn, 0, maxTurns)
		out = append(out, turns[0])
		return append(out, tail...)
	}

	out := make([]Turn, maxTurns)
	copy(out, turns[len(turns)-maxTurns:])
	return out
}
