package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/motion"
)

// Session is one player's game: its coordinator and the motion director
// following it.
type Session struct {
	ID          string
	Coordinator *Coordinator
	Director    *motion.Director

	unsubscribe func()
	lastSeen    time.Time
}

// Store manages sessions keyed by ID.
type Store struct {
	newCoordinator func() *Coordinator
	ttl            time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a store. Sessions untouched for longer than ttl are
// evicted by Sweep; a zero ttl disables eviction.
func NewStore(newCoordinator func() *Coordinator, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		newCoordinator: newCoordinator,
		ttl:            ttl,
		logger:         logger,
		now:            time.Now,
		sessions:       make(map[string]*Session),
	}
}

// Create starts a new idle session.
func (s *Store) Create() *Session {
	coord := s.newCoordinator()
	director := motion.NewDirector()
	sess := &Session{
		ID:          uuid.NewString(),
		Coordinator: coord,
		Director:    director,
		unsubscribe: coord.Subscribe(func(curr, prev Snapshot) {
			director.Apply(curr.State, prev.State, s.now())
		}),
	}

	s.mu.Lock()
	sess.lastSeen = s.now()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a session and marks it as active.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Delete closes and removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.close()
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle since before now minus the TTL and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	var stale []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.close()
	}
	return len(stale)
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.InfoContext(ctx, "evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

// CloseAll closes every session.
func (s *Store) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

func (sess *Session) close() {
	sess.unsubscribe()
	sess.Coordinator.Close()
}
