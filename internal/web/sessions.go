package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlie0129/chess-stats-go/internal/session"
)

const sessionCookie = "chessstats_session"

type sessionEntry struct {
	ctrl     *session.Controller
	lastSeen time.Time
}

// Sessions maps browser cookies to view controllers. Idle sessions are
// dropped after ttl and their charts disposed.
type Sessions struct {
	newController func() *session.Controller
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessions(ttl time.Duration, newController func() *session.Controller) *Sessions {
	return &Sessions{
		newController: newController,
		ttl:           ttl,
		now:           time.Now,
		sessions:      make(map[string]*sessionEntry),
	}
}

// Get returns the caller's controller, starting a session when the
// request carries no known cookie.
func (s *Sessions) Get(w http.ResponseWriter, r *http.Request) *session.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if e, ok := s.sessions[c.Value]; ok {
			e.lastSeen = s.now()
			return e.ctrl
		}
	}

	id := uuid.NewString()
	e := &sessionEntry{ctrl: s.newController(), lastSeen: s.now()}
	s.sessions[id] = e
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("session started", "session_id", id)
	return e.ctrl
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the ttl.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			e.ctrl.Close()
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until stop is closed.
func (s *Sessions) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.ctrl.Close()
		delete(s.sessions, id)
	}
}
