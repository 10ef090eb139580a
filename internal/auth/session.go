package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rohits-web03/docvault/internal/utils"
	"go.uber.org/zap"
)

const SessionCookieName = "session_id"

type sessionData struct {
	UserID    uint
	ExpiresAt time.Time
}

// SessionStore keeps browser sessions in memory. Session ids are random
// tokens handed out in the session_id cookie.
type SessionStore struct {
	sessions map[string]sessionData
	mutex    sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]sessionData),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "session_store")),
	}
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create starts a session bound to userID and returns its id.
func (s *SessionStore) Create(userID uint) (string, error) {
	id, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}
	s.mutex.Lock()
	s.sessions[id] = sessionData{UserID: userID, ExpiresAt: s.now().Add(s.ttl)}
	s.mutex.Unlock()

	s.logger.Debug("Created session", zap.Uint("user_id", userID))
	return id, nil
}

func (s *SessionStore) Lookup(id string) (uint, bool) {
	s.mutex.RLock()
	sd, ok := s.sessions[id]
	s.mutex.RUnlock()
	if !ok || s.now().After(sd.ExpiresAt) {
		return 0, false
	}
	return sd.UserID, true
}

func (s *SessionStore) Destroy(id string) {
	s.mutex.Lock()
	delete(s.sessions, id)
	s.mutex.Unlock()
}

// Resolve reads the session cookie.
func (s *SessionStore) Resolve(r *http.Request) (uint, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return 0, ErrUnauthenticated
	}
	userID, ok := s.Lookup(cookie.Value)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return userID, nil
}

// RunCleanup removes expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.cleanupExpired(); n > 0 {
				s.logger.Info("Removed expired sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *SessionStore) cleanupExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, sd := range s.sessions {
		if now.After(sd.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
