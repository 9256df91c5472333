package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName carries the session token between the login form and the
// websocket upgrade.
const CookieName = "beach_session"

// Session is a verified (username, avatarId) pair handed to the room engine.
type Session struct {
	Token     string
	Username  string
	AvatarID  string
	ExpiresAt time.Time
}

// SessionStore keeps live sessions in memory. Sessions do not survive a
// restart, matching the rest of the server's presence state.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create mints a session for an authenticated account.
func (s *SessionStore) Create(username, avatarID string) Session {
	session := Session{
		Token:    uuid.NewString(),
		Username: username,
		AvatarID: avatarID,
	}
	s.mu.Lock()
	session.ExpiresAt = s.now().Add(s.ttl)
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session
}

// Resolve returns the session for token if it is still live, pruning it when
// expired.
func (s *SessionStore) Resolve(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Revoke drops a session. Unknown tokens are a no-op.
func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *SessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
