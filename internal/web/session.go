package web

import (
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Turn is one answered question in a browser session's transcript.
type Turn struct {
	Question string
	Answer   string
}

type session struct {
	turns    []Turn
	lastSeen time.Time
}

// SessionStore keeps per-browser transcripts in memory. Sessions idle for
// longer than the TTL are dropped; nothing survives a restart.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
	onChange func(active int)
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts an empty session and returns its opaque ID.
func (s *SessionStore) Create() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[id] = &session{lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()
	s.notify(n)
	return id, nil
}

// Transcript returns a copy of the session's turns. ok is false for unknown
// or expired sessions.
func (s *SessionStore) Transcript(id string) (turns []Turn, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.live(id)
	if sess == nil {
		return nil, false
	}
	sess.lastSeen = s.now()
	return append([]Turn(nil), sess.turns...), true
}

// Append records a turn. It reports false when the session is gone.
func (s *SessionStore) Append(id string, turn Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.live(id)
	if sess == nil {
		return false
	}
	sess.turns = append(sess.turns, turn)
	sess.lastSeen = s.now()
	return true
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if removed > 0 {
		s.notify(n)
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// live must be called with mu held.
func (s *SessionStore) live(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil
	}
	return sess
}

func (s *SessionStore) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

func (s *SessionStore) notify(n int) {
	if s.onChange != nil {
		s.onChange(n)
	}
}
