// Package sessions keeps the web app's server-side sessions in process
// memory. A session is identified by an opaque random id carried in a
// cookie; it records whether the visitor is logged in, as whom, and the
// flash messages waiting to be shown on the next page.
package sessions

import (
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
)

const idSize = 32

const (
	// DefaultAnonymousTTL bounds sessions that only carry flashes.
	DefaultAnonymousTTL = 5 * time.Minute
	// DefaultMaxAnonymous caps the number of live anonymous sessions.
	DefaultMaxAnonymous = 10000
)

// Flash is a one-time status message. Category is a bootstrap alert class
// such as "success" or "danger".
type Flash struct {
	Category string
	Message  string
}

type Session struct {
	ID        string
	Username  string
	LoggedIn  bool
	Flashes   []Flash
	ExpiresAt time.Time
}

// Store is a mutex-guarded map of sessions. Expired sessions are dropped
// when looked up and swept whenever a new session starts.
//
// Anonymous sessions live for AnonymousTTL and at most maxAnonymous of them
// are kept; the one closest to expiry is evicted to make room. Login
// extends a session to the full TTL.
type Store struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	ttl          time.Duration
	anonTTL      time.Duration
	maxAnonymous int
	now          func() time.Time
}

type Option func(*Store)

// WithAnonymousLimits overrides the lifetime and the cap of anonymous
// sessions.
func WithAnonymousLimits(ttl time.Duration, max int) Option {
	return func(s *Store) {
		s.anonTTL = ttl
		s.maxAnonymous = max
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions:     make(map[string]*Session),
		ttl:          ttl,
		anonTTL:      DefaultAnonymousTTL,
		maxAnonymous: DefaultMaxAnonymous,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.anonTTL > ttl {
		s.anonTTL = ttl
	}
	return s
}

// TTL is the lifetime of a logged-in session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// AnonymousTTL is the lifetime of a session that is not logged in.
func (s *Store) AnonymousTTL() time.Duration {
	return s.anonTTL
}

// Start creates an anonymous session.
func (s *Store) Start() (Session, error) {
	id, err := common.MakeRandHexString(idSize)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.evictAnonymousLocked()

	sess := &Session{ID: id, ExpiresAt: s.now().Add(s.anonTTL)}
	s.sessions[id] = sess

	return *sess, nil
}

// Login marks the session as logged in as username and extends it to the
// full TTL. It reports false when the session is missing or expired.
func (s *Store) Login(id, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return false
	}
	sess.LoggedIn = true
	sess.Username = username
	sess.ExpiresAt = s.now().Add(s.ttl)
	return true
}

// Logout makes the session anonymous again, keeping its flashes, and cuts
// it back to AnonymousTTL.
func (s *Store) Logout(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return false
	}
	sess.LoggedIn = false
	sess.Username = ""
	if limit := s.now().Add(s.anonTTL); sess.ExpiresAt.After(limit) {
		sess.ExpiresAt = limit
	}
	return true
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return Session{}, false
	}
	return clone(sess), true
}

// Update applies fn to the stored session. It reports false when the
// session is missing or expired.
func (s *Store) Update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// PopFlashes returns and clears the pending flashes of a session.
func (s *Store) PopFlashes(id string) []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.lookupLocked(id)
	if !ok {
		return nil
	}
	flashes := sess.Flashes
	sess.Flashes = nil
	return flashes
}

func (s *Store) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// Len reports the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Store) lookupLocked(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

// evictAnonymousLocked drops anonymous sessions closest to expiry until a
// new one fits under maxAnonymous.
func (s *Store) evictAnonymousLocked() {
	if s.maxAnonymous <= 0 {
		return
	}

	var anon []*Session
	for _, sess := range s.sessions {
		if !sess.LoggedIn {
			anon = append(anon, sess)
		}
	}
	if len(anon) < s.maxAnonymous {
		return
	}

	sort.Slice(anon, func(i, j int) bool { return anon[i].ExpiresAt.Before(anon[j].ExpiresAt) })
	for _, sess := range anon[:len(anon)-s.maxAnonymous+1] {
		delete(s.sessions, sess.ID)
	}
}

func clone(sess *Session) Session {
	c := *sess
	c.Flashes = append([]Flash(nil), sess.Flashes...)
	return c
}
