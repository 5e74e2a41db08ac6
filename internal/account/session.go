package account

import (
	"fmt"
	"sync"

	"github.com/sadopc/taskr/internal/logging"
	"github.com/sadopc/taskr/internal/store"
)

// sessionState tracks whether a user is signed in.
type sessionState int

const (
	stateAnonymous sessionState = iota
	stateAuthenticated
)

// Session is the process's notion of who is signed in. It mirrors the
// "loggedInUser" key so a restart resumes the same session.
type Session struct {
	store *store.Store
	users *Directory

	mu    sync.RWMutex
	state sessionState
	user  store.User
}

// NewSession restores the persisted session, if any. A missing or
// unreadable record leaves the session anonymous.
func NewSession(s *store.Store, users *Directory) *Session {
	sess := &Session{store: s, users: users, state: stateAnonymous}

	u, ok, err := store.Get[store.User](s, store.KeyLoggedInUser)
	switch {
	case err != nil:
		logging.Logger.WithError(err).Warn("ignoring unreadable session record")
	case ok && u.ID > 0:
		sess.state = stateAuthenticated
		sess.user = u
		logging.Logger.WithField("user_id", u.ID).Info("session restored")
	case ok:
		logging.Logger.Warn("ignoring session record without user id")
	}
	return sess
}

// Authenticate signs in the first user whose email and password match
// exactly. It returns nil, nil when nobody matches; the session is then
// left as it was.
func (s *Session) Authenticate(email, password string) (*store.User, error) {
	u, err := s.users.findByCredentials(email, password)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if u == nil {
		logging.Logger.Info("authentication failed")
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.Put(s.store, store.KeyLoggedInUser, u); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	s.state = stateAuthenticated
	s.user = *u
	logging.Logger.WithField("user_id", u.ID).Info("user logged in")

	out := *u
	return &out, nil
}

// Logout returns to the anonymous state. Logging out twice is fine.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Erase(store.KeyLoggedInUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.state == stateAuthenticated {
		logging.Logger.WithField("user_id", s.user.ID).Info("user logged out")
	}
	s.state = stateAnonymous
	s.user = store.User{}
	return nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateAuthenticated
}

// CurrentUserID returns the signed-in user's id; ok is false when anonymous.
func (s *Session) CurrentUserID() (id int64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateAuthenticated {
		return 0, false
	}
	return s.user.ID, true
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Session) CurrentUser() *store.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateAuthenticated {
		return nil
	}
	u := s.user
	return &u
}
