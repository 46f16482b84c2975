// Package session tracks who the current user is.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"todo/internal/credential"
	"todo/internal/logging"
	"todo/internal/metrics"
	"todo/internal/service"
)

// State is the session's position in its lifecycle.
type State int

const (
	// Pending means the current user has not been fetched yet.
	Pending State = iota
	// Authenticated means a user is known.
	Authenticated
	// Anonymous means the fetch failed or the user signed out.
	Anonymous
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "pending"
	}
}

// Store holds the session state. At most one current-user fetch is in
// flight at a time, and a resolved session is not fetched again until
// Reset.
type Store struct {
	svc   service.Service
	creds credential.Holder
	log   zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	state   State
	user    *service.User
	lastErr error
}

// New creates a pending session backed by svc. When creds holds no
// credential, Resolve goes straight to Anonymous without a fetch.
func New(svc service.Service, creds credential.Holder) *Store {
	return &Store{
		svc:   svc,
		creds: creds,
		log:   logging.WithComponent("session"),
	}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the current user, or nil unless Authenticated.
func (s *Store) User() *service.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Err returns the error of the last failed fetch.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Resolve fetches the current user if the session is still pending and
// returns the resulting state. Concurrent callers share one fetch. Any
// fetch failure resolves to Anonymous; there is no retry.
func (s *Store) Resolve(ctx context.Context) State {
	if st := s.State(); st != Pending {
		return st
	}

	v, _, _ := s.group.Do("current-user", func() (any, error) {
		if st := s.State(); st != Pending {
			return st, nil
		}
		if _, ok := s.creds.Retrieve(); !ok {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.state = Anonymous
			metrics.SessionResolutionsTotal.WithLabelValues(s.state.String()).Inc()
			return s.state, nil
		}
		u, err := s.svc.CurrentUser(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.user = nil
			s.state = Anonymous
			s.lastErr = err
			s.log.Debug().Err(err).Msg("current user unavailable")
		} else {
			s.user = &u
			s.state = Authenticated
			s.lastErr = nil
			s.log.Debug().Str("user_id", u.ID).Msg("session resolved")
		}
		metrics.SessionResolutionsTotal.WithLabelValues(s.state.String()).Inc()
		return s.state, nil
	})
	return v.(State)
}

// SignIn authenticates and, on success, makes the returned user current.
func (s *Store) SignIn(ctx context.Context, in service.SignInInput) (service.AuthResponse, error) {
	resp, err := s.svc.SignIn(ctx, in)
	if err != nil {
		return resp, err
	}
	s.adopt(resp.User)
	return resp, nil
}

// SignUp registers and, on success, makes the returned user current.
func (s *Store) SignUp(ctx context.Context, in service.SignUpInput) (service.AuthResponse, error) {
	resp, err := s.svc.SignUp(ctx, in)
	if err != nil {
		return resp, err
	}
	s.adopt(resp.User)
	return resp, nil
}

// adopt sets the session from an auth response. Without a user in the
// response the session goes back to pending so the next Resolve fetches it.
func (s *Store) adopt(u *service.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
	if u == nil {
		s.user = nil
		s.state = Pending
		return
	}
	cp := *u
	s.user = &cp
	s.state = Authenticated
}

// SignOut ends the session. The session is anonymous afterwards even if
// the backend call fails.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.svc.SignOut(ctx)
	s.mu.Lock()
	s.user = nil
	s.state = Anonymous
	s.mu.Unlock()
	return err
}

// Reset returns the session to pending so the next Resolve fetches again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.state = Pending
	s.lastErr = nil
}
