// Package session logs users in and out of the backend and keeps the bearer
// token of the signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
)

var (
	// ErrNoSession is returned when no one is signed in.
	ErrNoSession = errors.New("session: not logged in")
	// ErrExpired is returned when a persisted session has expired.
	ErrExpired = errors.New("session: expired")
)

// Defaults for Watch.
const (
	DefaultWarnBefore   = 2 * time.Minute
	DefaultLogoutBefore = time.Minute
)

// LoginProblemToAlert replaces the backend's message for failed logins.
func LoginProblemToAlert(p central.Problem) string {
	if p.Is(401.2) {
		return "Incorrect email address and/or password."
	}
	return ""
}

// Manager owns the session of one console.
type Manager struct {
	client *central.Client
	data   *requestdata.Store
	tokens TokenStore
	now    func() time.Time

	warnBefore   time.Duration
	logoutBefore time.Duration

	mu      sync.Mutex
	session *presenter.Session
	// changed is closed whenever session is replaced or cleared.
	changed chan struct{}
}

type Option func(*Manager)

// WithTokenStore persists sessions in ts instead of memory.
func WithTokenStore(ts TokenStore) Option {
	return func(m *Manager) { m.tokens = ts }
}

// WithExpiryLeads sets how long before expiry Watch warns and logs out.
func WithExpiryLeads(warn, logout time.Duration) Option {
	return func(m *Manager) { m.warnBefore, m.logoutBefore = warn, logout }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(client *central.Client, data *requestdata.Store, opts ...Option) *Manager {
	m := &Manager{
		client:       client,
		data:         data,
		tokens:       &MemoryStore{},
		now:          time.Now,
		warnBefore:   DefaultWarnBefore,
		logoutBefore: DefaultLogoutBefore,
		changed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the current session.
func (m *Manager) Session() (presenter.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return presenter.Session{}, false
	}
	return *m.session, true
}

// Login creates a session and loads the current user. A session that is
// already open is logged out first and every resource is reset, so nothing
// loaded for the previous user survives.
func (m *Manager) Login(ctx context.Context, email, password string) (presenter.User, error) {
	if s, ok := m.Session(); ok {
		if _, err := m.client.Do(ctx, central.DeleteSession(s.Token)); err != nil && !gone(err) {
			log.Printf("Warning: could not end the previous session: %v", err)
		}
	}
	m.clear()
	resp, err := m.client.Do(ctx, central.CreateSession(email, password))
	if err != nil {
		return presenter.User{}, err
	}
	var s presenter.Session
	if err := resp.Decode(&s); err != nil {
		return presenter.User{}, err
	}
	if s.Token == "" {
		return presenter.User{}, errors.New("session: login response has no token")
	}
	m.establish(s)
	if err := m.tokens.Save(s); err != nil {
		log.Printf("Warning: could not persist session: %v", err)
	}
	return m.loadUser(ctx)
}

// Restore resumes a persisted session after checking it with the backend.
func (m *Manager) Restore(ctx context.Context) (presenter.User, error) {
	s, err := m.tokens.Load()
	if err != nil {
		return presenter.User{}, err
	}
	if s.Expired(m.now()) {
		m.clear()
		return presenter.User{}, ErrExpired
	}
	m.establish(s)
	user, err := m.loadUser(ctx)
	if err != nil {
		var pe *central.ProblemError
		if errors.As(err, &pe) && pe.Status == http.StatusUnauthorized {
			m.clear()
			return presenter.User{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return presenter.User{}, err
	}
	return user, nil
}

// Logout ends the session on the backend and drops all local state. The
// backend reporting the session as already gone counts as success.
func (m *Manager) Logout(ctx context.Context) error {
	s, ok := m.Session()
	if !ok {
		m.clear()
		return ErrNoSession
	}
	_, err := m.client.Do(ctx, central.DeleteSession(s.Token))
	if err != nil && !gone(err) {
		return fmt.Errorf("session: logout: %w", err)
	}
	m.clear()
	return nil
}

func gone(err error) bool {
	var (
		pe *central.ProblemError
		se *central.StatusError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Status == http.StatusUnauthorized || pe.Status == http.StatusNotFound
	case errors.As(err, &se):
		return se.Status == http.StatusUnauthorized || se.Status == http.StatusNotFound
	}
	return false
}

// Watch blocks until the session nears expiry. warn is called once when the
// session has warnBefore left, and the session is logged out when it has
// logoutBefore left; expired then receives the logout error. Watch returns
// nil without calling expired when the session is replaced or cleared, and
// ctx.Err() when ctx is done.
func (m *Manager) Watch(ctx context.Context, warn func(presenter.Session), expired func(error)) error {
	m.mu.Lock()
	sp, changed := m.session, m.changed
	m.mu.Unlock()
	if sp == nil {
		return ErrNoSession
	}
	s := *sp

	left := s.ExpiresIn(m.now())
	warnTimer := time.NewTimer(max(left-m.warnBefore, 0))
	defer warnTimer.Stop()
	logoutTimer := time.NewTimer(max(left-m.logoutBefore, 0))
	defer logoutTimer.Stop()

	warnC := warnTimer.C
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			return nil
		case <-warnC:
			warnC = nil
			if m.current(s.Token) && warn != nil {
				warn(s)
			}
		case <-logoutTimer.C:
			if !m.current(s.Token) {
				return nil
			}
			err := m.Logout(context.WithoutCancel(ctx))
			if err != nil {
				log.Printf("Warning: logout of expiring session failed: %v", err)
				// The session is unusable either way.
				m.clear()
			}
			if expired != nil {
				expired(err)
			}
			return err
		}
	}
}

func (m *Manager) current(token string) bool {
	s, ok := m.Session()
	return ok && s.Token == token
}

func (m *Manager) replace(s *presenter.Session) {
	m.mu.Lock()
	m.session = s
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()
}

func (m *Manager) establish(s presenter.Session) {
	m.replace(&s)
	m.client.SetToken(s.Token)
	m.data.Set(resources.Session, s)
}

func (m *Manager) loadUser(ctx context.Context) (presenter.User, error) {
	snap, err := m.data.Request(ctx, resources.CurrentUser, central.CurrentUser())
	if err != nil {
		return presenter.User{}, err
	}
	user, _ := snap.Data.(presenter.User)
	return user, nil
}

func (m *Manager) clear() {
	m.replace(nil)
	m.client.SetToken("")
	m.data.Reset()
	if err := m.tokens.Clear(); err != nil {
		log.Printf("Warning: could not remove persisted session: %v", err)
	}
}
