// Package console ties together what one signed-in user needs: a backend
// client carrying their token, the request-state store, the banner alert and
// the session. Views and mutations are methods on Console.
package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/alert"
	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
	"github.com/parisxmas/central-admin/internal/session"
)

// Config configures new consoles.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MaxUploadSize int64
	UserAgent     string
	Observers     []requestdata.Observer
	Tracer        Tracer
	// Tokens persists the session. Sessions are kept in memory when nil.
	Tokens session.TokenStore
	// WarnBefore and LogoutBefore override how long before session expiry
	// the console warns and logs out.
	WarnBefore   time.Duration
	LogoutBefore time.Duration
}

// Tracer hands out per-console observers. *requesttrace.Recorder
// implements it.
type Tracer interface {
	For(consoleID string) requestdata.Observer
}

type Console struct {
	ID      string
	Client  *central.Client
	Data    *requestdata.Store
	Banner  *alert.Banner
	Session *session.Manager

	now func() time.Time

	mu        sync.Mutex
	route     requestdata.Route
	lastUsed  time.Time
	stopWatch context.CancelFunc
}

// Banner messages for the session expiry watch.
const (
	SessionExpiringMessage = "Your session will expire soon. Please save any work and log in again to continue."
	SessionExpiredMessage  = "Your session has expired. Please log in again."
)

// New creates a console with no session.
func New(id string, cfg Config) (*Console, error) {
	opts := []central.Option{}
	if cfg.Timeout > 0 {
		opts = append(opts, central.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxUploadSize > 0 {
		opts = append(opts, central.WithMaxUploadSize(cfg.MaxUploadSize))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, central.WithUserAgent(cfg.UserAgent))
	}
	client, err := central.New(cfg.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	storeOpts := make([]requestdata.StoreOption, 0, len(cfg.Observers)+1)
	for _, o := range cfg.Observers {
		storeOpts = append(storeOpts, requestdata.WithObserver(o))
	}
	if cfg.Tracer != nil {
		storeOpts = append(storeOpts, requestdata.WithObserver(cfg.Tracer.For(id)))
	}
	data := requestdata.NewStore(client, resources.NewRegistry(), storeOpts...)

	var sessOpts []session.Option
	if cfg.Tokens != nil {
		sessOpts = append(sessOpts, session.WithTokenStore(cfg.Tokens))
	}
	if cfg.WarnBefore > 0 || cfg.LogoutBefore > 0 {
		warn, logout := cfg.WarnBefore, cfg.LogoutBefore
		if warn <= 0 {
			warn = session.DefaultWarnBefore
		}
		if logout <= 0 {
			logout = session.DefaultLogoutBefore
		}
		sessOpts = append(sessOpts, session.WithExpiryLeads(warn, logout))
	}
	c := &Console{
		ID:      id,
		Client:  client,
		Data:    data,
		Banner:  alert.NewBanner(),
		Session: session.NewManager(client, data, sessOpts...),
		now:     time.Now,
		route:   HomeRoute(),
	}
	c.lastUsed = c.now()
	return c, nil
}

// Touch marks the console as used.
func (c *Console) Touch() {
	c.mu.Lock()
	c.lastUsed = c.now()
	c.mu.Unlock()
}

func (c *Console) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Route returns the route of the last view loaded.
func (c *Console) Route() requestdata.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// Navigate moves the console to route, clearing data the route does not
// preserve. Returns the cleared keys.
func (c *Console) Navigate(to requestdata.Route) []requestdata.Key {
	c.mu.Lock()
	from := c.route
	c.route = to
	c.lastUsed = c.now()
	c.mu.Unlock()
	return c.Data.Navigate(from, to)
}

// Login signs the console's user in, replacing any previous session and the
// data loaded for it. Failures are shown on the banner.
func (c *Console) Login(ctx context.Context, email, password string) error {
	c.resetRoute()
	_, err := c.Session.Login(ctx, email, password)
	if err != nil {
		c.Banner.Error(err, session.LoginProblemToAlert)
		return err
	}
	c.Banner.Dismiss()
	c.watchSession()
	return nil
}

// Restore resumes a persisted session.
func (c *Console) Restore(ctx context.Context) error {
	if _, err := c.Session.Restore(ctx); err != nil {
		return err
	}
	c.watchSession()
	return nil
}

// watchSession warns on the banner shortly before the session expires and
// logs the console out just before it does.
func (c *Console) watchSession() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
	}
	c.stopWatch = cancel
	c.mu.Unlock()

	go func() {
		defer cancel()
		_ = c.Session.Watch(ctx,
			func(presenter.Session) { c.Banner.Info(SessionExpiringMessage) },
			func(error) {
				c.resetRoute()
				c.Banner.Danger(SessionExpiredMessage)
			})
	}()
}

func (c *Console) stopWatching() {
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.mu.Unlock()
}

func (c *Console) resetRoute() {
	c.mu.Lock()
	c.route = HomeRoute()
	c.mu.Unlock()
}

// Logout signs the user out and returns the console to the home route.
func (c *Console) Logout(ctx context.Context) error {
	err := c.Session.Logout(ctx)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		c.Banner.Error(err, nil)
		return err
	}
	c.stopWatching()
	c.resetRoute()
	c.Banner.Success("You have logged out successfully.")
	return nil
}

// Refresh re-issues the last request for key. Data stays visible if the
// refresh fails.
func (c *Console) Refresh(ctx context.Context, key requestdata.Key) (requestdata.Snapshot, error) {
	c.Touch()
	snap, err := c.Data.Refresh(ctx, key)
	if err != nil && !errors.Is(err, requestdata.ErrStale) && !errors.Is(err, requestdata.ErrNotRequested) {
		c.Banner.Error(err, nil)
	}
	return snap, err
}

// Cancel cancels the in-flight request for key.
func (c *Console) Cancel(key requestdata.Key) bool {
	c.Touch()
	return c.Data.Cancel(key)
}

// Close cancels every in-flight request and ends the session, if any.
func (c *Console) Close(ctx context.Context) {
	c.stopWatching()
	c.Data.CancelAll()
	if _, ok := c.Session.Session(); ok {
		_ = c.Session.Logout(ctx)
	}
}
