package console

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the consoles of the server by id. A sweeper drops consoles
// left idle longer than the TTL and logs out sessions that have expired.
type Registry struct {
	cfg Config
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	consoles map[string]*Console

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRegistry starts a registry whose sweeper runs every interval.
func NewRegistry(cfg Config, ttl, interval time.Duration) *Registry {
	// Server consoles never share a token file.
	cfg.Tokens = nil
	r := &Registry{
		cfg:      cfg,
		ttl:      ttl,
		now:      time.Now,
		consoles: make(map[string]*Console),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.sweeper(interval)
	return r
}

// Create adds a console with a fresh id.
func (r *Registry) Create() (*Console, error) {
	c, err := New(uuid.NewString(), r.cfg)
	if err != nil {
		return nil, err
	}
	c.now = r.now
	c.Touch()
	r.mu.Lock()
	r.consoles[c.ID] = c
	r.mu.Unlock()
	return c, nil
}

// Get returns the console with id and marks it used.
func (r *Registry) Get(id string) (*Console, bool) {
	r.mu.Lock()
	c, ok := r.consoles[id]
	r.mu.Unlock()
	if ok {
		c.Touch()
	}
	return c, ok
}

// Remove drops a console without ending its session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.consoles, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles)
}

// Sweep drops idle consoles and logs out expired sessions. Returns the ids
// of the dropped consoles.
func (r *Registry) Sweep(ctx context.Context) []string {
	now := r.now()
	var idle, all []*Console
	r.mu.Lock()
	for id, c := range r.consoles {
		all = append(all, c)
		if r.ttl > 0 && now.Sub(c.LastUsed()) > r.ttl {
			idle = append(idle, c)
			delete(r.consoles, id)
		}
	}
	r.mu.Unlock()

	dropped := make([]string, 0, len(idle))
	for _, c := range idle {
		c.Close(ctx)
		dropped = append(dropped, c.ID)
	}
	for _, c := range all {
		s, ok := c.Session.Session()
		if !ok || !s.Expired(now) {
			continue
		}
		if err := c.Session.Logout(ctx); err != nil {
			log.Printf("Warning: console %s: logout of expired session: %v", c.ID, err)
		}
	}
	return dropped
}

func (r *Registry) sweeper(interval time.Duration) {
	defer close(r.done)
	if interval <= 0 {
		<-r.stop
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if dropped := r.Sweep(ctx); len(dropped) > 0 {
				log.Printf("consoles: dropped %d idle", len(dropped))
			}
			cancel()
		}
	}
}

// Close stops the sweeper and closes every console.
func (r *Registry) Close(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
	r.mu.Lock()
	consoles := make([]*Console, 0, len(r.consoles))
	for _, c := range r.consoles {
		consoles = append(consoles, c)
	}
	r.consoles = make(map[string]*Console)
	r.mu.Unlock()
	for _, c := range consoles {
		c.Close(ctx)
	}
}
