// Package alert holds the banner alert shown at the top of the console.
package alert

import (
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
)

// Alert types.
const (
	TypeSuccess = "success"
	TypeInfo    = "info"
	TypeDanger  = "danger"
)

// Alert is one banner message.
type Alert struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Banner holds at most one alert. Showing an alert replaces the previous one.
type Banner struct {
	mu      sync.Mutex
	now     func() time.Time
	current *Alert
}

func NewBanner() *Banner {
	return &Banner{now: time.Now}
}

func (b *Banner) Success(msg string) Alert { return b.show(TypeSuccess, msg) }

func (b *Banner) Info(msg string) Alert { return b.show(TypeInfo, msg) }

func (b *Banner) Danger(msg string) Alert { return b.show(TypeDanger, msg) }

// Error shows the user-facing message for err as a danger alert. Nothing is
// shown for a nil error.
func (b *Banner) Error(err error, problemToAlert central.ProblemToAlert) (Alert, bool) {
	if err == nil {
		return Alert{}, false
	}
	return b.show(TypeDanger, central.AlertMessage(err, problemToAlert)), true
}

// Dismiss hides the current alert, if any.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
}

// Current returns the visible alert.
func (b *Banner) Current() (Alert, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Alert{}, false
	}
	return *b.current, true
}

func (b *Banner) show(typ, msg string) Alert {
	a := Alert{Type: typ, Message: msg, At: b.now()}
	b.mu.Lock()
	b.current = &a
	b.mu.Unlock()
	return a
}
