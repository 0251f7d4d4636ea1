// Package presenter decodes backend records and adds the computed values the
// console displays.
package presenter

import (
	"slices"
	"time"
)

// Session is a login session. The token doubles as the bearer credential.
type Session struct {
	Token     string    `json:"token"`
	CSRF      string    `json:"csrf,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ExpiresIn returns the time left until expiry, never negative.
func (s Session) ExpiresIn(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Actor is the short form of a user or app user embedded in other records.
type Actor struct {
	ID          int    `json:"id"`
	Type        string `json:"type,omitempty"`
	DisplayName string `json:"displayName"`
}

type User struct {
	ID          int        `json:"id"`
	Type        string     `json:"type,omitempty"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
	Verbs       []string   `json:"verbs,omitempty"`
}

// Can reports whether the user was granted verb, e.g. "project.create".
func (u User) Can(verb string) bool {
	return slices.Contains(u.Verbs, verb)
}

func (u User) NameOrEmail() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Deleted reports whether the account was retired.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}
