package presenter

import "time"

// FieldKey is an app user: a token-bearing identity used by data collection
// clients. The token is null once access is revoked.
type FieldKey struct {
	ID          int        `json:"id"`
	DisplayName string     `json:"displayName"`
	Token       *string    `json:"token"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	LastUsed    *time.Time `json:"lastUsed"`
	CreatedBy   *Actor     `json:"createdBy,omitempty"`
	ProjectID   int        `json:"projectId,omitempty"`
}

func (k FieldKey) Active() bool { return k.Token != nil }

func (k FieldKey) Revoked() bool { return k.Token == nil }

// Revoke returns a copy of the key with its token cleared.
func (k FieldKey) Revoke() FieldKey {
	k.Token = nil
	return k
}
