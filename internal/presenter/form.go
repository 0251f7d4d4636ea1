package presenter

import "time"

// Form states.
const (
	FormOpen    = "open"
	FormClosing = "closing"
	FormClosed  = "closed"
)

// ReviewStates counts submissions per review state.
type ReviewStates struct {
	Received  int `json:"received"`
	HasIssues int `json:"hasIssues"`
	Edited    int `json:"edited"`
}

type Form struct {
	ProjectID      int           `json:"projectId"`
	XMLFormID      string        `json:"xmlFormId"`
	Name           *string       `json:"name"`
	Version        string        `json:"version"`
	State          string        `json:"state"`
	Hash           string        `json:"hash,omitempty"`
	KeyID          *int          `json:"keyId"`
	EnketoID       *string       `json:"enketoId"`
	PublishedAt    *time.Time    `json:"publishedAt"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      *time.Time    `json:"updatedAt"`
	Submissions    int           `json:"submissions"`
	LastSubmission *time.Time    `json:"lastSubmission"`
	ReviewStates   *ReviewStates `json:"reviewStates,omitempty"`
	CreatedBy      *Actor        `json:"createdBy,omitempty"`
}

// NameOrID returns the form title, falling back to its xmlFormId.
func (f Form) NameOrID() string {
	if f.Name != nil && *f.Name != "" {
		return *f.Name
	}
	return f.XMLFormID
}

// VersionOrBlank returns the version string, or "(blank)" when the form has
// an empty version.
func (f Form) VersionOrBlank() string {
	if f.Version == "" {
		return "(blank)"
	}
	return f.Version
}

func (f Form) Published() bool { return f.PublishedAt != nil }

func (f Form) Encrypted() bool { return f.KeyID != nil }

func (f Form) Closed() bool { return f.State == FormClosed }
