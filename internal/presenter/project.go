package presenter

import (
	"slices"
	"time"
)

type Project struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Archived       bool       `json:"archived"`
	KeyID          *int       `json:"keyId"`
	Forms          int        `json:"forms"`
	AppUsers       int        `json:"appUsers"`
	LastSubmission *time.Time `json:"lastSubmission"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt"`
	Verbs          []string   `json:"verbs,omitempty"`
}

// NameWithArchived appends an archived marker to the name of archived
// projects.
func (p Project) NameWithArchived() string {
	if p.Archived {
		return p.Name + " (archived)"
	}
	return p.Name
}

// Encrypted reports whether submissions to the project are encrypted.
func (p Project) Encrypted() bool {
	return p.KeyID != nil
}

// Can reports whether the current user may perform verb on the project.
func (p Project) Can(verb string) bool {
	return slices.Contains(p.Verbs, verb)
}
