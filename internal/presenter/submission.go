package presenter

import (
	"encoding/json"
	"fmt"
	"time"
)

// Submission review states.
const (
	ReviewReceived  = "received"
	ReviewHasIssues = "hasIssues"
	ReviewEdited    = "edited"
	ReviewApproved  = "approved"
	ReviewRejected  = "rejected"
)

// SubmissionSystem is the __system block of an OData submission row.
type SubmissionSystem struct {
	SubmissionDate      time.Time  `json:"submissionDate"`
	UpdatedAt           *time.Time `json:"updatedAt"`
	SubmitterID         string     `json:"submitterId"`
	SubmitterName       string     `json:"submitterName"`
	AttachmentsPresent  int        `json:"attachmentsPresent"`
	AttachmentsExpected int        `json:"attachmentsExpected"`
	Status              *string    `json:"status"`
	ReviewState         *string    `json:"reviewState"`
	DeviceID            *string    `json:"deviceId"`
	Edits               int        `json:"edits"`
	FormVersion         string     `json:"formVersion"`
}

// Submission is one OData row: __id, __system and the form's own fields.
type Submission struct {
	ID     string
	System SubmissionSystem
	Fields map[string]any
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["__id"]; ok {
		if err := json.Unmarshal(id, &s.ID); err != nil {
			return fmt.Errorf("submission __id: %w", err)
		}
		delete(raw, "__id")
	}
	if sys, ok := raw["__system"]; ok {
		if err := json.Unmarshal(sys, &s.System); err != nil {
			return fmt.Errorf("submission __system: %w", err)
		}
		delete(raw, "__system")
	}
	s.Fields = make(map[string]any, len(raw))
	for name, value := range raw {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("submission field %s: %w", name, err)
		}
		s.Fields[name] = v
	}
	return nil
}

func (s Submission) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+2)
	for name, value := range s.Fields {
		out[name] = value
	}
	out["__id"] = s.ID
	out["__system"] = s.System
	return json.Marshal(out)
}

// InstanceID returns the instance ID the submission was sent with.
func (s Submission) InstanceID() string {
	return s.ID
}

// ReviewState returns the review state, which is "received" until someone
// reviews the submission.
func (s Submission) ReviewState() string {
	if s.System.ReviewState == nil || *s.System.ReviewState == "" {
		return ReviewReceived
	}
	return *s.System.ReviewState
}

// MissingAttachments counts expected attachments that were not uploaded.
func (s Submission) MissingAttachments() int {
	if n := s.System.AttachmentsExpected - s.System.AttachmentsPresent; n > 0 {
		return n
	}
	return 0
}

func (s Submission) Edited() bool {
	return s.System.Edits > 0
}

// SubmitterName falls back to the submitter id when the submitter has no
// display name.
func (s Submission) SubmitterName() string {
	if s.System.SubmitterName != "" {
		return s.System.SubmitterName
	}
	if s.System.SubmitterID != "" {
		return "#" + s.System.SubmitterID
	}
	return ""
}

// SubmissionPage is one page of an OData submission listing.
type SubmissionPage struct {
	Value    []Submission `json:"value"`
	Count    *int         `json:"@odata.count,omitempty"`
	NextLink string       `json:"@odata.nextLink,omitempty"`
}

// HasMore reports whether the backend has another page.
func (p SubmissionPage) HasMore() bool {
	return p.NextLink != ""
}
