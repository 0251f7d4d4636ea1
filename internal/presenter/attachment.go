package presenter

import "time"

// FormAttachment is a media or data file referenced by a form definition.
type FormAttachment struct {
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Exists        bool       `json:"exists"`
	BlobExists    bool       `json:"blobExists"`
	DatasetExists bool       `json:"datasetExists"`
	UpdatedAt     *time.Time `json:"updatedAt"`
}

// Missing reports whether the form expects the file but none was uploaded
// or linked.
func (a FormAttachment) Missing() bool {
	return !a.Exists
}

// MissingAttachments counts the attachments still to be provided.
func MissingAttachments(attachments []FormAttachment) int {
	n := 0
	for _, a := range attachments {
		if a.Missing() {
			n++
		}
	}
	return n
}
