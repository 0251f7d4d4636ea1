package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/auth"
)

type AttachmentHandler struct {
	maxSize int64
}

// NewAttachmentHandler returns the upload handler. Bodies without a
// Content-Length are buffered up to maxSize+1 bytes so the size check still
// applies.
func NewAttachmentHandler(maxSize int64) *AttachmentHandler {
	return &AttachmentHandler{maxSize: maxSize}
}

// Upload streams the raw request body to the form draft's attachment.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	xmlFormID := chi.URLParam(r, "xmlFormId")
	name := chi.URLParam(r, "name")

	var (
		body io.Reader = r.Body
		size           = r.ContentLength
	)
	if size < 0 {
		data, err := io.ReadAll(io.LimitReader(r.Body, h.maxSize+1))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, 400.1, "Could not read the file.")
			return
		}
		body, size = bytes.NewReader(data), int64(len(data))
	}

	c := auth.GetConsole(r.Context())
	if err := c.UploadAttachment(r.Context(), projectID, xmlFormID, name, body, size, r.Header.Get("Content-Type")); err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusOK, map[string]string{"name": name})
}
