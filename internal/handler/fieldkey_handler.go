package handler

import (
	"net/http"

	"github.com/parisxmas/central-admin/internal/auth"
)

type FieldKeyHandler struct{}

func NewFieldKeyHandler() *FieldKeyHandler {
	return &FieldKeyHandler{}
}

func (h *FieldKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := readJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, 400.1, "Could not parse the request body.")
		return
	}
	c := auth.GetConsole(r.Context())
	key, err := c.CreateFieldKey(r.Context(), projectID, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusCreated, key)
}

func (h *FieldKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	c := auth.GetConsole(r.Context())
	key, err := c.RevokeFieldKey(r.Context(), projectID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusOK, key)
}
