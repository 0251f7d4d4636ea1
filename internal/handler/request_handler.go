package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/auth"
	"github.com/parisxmas/central-admin/internal/requestdata"
)

// RequestHandler exposes the request states of the caller's console.
type RequestHandler struct{}

func NewRequestHandler() *RequestHandler {
	return &RequestHandler{}
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	writeConsole(w, auth.GetConsole(r.Context()), http.StatusOK, nil)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	canceled := c.Cancel(requestdata.Key(chi.URLParam(r, "key")))
	writeConsole(w, c, http.StatusOK, map[string]bool{"canceled": canceled})
}

func (h *RequestHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	if _, err := c.Refresh(r.Context(), requestdata.Key(chi.URLParam(r, "key"))); err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusOK, nil)
}

func (h *RequestHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	c.Banner.Dismiss()
	writeConsole(w, c, http.StatusOK, nil)
}
