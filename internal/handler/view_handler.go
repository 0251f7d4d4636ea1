package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/auth"
	"github.com/parisxmas/central-admin/internal/console"
)

// ViewHandler serves one view per page of the console.
type ViewHandler struct{}

func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

func serveView[T any](w http.ResponseWriter, r *http.Request, load func(*console.Console) (T, error)) {
	c := auth.GetConsole(r.Context())
	view, err := load(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusOK, view)
}

func (h *ViewHandler) Home(w http.ResponseWriter, r *http.Request) {
	serveView(w, r, func(c *console.Console) (console.HomeView, error) {
		return c.Home(r.Context())
	})
}

func (h *ViewHandler) Project(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	serveView(w, r, func(c *console.Console) (console.ProjectView, error) {
		return c.Project(r.Context(), projectID)
	})
}

func (h *ViewHandler) Form(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	xmlFormID := chi.URLParam(r, "xmlFormId")
	serveView(w, r, func(c *console.Console) (console.FormView, error) {
		return c.Form(r.Context(), projectID, xmlFormID)
	})
}

func (h *ViewHandler) FormDraft(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	xmlFormID := chi.URLParam(r, "xmlFormId")
	serveView(w, r, func(c *console.Console) (console.FormView, error) {
		return c.FormDraft(r.Context(), projectID, xmlFormID)
	})
}

func (h *ViewHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	xmlFormID := chi.URLParam(r, "xmlFormId")
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	serveView(w, r, func(c *console.Console) (console.SubmissionsView, error) {
		return c.Submissions(r.Context(), projectID, xmlFormID, pageSize, skip)
	})
}

func (h *ViewHandler) FieldKeys(w http.ResponseWriter, r *http.Request) {
	projectID, err := intParam(r, "projectId")
	if err != nil {
		writeError(w, err)
		return
	}
	serveView(w, r, func(c *console.Console) (console.FieldKeysView, error) {
		return c.FieldKeys(r.Context(), projectID)
	})
}

func (h *ViewHandler) Backups(w http.ResponseWriter, r *http.Request) {
	serveView(w, r, func(c *console.Console) (console.BackupsView, error) {
		return c.Backups(r.Context())
	})
}

func (h *ViewHandler) Users(w http.ResponseWriter, r *http.Request) {
	serveView(w, r, func(c *console.Console) (console.UsersView, error) {
		return c.Users(r.Context())
	})
}
