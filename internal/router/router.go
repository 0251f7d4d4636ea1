package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/auth"
	"github.com/parisxmas/central-admin/internal/handler"
	mw "github.com/parisxmas/central-admin/internal/middleware"
)

func New(
	cookieSecret string,
	consoles auth.Consoles,
	sessH *handler.SessionHandler,
	viewH *handler.ViewHandler,
	fkH *handler.FieldKeyHandler,
	attH *handler.AttachmentHandler,
	backupH *handler.BackupHandler,
	reqH *handler.RequestHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", sessH.Login)

		// Routes needing a console
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cookieSecret, consoles, handler.Unauthorized))

			r.Post("/logout", sessH.Logout)
			r.Get("/me", sessH.Me)

			// Views
			r.Get("/views/home", viewH.Home)
			r.Get("/views/projects/{projectId}", viewH.Project)
			r.Get("/views/projects/{projectId}/forms/{xmlFormId}", viewH.Form)
			r.Get("/views/projects/{projectId}/forms/{xmlFormId}/draft", viewH.FormDraft)
			r.Get("/views/projects/{projectId}/forms/{xmlFormId}/submissions", viewH.Submissions)
			r.Get("/views/projects/{projectId}/app-users", viewH.FieldKeys)
			r.Get("/views/system/backups", viewH.Backups)
			r.Get("/views/users", viewH.Users)

			// Mutations
			r.Post("/projects/{projectId}/app-users", fkH.Create)
			r.Delete("/projects/{projectId}/app-users/{id}/token", fkH.Revoke)
			r.Post("/projects/{projectId}/forms/{xmlFormId}/attachments/{name}", attH.Upload)
			r.Post("/system/backups/terminate", backupH.Terminate)

			// Request state
			r.Get("/requests", reqH.List)
			r.Post("/requests/{key}/cancel", reqH.Cancel)
			r.Post("/requests/{key}/refresh", reqH.Refresh)
			r.Delete("/alert", reqH.DismissAlert)
		})
	})

	return r
}
