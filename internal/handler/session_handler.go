package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/parisxmas/central-admin/internal/auth"
	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/console"
	"github.com/parisxmas/central-admin/internal/presenter"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/resources"
	"github.com/parisxmas/central-admin/internal/session"
)

type SessionHandler struct {
	consoles *console.Registry
	secret   string
	ttl      time.Duration
	secure   bool
}

// NewSessionHandler returns the login handlers. Cookies live for ttl and are
// marked Secure when secure is set.
func NewSessionHandler(consoles *console.Registry, secret string, ttl time.Duration, secure bool) *SessionHandler {
	return &SessionHandler{consoles: consoles, secret: secret, ttl: ttl, secure: secure}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, 400.1, "Could not parse the request body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeProblem(w, http.StatusBadRequest, 400.3, "Email address and password are required.")
		return
	}

	c, existing := auth.Resolve(r, h.secret, h.consoles)
	if !existing {
		var err error
		if c, err = h.consoles.Create(); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := c.Login(r.Context(), req.Email, req.Password); err != nil {
		if !existing {
			h.consoles.Remove(c.ID)
		}
		writeLoginError(w, err)
		return
	}
	user, _ := requestdata.Data[presenter.User](c.Data, resources.CurrentUser)
	token, err := auth.GenerateToken(h.secret, c.ID, user.ID, h.ttl)
	if err != nil {
		writeError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeConsole(w, c, http.StatusOK, user)
}

func writeLoginError(w http.ResponseWriter, err error) {
	var pe *central.ProblemError
	if errors.As(err, &pe) {
		writeProblem(w, pe.Status, pe.Problem.Code, central.AlertMessage(err, session.LoginProblemToAlert))
		return
	}
	writeError(w, err)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	if err := c.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.consoles.Remove(c.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeConsole(w, c, http.StatusOK, nil)
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	s, ok := c.Session.Session()
	if !ok {
		Unauthorized(w, r)
		return
	}
	user, _ := requestdata.Data[presenter.User](c.Data, resources.CurrentUser)
	writeConsole(w, c, http.StatusOK, map[string]any{
		"user":      user,
		"expiresAt": s.ExpiresAt,
	})
}
