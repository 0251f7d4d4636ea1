package handler

import (
	"net/http"

	"github.com/parisxmas/central-admin/internal/auth"
)

type BackupHandler struct{}

func NewBackupHandler() *BackupHandler {
	return &BackupHandler{}
}

func (h *BackupHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	c := auth.GetConsole(r.Context())
	if err := c.TerminateBackups(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeConsole(w, c, http.StatusOK, nil)
}
