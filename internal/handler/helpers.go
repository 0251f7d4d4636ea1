package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/parisxmas/central-admin/internal/alert"
	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/console"
	"github.com/parisxmas/central-admin/internal/requestdata"
	"github.com/parisxmas/central-admin/internal/session"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: encode response: %v", err)
	}
}

func writeProblem(w http.ResponseWriter, status int, code float64, message string) {
	writeJSON(w, status, central.Problem{Code: code, Message: message})
}

// writeError maps err to a Problem response.
func writeError(w http.ResponseWriter, err error) {
	var (
		pe *central.ProblemError
		se *central.StatusError
		te *central.TransportError
		ve *central.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, 400.1, ve.Msg)
	case errors.Is(err, requestdata.ErrStale):
		writeProblem(w, http.StatusConflict, 409.1, "The request was superseded by a newer one.")
	case errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusConflict, 409.2, "The request was canceled.")
	case errors.As(err, &pe):
		writeJSON(w, pe.Status, pe.Problem)
	case errors.As(err, &se):
		writeProblem(w, se.Status, float64(se.Status), central.AlertMessage(err, nil))
	case errors.As(err, &te):
		writeProblem(w, http.StatusBadGateway, 502.1, central.AlertMessage(err, nil))
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrExpired):
		writeProblem(w, http.StatusUnauthorized, 401.2, "Please log in.")
	case errors.Is(err, requestdata.ErrNotRequested):
		writeProblem(w, http.StatusNotFound, 404.1, "Nothing has been requested for that resource.")
	default:
		log.Printf("Warning: unhandled error: %v", err)
		writeProblem(w, http.StatusInternalServerError, 500.1, "Internal Server Error")
	}
}

// Unauthorized answers requests that carry no usable console cookie.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, http.StatusUnauthorized, 401.2, "Please log in.")
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		return 0, &central.ValidationError{Msg: fmt.Sprintf("Invalid %s.", name)}
	}
	return n, nil
}

// snapshot is the wire form of a request snapshot.
type snapshot struct {
	requestdata.Snapshot
	DataExists bool   `json:"dataExists"`
	Error      string `json:"error,omitempty"`
}

func snapshotsOf(c *console.Console) []snapshot {
	snaps := c.Data.Snapshots()
	out := make([]snapshot, 0, len(snaps))
	for _, s := range snaps {
		ws := snapshot{Snapshot: s, DataExists: s.DataExists()}
		if s.Err != nil {
			ws.Error = central.AlertMessage(s.Err, nil)
		}
		out = append(out, ws)
	}
	return out
}

// envelope wraps every console response with the request states and the
// current alert.
type envelope struct {
	Data     any          `json:"data,omitempty"`
	Requests []snapshot   `json:"requests"`
	Alert    *alert.Alert `json:"alert,omitempty"`
}

func writeConsole(w http.ResponseWriter, c *console.Console, status int, data any) {
	env := envelope{Data: data, Requests: snapshotsOf(c)}
	if a, ok := c.Banner.Current(); ok {
		env.Alert = &a
	}
	writeJSON(w, status, env)
}
