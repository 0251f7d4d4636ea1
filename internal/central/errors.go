package central

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Problem is the backend's structured error body.
type Problem struct {
	Code    float64        `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Is reports whether the problem carries the given code, e.g. 404.1.
func (p Problem) Is(code float64) bool {
	return p.Code == code
}

// ProblemError is returned for an HTTP error response whose body is a Problem.
type ProblemError struct {
	Status    int
	Problem   Problem
	RequestID string
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("central: %s (problem %s, status %d)", e.Problem.Message,
		strconv.FormatFloat(e.Problem.Code, 'f', -1, 64), e.Status)
}

// StatusError is returned for an HTTP error response that is not a Problem.
type StatusError struct {
	Status    int
	RequestID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("central: unexpected status %d", e.Status)
}

// TransportError is returned when no response was received at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("central: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is returned before any network I/O when a request is
// rejected client-side.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "central: " + e.Msg
}

// ProblemToAlert maps a Problem to a custom alert message. An empty return
// falls back to the Problem's own message.
type ProblemToAlert func(Problem) string

// AlertMessage returns the user-facing message for an error returned by Do.
func AlertMessage(err error, problemToAlert ProblemToAlert) string {
	var (
		pe *ProblemError
		se *StatusError
		te *TransportError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		if problemToAlert != nil {
			if msg := problemToAlert(pe.Problem); msg != "" {
				return msg
			}
		}
		return pe.Problem.Message
	case errors.As(err, &se):
		return fmt.Sprintf("Something went wrong: error code %d.", se.Status)
	case errors.As(err, &te):
		return "Something went wrong: there was no response to your request."
	case errors.As(err, &ve):
		return ve.Msg
	default:
		return "Something went wrong."
	}
}

// ProblemCode returns the Problem code carried by err, or 0.
func ProblemCode(err error) float64 {
	var pe *ProblemError
	if errors.As(err, &pe) {
		return pe.Problem.Code
	}
	return 0
}

// parseProblem reports whether body is a Problem: a JSON object with a
// numeric code and a string message.
func parseProblem(body []byte) (Problem, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Problem{}, false
	}
	var p Problem
	codeRaw, ok := raw["code"]
	if !ok || string(codeRaw) == "null" || json.Unmarshal(codeRaw, &p.Code) != nil {
		return Problem{}, false
	}
	msgRaw, ok := raw["message"]
	if !ok || string(msgRaw) == "null" || json.Unmarshal(msgRaw, &p.Message) != nil {
		return Problem{}, false
	}
	if detailsRaw, ok := raw["details"]; ok {
		_ = json.Unmarshal(detailsRaw, &p.Details)
	}
	return p, true
}

func errorFor(resp *Response) error {
	if p, ok := parseProblem(resp.Body); ok {
		return &ProblemError{Status: resp.Status, Problem: p, RequestID: resp.RequestID}
	}
	return &StatusError{Status: resp.Status, RequestID: resp.RequestID}
}
