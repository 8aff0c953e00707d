package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel error kinds. Classified errors unwrap to exactly one of these,
// so callers match with errors.Is.
var (
	// ErrNetwork indicates the backend could not be reached
	ErrNetwork = errors.New("network error")

	// ErrAuth indicates the backend rejected the credentials
	ErrAuth = errors.New("authentication failed")

	// ErrSessionExpired indicates the refresh token is no longer usable
	ErrSessionExpired = errors.New("session expired")

	// ErrValidation indicates invalid input or a malformed payload
	ErrValidation = errors.New("invalid data")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrServer indicates a backend failure (5xx)
	ErrServer = errors.New("server error")

	// ErrUnexpected covers any other non-success response
	ErrUnexpected = errors.New("unexpected response")
)

// User-facing messages per error kind
const (
	msgNetwork    = "Connection error. Check your internet connection."
	msgAuth       = "Invalid credentials."
	msgExpired    = "Your session has expired. Please sign in again."
	msgValidation = "Invalid data. Check the fields."
	msgNotFound   = "The requested resource was not found."
	msgServer     = "Server error. Try again later."
	msgUnexpected = "Unexpected error."
	msgStorage    = "Could not save session data on this device."
)

// Error is a classified error surfaced to callers of the client core
type Error struct {
	Kind    error               // One of the sentinel kinds above
	Status  int                 // HTTP status (0 for transport failures)
	Message string              // Human-readable message
	Fields  map[string][]string // Field-level validation messages, if any
	Err     error               // Underlying cause
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StatusError is implemented by transport errors that carry an HTTP status
// and the raw error body. Status 0 means no response was received.
type StatusError interface {
	error
	StatusCode() int
	ResponseBody() []byte
}

// NewValidationError builds a validation error for a malformed payload
func NewValidationError(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: ErrValidation, Message: msg, Err: errors.New(msg)}
}

// NewStorageError wraps a local persistence failure
func NewStorageError(err error) *Error {
	return &Error{Kind: ErrUnexpected, Message: msgStorage, Err: err}
}

// SessionExpired wraps the failure of a token refresh
func SessionExpired(cause error) *Error {
	status := 0
	var se StatusError
	if errors.As(cause, &se) {
		status = se.StatusCode()
	}
	return &Error{Kind: ErrSessionExpired, Status: status, Message: msgExpired, Err: cause}
}

// Classify maps a raw error into the client error taxonomy.
// Already classified errors are returned unchanged; nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return err
	}

	var se StatusError
	if !errors.As(err, &se) {
		// Context cancellation and the like: nothing reached the server
		return &Error{Kind: ErrNetwork, Message: msgNetwork, Err: err}
	}

	status := se.StatusCode()
	out := &Error{Status: status, Err: err}

	switch {
	case status == 0:
		out.Kind, out.Message = ErrNetwork, msgNetwork
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		out.Kind, out.Message = ErrAuth, msgAuth
		if msg := backendMessage(se.ResponseBody()); msg != "" {
			out.Message = msg
		}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		out.Kind = ErrValidation
		out.Message, out.Fields = validationDetails(se.ResponseBody())
	case status == http.StatusNotFound:
		out.Kind, out.Message = ErrNotFound, msgNotFound
	case status >= 500:
		out.Kind, out.Message = ErrServer, msgServer
	default:
		out.Kind, out.Message = ErrUnexpected, msgUnexpected
	}

	return out
}

// backendMessage extracts a top-level "error" or "detail" string
func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail"} {
		var s string
		if raw, ok := payload[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// validationDetails builds the message and field map for a 400 response.
// Priority: "error"/"detail" string, then field lists (email and password
// first, remaining fields alphabetically), then the generic message.
func validationDetails(body []byte) (string, map[string][]string) {
	if msg := backendMessage(body); msg != "" {
		return msg, nil
	}

	var payload map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return msgValidation, nil
	}

	fields := make(map[string][]string)
	for key, raw := range payload {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			fields[key] = list
			continue
		}
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			fields[key] = []string{single}
		}
	}
	if len(fields) == 0 {
		return msgValidation, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := fieldPriority(keys[i]), fieldPriority(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	first := keys[0]
	return fmt.Sprintf("%s: %s", fieldLabel(first), fields[first][0]), fields
}

func fieldPriority(field string) int {
	switch field {
	case "email":
		return 0
	case "password":
		return 1
	default:
		return 2
	}
}

func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
