package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amirasaad/payconsole/pkg/domain"
)

// ErrTransport wraps failures that happened before a response was received.
var ErrTransport = errors.New("backend unreachable")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	// Message is the backend's "message" field, the only text shown to
	// users.
	Message string
	// Reason is the "error" field, often just the status phrase. It only
	// goes into Error and the logs.
	Reason string
	Body   []byte
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	case e.Reason != "":
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is maps status codes onto the domain sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case domain.ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// Message returns the backend message carried by err, or fallback when err
// is not an APIError or the backend sent no message.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = rawText(payload["message"])
		e.Reason = rawText(payload["error"])
	}
	return e
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}
