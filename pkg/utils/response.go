package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes a status code and a JSON-encoded body.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ErrorKind is the error taxonomy surfaced at the HTTP boundary.
type ErrorKind string

const (
	Unauthorized          ErrorKind = "Unauthorized"
	Forbidden             ErrorKind = "Forbidden"
	NotFound              ErrorKind = "NotFound"
	Validation            ErrorKind = "Validation"
	InvalidTransition     ErrorKind = "InvalidTransition"
	InsufficientRemaining ErrorKind = "InsufficientRemaining"
	Conflict              ErrorKind = "Conflict"
	SyncBusy              ErrorKind = "SyncBusy"
	UpstreamUnavailable   ErrorKind = "UpstreamUnavailable"
	UpstreamMalformed     ErrorKind = "UpstreamMalformed"
	Internal              ErrorKind = "Internal"
)

var statusByKind = map[ErrorKind]int{
	Unauthorized:          http.StatusUnauthorized,
	Forbidden:             http.StatusForbidden,
	NotFound:              http.StatusNotFound,
	Validation:            http.StatusBadRequest,
	InvalidTransition:     http.StatusConflict,
	InsufficientRemaining: http.StatusConflict,
	Conflict:              http.StatusConflict,
	SyncBusy:              http.StatusConflict,
	UpstreamUnavailable:   http.StatusBadGateway,
	UpstreamMalformed:     http.StatusBadGateway,
	Internal:              http.StatusInternalServerError,
}

// APIError is a {code, message, details?} error carrying one of the taxonomy kinds.
type APIError struct {
	Kind    ErrorKind   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func NewErrorWithDetails(kind ErrorKind, message string, details interface{}) *APIError {
	return &APIError{Kind: kind, Message: message, Details: details}
}

// WriteError maps an error to its HTTP status and writes it as JSON. Errors that are
// not *APIError are treated as Internal and their underlying message is not leaked.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = &APIError{Kind: Internal, Message: "internal server error"}
	}
	status, ok := statusByKind[apiErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	JSON(w, status, apiErr)
}
