package validation

import (
	"errors"
	"net/http"
)

// Request error kinds. A *RequestError unwraps to one of these.
var (
	ErrRouteNotFound    = errors.New("route not found")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrNotAList         = errors.New("comma-delimited list not allowed")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrMissingRequired  = errors.New("missing required parameters")
	ErrMissingOneOf     = errors.New("missing one-of parameters")
	ErrInternal         = errors.New("internal error")
)

// RequestError is a per-request failure. It is always rendered as the error
// envelope with Status; it never aborts the process.
type RequestError struct {
	Kind    error
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

// NotFound returns the RouteNotFound error.
func NotFound() *RequestError {
	return &RequestError{Kind: ErrRouteNotFound, Status: http.StatusNotFound, Message: "Route not found"}
}

// Internal returns a generic internal error. The message never carries the
// underlying cause.
func Internal() *RequestError {
	return &RequestError{Kind: ErrInternal, Status: http.StatusInternalServerError, Message: "An internal error occurred"}
}

func badRequest(kind error, msg string) *RequestError {
	return &RequestError{Kind: kind, Status: http.StatusBadRequest, Message: msg}
}

// StatusOf returns the HTTP status for err: the RequestError status when err
// is one, 500 otherwise.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) && re.Status != 0 {
		return re.Status
	}
	return http.StatusInternalServerError
}

// Reason returns a short label for err, suitable for a metric label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrRouteNotFound):
		return "route_not_found"
	case errors.Is(err, ErrUnknownParameter):
		return "unknown_parameter"
	case errors.Is(err, ErrNotAList):
		return "not_a_list"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrInvalidEnumValue):
		return "invalid_enum_value"
	case errors.Is(err, ErrMissingRequired):
		return "missing_required"
	case errors.Is(err, ErrMissingOneOf):
		return "missing_one_of"
	default:
		return "internal"
	}
}
