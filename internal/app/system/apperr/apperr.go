// Package apperr is the error taxonomy shared by services and handlers.
//
// Services convert collaborator failures into an *Error at their boundary.
// Handlers render any error with WriteJSON, which maps the kind to an HTTP
// status and never exposes wrapped internal errors to the caller.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	Internal Kind = iota
	BadRequest
	InsufficientContent
	NotFound
	Unauthorized
	Forbidden
	Conflict
	TooManyRequests
)

func (k Kind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case InsufficientContent:
		return "insufficient_content"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	case TooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Status returns the HTTP status for the kind.
// InsufficientContent is a BadRequest variant.
func (k Kind) Status() int {
	switch k {
	case BadRequest, InsufficientContent:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Msg is safe to show to callers; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind   Kind
	Reason string // machine-readable reason code, e.g. "insufficient_casts"
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an *Error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// BadRequestf is shorthand for a BadRequest with a formatted message.
func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: BadRequest, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf is shorthand for a NotFound with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

// Insufficient returns an InsufficientContent error with a reason code.
func Insufficient(reason, msg string) *Error {
	return &Error{Kind: InsufficientContent, Reason: reason, Msg: msg}
}

// InternalWrap wraps a collaborator failure as Internal.
func InternalWrap(msg string, err error) *Error {
	return &Error{Kind: Internal, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status"`
}

// WriteJSON writes err as {"error", "status"} with the matching HTTP status.
// Unclassified errors are reported as a generic internal error.
func WriteJSON(w http.ResponseWriter, err error) {
	body := errorBody{Error: "Internal Server Error", Status: http.StatusInternalServerError}
	var e *Error
	if errors.As(err, &e) {
		body.Status = e.Status()
		body.Reason = e.Reason
		if e.Msg != "" && e.Kind != Internal {
			body.Error = e.Msg
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Status)
	_ = json.NewEncoder(w).Encode(body)
}
