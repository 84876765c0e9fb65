package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prperemyshlev/pettracker-client/internal/transport"
)

// ErrInvalidResponse is returned when a successful response cannot be used
var ErrInvalidResponse = errors.New("invalid API response")

// Kind classifies failures at the HTTP boundary
type Kind int

const (
	// KindNetwork means no HTTP response was received
	KindNetwork Kind = iota + 1
	// KindStatus means the API answered with a non-2xx status
	KindStatus
	// KindDecode means a 2xx body could not be decoded or was incomplete
	KindDecode
	// KindSession means the session ended while handling the call
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Error is the tagged error returned by every API call.
//
// For KindStatus, Text holds a plain-text body while Code, Message and
// Details come from a JSON error body.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Text    string
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		detail := e.Message
		if detail == "" {
			detail = e.Code
		}
		if detail == "" {
			detail = e.Text
		}
		if detail == "" {
			detail = http.StatusText(e.Status)
		}
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, detail)
	default:
		return fmt.Sprintf("%s %s: %s error: %v", e.Method, e.Path, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of a KindStatus error, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindStatus {
		return apiErr.Status
	}
	return 0
}

// KindOf returns the kind of an *Error in err's chain, or 0
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsSessionEnded reports whether err means the user has to log in again
func IsSessionEnded(err error) bool {
	return KindOf(err) == KindSession || errors.Is(err, transport.ErrSessionExpired)
}

func transportError(method, path string, err error) *Error {
	kind := KindNetwork
	if errors.Is(err, transport.ErrSessionExpired) {
		kind = KindSession
	}
	return &Error{Kind: kind, Method: method, Path: path, Err: err}
}
