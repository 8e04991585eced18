package heroclient

import (
	"errors"
	"strconv"
)

// Sentinel kinds for backend failures. They never reach callers of the
// public operations; they are logged and passed to the error hook.
var (
	ErrTransport = errors.New("backend unreachable")
	ErrStatus    = errors.New("backend returned an error status")
	ErrDecode    = errors.New("malformed backend response")
	ErrEncode    = errors.New("cannot encode request body")
)

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "http status " + strconv.Itoa(e.Code)
	}
	return "http status " + strconv.Itoa(e.Code) + ": " + e.Body
}

func (e *StatusError) Unwrap() error { return ErrStatus }
