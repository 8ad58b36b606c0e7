package httpd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-git/go-billy/v5"

	"coi-devserver/rootfs"
)

// ErrMalformedRequest marks a request line or header block that cannot be parsed.
var ErrMalformedRequest = errors.New("malformed request")

// StatusError carries the status a request failure should be answered with.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

func statusErrorf(status int, format string, args ...any) error {
	return &StatusError{Status: status, Err: fmt.Errorf(format, args...)}
}

// statusFor maps a request failure onto the response status.
func statusFor(err error) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, rootfs.ErrEscapesRoot), errors.Is(err, billy.ErrCrossedBoundary):
		return http.StatusForbidden
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, rootfs.ErrInvalidName):
		return http.StatusBadRequest
	}
	// Missing, unreadable and anything else the filesystem refuses.
	return http.StatusNotFound
}
