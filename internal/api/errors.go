package api

import (
	"errors"
	"fmt"
)

// Kind tags the failure classes of a backend call. The session controller
// switches on the kind instead of unwrapping per-service error hierarchies.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindTimeout     Kind = "timeout"
	KindNetwork     Kind = "network"
	KindUnavailable Kind = "unavailable" // circuit breaker open
	KindRemote      Kind = "remote"      // backend answered with an error
)

// Error is the single tagged error type for the REST client. Message carries
// the backend's own message verbatim when one was present.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("api: %s: HTTP %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("api: %s", e.Kind)
}

func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsTransient reports whether the failure may succeed on a plain retry,
// e.g. by rescanning.
func IsTransient(err error) bool {
	return hasKind(err, KindTimeout) || hasKind(err, KindNetwork) || hasKind(err, KindUnavailable)
}

func hasKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
