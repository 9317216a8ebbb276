// Package errs contains the sentinel errors used to classify review sync
// failures across the client, cache, and engine layers.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrOffline indicates there was no connectivity at call time.
	ErrOffline = errors.New("offline")

	// ErrTimeout indicates a remote call exceeded its time bound.
	ErrTimeout = errors.New("timeout")

	// ErrNetwork indicates a remote call could not be dispatched.
	ErrNetwork = errors.New("network error")

	// ErrRemote indicates the remote store reported an application-level error.
	ErrRemote = errors.New("remote error")

	// ErrValidation indicates a review was rejected because of its shape.
	ErrValidation = errors.New("validation error")

	// ErrCache indicates a local store read or write failed.
	ErrCache = errors.New("cache error")
)

// RemoteError carries the message reported by the remote review store.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
	}
	return "remote error: " + e.Message
}

// Unwrap lets errors.Is(err, ErrRemote) match.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// Kind is the classified degradation reason surfaced in sync state.
type Kind string

// Error kinds. KindNone means no error.
const (
	KindNone       Kind = ""
	KindOffline    Kind = "offline"
	KindTimeout    Kind = "timeout"
	KindNetwork    Kind = "network"
	KindRemote     Kind = "remote"
	KindValidation Kind = "validation"
	KindCache      Kind = "cache"
)

// KindOf classifies err. Unknown non-nil errors are treated as network
// failures, since the call could not be completed.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrOffline):
		return KindOffline
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrRemote):
		return KindRemote
	case errors.Is(err, ErrCache):
		return KindCache
	default:
		return KindNetwork
	}
}

// Message returns the remote store's message if err is a RemoteError,
// otherwise err's text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
