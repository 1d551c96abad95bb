package github

import (
	"errors"
	"fmt"
)

// Kind classifies a failed GitHub call
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindRateLimited
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method on failure
type Error struct {
	Kind Kind
	Op   string
	// Status is the HTTP status, zero for transport failures
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("github %s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("github %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) retryable() bool {
	return e.Kind == KindNetwork || e.Status >= 500
}

// KindOf returns the classification of err, KindUnknown for foreign errors
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}
