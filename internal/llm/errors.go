package llm

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a completion failure. The pipeline maps kinds to task
// outcomes: Auth aborts the run, RateLimit fails the task without retry,
// Timeout and Transient degrade to a soft failure.
type Kind int

const (
	KindOther Kind = iota
	KindAuth
	KindRateLimit
	KindTimeout
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindTimeout:
		return "timeout"
	case KindTransient:
		return "transient"
	default:
		return "other"
	}
}

// Error wraps a provider failure with its classified kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrap builds a classified error.
func wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classified kind of err. Context deadline expiry counts
// as a timeout even when the provider SDK did not classify it.
func KindOf(err error) Kind {
	if err == nil {
		return KindOther
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}
