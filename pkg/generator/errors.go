package generator

import (
	"errors"
	"fmt"

	"GoJitterRNG/pkg/health"
)

// Kind classifies generator errors.
type Kind int

const (
	// KindConstruction: warm-up never reached the cold-test threshold.
	// Treat repeated occurrences as "this host is unsuitable".
	KindConstruction Kind = iota + 1
	// KindHealth: the health monitor failed; discard the generator.
	KindHealth
	// KindBuffer: the caller passed an unusable buffer.
	KindBuffer
)

func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "construction failure"
	case KindHealth:
		return "health test failure"
	case KindBuffer:
		return "buffer failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is.
var (
	ErrConstruction = errors.New("jitter: construction failed")
	ErrHealthTest   = errors.New("jitter: health test failed")
	ErrBuffer       = errors.New("jitter: invalid output buffer")
)

var errEmptyBuffer = errors.New("zero-length buffer")

// Error is the single error surface of the generator.
type Error struct {
	Kind   Kind
	Reason health.Reason // set for construction and health failures
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != health.ReasonNone {
		return fmt.Sprintf("jitter: %s (%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("jitter: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConstruction:
		return e.Kind == KindConstruction
	case ErrHealthTest:
		return e.Kind == KindHealth
	case ErrBuffer:
		return e.Kind == KindBuffer
	}
	return false
}
