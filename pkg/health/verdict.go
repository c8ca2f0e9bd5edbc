package health

import (
	"errors"
	"fmt"
)

// Status is the coarse classification of the sample stream.
type Status int

const (
	Healthy Status = iota
	Degraded
	Failed
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Reason names the continuous test that failed.
type Reason int

const (
	ReasonNone Reason = iota
	// StuckSensor is raised by the repetition count test.
	StuckSensor
	// LowVariability is raised by the adaptive proportion test.
	LowVariability
)

var (
	ErrStuckSensor    = errors.New("stuck sensor: timing sample repeated too often")
	ErrLowVariability = errors.New("low variability: one timing value dominates the window")
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case StuckSensor:
		return "stuck_sensor"
	case LowVariability:
		return "low_variability"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Err returns the sentinel error for r, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case StuckSensor:
		return ErrStuckSensor
	case LowVariability:
		return ErrLowVariability
	}
	return nil
}

// Verdict is the outcome of observing one sample.
type Verdict struct {
	Pass   bool
	Reason Reason // set when Pass is false
}

// Err returns nil for a passing verdict and the reason's sentinel otherwise.
func (v Verdict) Err() error {
	if v.Pass {
		return nil
	}
	return v.Reason.Err()
}
