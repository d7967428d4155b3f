package deorbit

import (
	"errors"
	"fmt"
)

// ErrStepLimit is wrapped by a DivergenceError when a run exceeds its maximum number of steps.
var ErrStepLimit = errors.New("maximum number of integration steps reached")

// ErrHorizon is wrapped by a DivergenceError when the simulated time exceeds the orbit horizon.
var ErrHorizon = errors.New("simulation horizon reached before re-entry")

// ErrNonPositiveVelocity is returned by a Stepper which computed a velocity <= 0.
var ErrNonPositiveVelocity = errors.New("velocity is not positive")

// ErrNonPositiveRadius is returned by a Stepper which computed a radius <= 0.
var ErrNonPositiveRadius = errors.New("radius is not positive")

// ConfigurationError reports a parameter which cannot produce a meaningful run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// DivergenceError reports a run which produced a non physical state.
// Step, Radius and Velocity describe the last state of the run, before the failing step.
type DivergenceError struct {
	Step     uint64
	Radius   float64
	Velocity float64
	Reason   string
	Err      error
}

func (e *DivergenceError) Error() string {
	msg := fmt.Sprintf("numeric divergence at step %d (r=%.3f m, v=%.6f m/s): %s", e.Step, e.Radius, e.Velocity, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DivergenceError) Unwrap() error {
	return e.Err
}

// LookupRangeError reports a lookup outside the domain of an external model.
type LookupRangeError struct {
	Source string // "atmosphere" or "field"
	Key    string
}

func (e *LookupRangeError) Error() string {
	return fmt.Sprintf("%s lookup out of range: %s", e.Source, e.Key)
}
