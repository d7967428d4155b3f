package deorbit

import "fmt"

// Constants holds the physical constants of a decay run.
// A run never reads process-wide state: pass a Constants value to NewDecay (cf. WithConstants).
type Constants struct {
	Mu              float64 // Gravitational parameter (m^3/s^2)
	PlanetRadius    float64 // Reference surface radius (m)
	ReentryAltitude float64 // Altitude (m) at and below which the satellite is considered re-entered
	PoleOffset      float64 // Magnetic pole offset from the rotation axis (degrees)
	// PowerCeilingFactor scales gamma*L*(mb+mc/4) into the maximum tether braking force.
	PowerCeilingFactor float64
	// FrameRotationPeriod divides the 2*pi*r co-rotation term of the field frame (s).
	// Leaving it at 1 keeps the co-rotation term exactly as 2*pi*r*cos(offset+i).
	FrameRotationPeriod float64
}

// ReentryRadius returns the terminal radius of a decay run.
func (c Constants) ReentryRadius() float64 {
	return c.PlanetRadius + c.ReentryAltitude
}

// KeplerVelocity returns the circular velocity at the provided radius.
func (c Constants) KeplerVelocity(r float64) float64 {
	return vKepler(r, c.Mu)
}

// Gamma returns the gravity gradient μ/r³ at the provided radius.
func (c Constants) Gamma(r float64) float64 {
	return c.Mu / (r * r * r)
}

// Validate returns a ConfigurationError if any constant cannot be used by a decay run.
func (c Constants) Validate() error {
	switch {
	case !(c.Mu > 0):
		return &ConfigurationError{Field: "constants.mu", Reason: fmt.Sprintf("must be positive, got %g", c.Mu)}
	case !(c.PlanetRadius > 0):
		return &ConfigurationError{Field: "constants.planet_radius", Reason: fmt.Sprintf("must be positive, got %g", c.PlanetRadius)}
	case c.ReentryAltitude < 0:
		return &ConfigurationError{Field: "constants.reentry_altitude", Reason: fmt.Sprintf("may not be negative, got %g", c.ReentryAltitude)}
	case !(c.FrameRotationPeriod > 0):
		return &ConfigurationError{Field: "constants.frame_rotation_period", Reason: fmt.Sprintf("must be positive, got %g", c.FrameRotationPeriod)}
	}
	return nil
}

// String implements the Stringer interface.
func (c Constants) String() string {
	return fmt.Sprintf("μ=%g m^3/s^2 R=%.0f m reentry=%.0f m", c.Mu, c.PlanetRadius, c.ReentryAltitude)
}

/* Definitions */

// EarthConstants is home.
var EarthConstants = Constants{
	Mu:                  3.986e14,
	PlanetRadius:        6.371e6,
	ReentryAltitude:     100e3,
	PoleOffset:          11.5,
	PowerCeilingFactor:  -2.31,
	FrameRotationPeriod: 1,
}
