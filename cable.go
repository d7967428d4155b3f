package deorbit

import (
	"fmt"
	"math"
)

const (
	// DefaultTetherInclination is the default angle between the tether and the local vertical, in degrees.
	DefaultTetherInclination = 35.26
	// DefaultBallastMass is the default tip mass of the tether, in kilograms.
	DefaultBallastMass = 10.0
	// resistanceFloor replaces a computed resistance of zero. It is a modelling default, not a measurement.
	resistanceFloor = 1.0
	mm2ToM2         = 1e-6
)

// Cable defines an electrodynamic tether. It is immutable once built by NewCable.
type Cable struct {
	length            float64 // m
	section           float64 // m^2
	material          Material
	mass              float64 // kg
	resistance        float64 // Ω
	inclination       float64 // radians
	ballastMass       float64 // kg
	controlResistance float64 // Ω, in series with the cable
}

// CableOption configures optional parameters of a Cable.
type CableOption func(*Cable)

// WithTetherInclination sets the tether inclination in degrees (defaults to DefaultTetherInclination).
func WithTetherInclination(degrees float64) CableOption {
	return func(c *Cable) {
		c.inclination = degrees * deg2rad
	}
}

// WithBallast sets the ballast mass in kilograms (defaults to DefaultBallastMass).
func WithBallast(kg float64) CableOption {
	return func(c *Cable) {
		c.ballastMass = kg
	}
}

// WithControlResistance sets the tunable load placed in series with the cable, in ohms.
func WithControlResistance(ohms float64) CableOption {
	return func(c *Cable) {
		c.controlResistance = ohms
	}
}

// NewCable returns a new tether from its length (m), its cross section (mm²) and its material.
func NewCable(length, sectionMM2 float64, m Material, opts ...CableOption) (*Cable, error) {
	if !(length > 0) || math.IsInf(length, 0) {
		return nil, &ConfigurationError{Field: "tether.length", Reason: fmt.Sprintf("must be positive, got %g", length)}
	}
	if !(sectionMM2 > 0) || math.IsInf(sectionMM2, 0) {
		return nil, &ConfigurationError{Field: "tether.section", Reason: fmt.Sprintf("must be positive, got %g", sectionMM2)}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	c := &Cable{
		length:      length,
		section:     sectionMM2 * mm2ToM2,
		material:    m,
		inclination: DefaultTetherInclination * deg2rad,
		ballastMass: DefaultBallastMass,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ballastMass < 0 {
		return nil, &ConfigurationError{Field: "tether.ballast_mass", Reason: fmt.Sprintf("may not be negative, got %g", c.ballastMass)}
	}
	if c.controlResistance < 0 {
		return nil, &ConfigurationError{Field: "tether.control_resistance", Reason: fmt.Sprintf("may not be negative, got %g", c.controlResistance)}
	}
	c.mass = m.Density * c.length * c.section
	c.resistance = m.Resistivity * c.length / c.section
	if c.resistance == 0 {
		c.resistance = resistanceFloor
	}
	return c, nil
}

// Length returns the length of the tether in meters.
func (c *Cable) Length() float64 { return c.length }

// Section returns the cross section in m².
func (c *Cable) Section() float64 { return c.section }

// Material returns the conductor material.
func (c *Cable) Material() Material { return c.material }

// Mass returns the conductor mass in kilograms (the ballast is not included).
func (c *Cable) Mass() float64 { return c.mass }

// Resistance returns the conductor resistance in ohms. It is always strictly positive.
func (c *Cable) Resistance() float64 { return c.resistance }

// Inclination returns the tether inclination in radians.
func (c *Cable) Inclination() float64 { return c.inclination }

// BallastMass returns the ballast mass in kilograms.
func (c *Cable) BallastMass() float64 { return c.ballastMass }

// ControlResistance returns the series control resistance in ohms.
func (c *Cable) ControlResistance() float64 { return c.controlResistance }

// String implements the Stringer interface.
func (c *Cable) String() string {
	return fmt.Sprintf("tether L=%.0f m S=%.2f mm^2 %s R=%.1f Ω m=%.2f kg", c.length, c.section/mm2ToM2, c.material.Name, c.resistance, c.mass)
}
