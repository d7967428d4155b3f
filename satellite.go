package deorbit

import (
	"fmt"
	"math"
)

// DefaultDragCoefficient is the dimensionless drag coefficient used when none is provided.
const DefaultDragCoefficient = 2.0

// Position is a spherical position [R, Theta, Phi]: R in meters, Theta the elevation from the
// equatorial plane and Phi the azimuth, both in radians. Positions are values: a satellite
// replaces its position wholesale, it never mutates it.
type Position struct {
	R, Theta, Phi float64
}

// LatitudeDeg returns the elevation angle in degrees.
func (p Position) LatitudeDeg() float64 { return p.Theta * rad2deg }

// LongitudeDeg returns the azimuth angle in degrees.
func (p Position) LongitudeDeg() float64 { return p.Phi * rad2deg }

// Altitude returns the altitude above the provided reference radius.
func (p Position) Altitude(planetRadius float64) float64 { return p.R - planetRadius }

// String implements the Stringer interface.
func (p Position) String() string {
	return fmt.Sprintf("r=%.3f m θ=%.4f° φ=%.4f°", p.R, p.LatitudeDeg(), p.LongitudeDeg())
}

// MagneticSatellite defines a satellite which may carry an electrodynamic tether brake.
type MagneticSatellite struct {
	Mass        float64 // kg
	Cx          float64 // drag coefficient
	DragSurface float64 // m^2
	Cable       *Cable  // nil when the satellite has no tether brake
	position    Position
	heading     float64 // angle between the velocity and the local north, in radians
}

// NewMagneticSatellite returns a new satellite. The cable may be nil.
func NewMagneticSatellite(mass, dragSurface, cx float64, cable *Cable) (*MagneticSatellite, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, &ConfigurationError{Field: "satellite.mass", Reason: fmt.Sprintf("must be positive, got %g", mass)}
	}
	if dragSurface < 0 || math.IsNaN(dragSurface) {
		return nil, &ConfigurationError{Field: "satellite.drag_surface", Reason: fmt.Sprintf("may not be negative, got %g", dragSurface)}
	}
	if cx < 0 || math.IsNaN(cx) {
		return nil, &ConfigurationError{Field: "satellite.cx", Reason: fmt.Sprintf("may not be negative, got %g", cx)}
	}
	return &MagneticSatellite{Mass: mass, Cx: cx, DragSurface: dragSurface, Cable: cable}, nil
}

// Position returns the current position of the satellite.
func (s *MagneticSatellite) Position() Position {
	return s.position
}

// Heading returns the angle between the velocity and the local north computed by the last UpdateState.
func (s *MagneticSatellite) Heading() float64 {
	return s.heading
}

// WithPosition replaces the position of the satellite.
func (s *MagneticSatellite) WithPosition(p Position) {
	s.position = p
}

// WithRadius replaces the position of the satellite by one at the same angles and the provided radius.
func (s *MagneticSatellite) WithRadius(r float64) {
	s.position = Position{R: r, Theta: s.position.Theta, Phi: s.position.Phi}
}

// HasTether returns whether this satellite carries a tether brake.
func (s *MagneticSatellite) HasTether() bool {
	return s.Cable != nil
}

// Drag returns the atmospheric drag force (N) for the provided air density and velocity.
func (s *MagneticSatellite) Drag(density, velocity float64) float64 {
	return 0.5 * density * s.DragSurface * velocity * velocity * s.Cx
}

// LorentzForce returns the electrodynamic force (N) exerted on the tether for a tangential field bt (T),
// a velocity (m/s) and a control resistance (Ω) placed in series with the cable.
// The force is negative, i.e. it opposes a prograde velocity.
func (s *MagneticSatellite) LorentzForce(bt, velocity, controlResistance float64) (float64, error) {
	if s.Cable == nil {
		return 0, nil
	}
	resistance := s.Cable.resistance + controlResistance
	if !(resistance > 0) {
		return 0, &ConfigurationError{Field: "tether.control_resistance", Reason: fmt.Sprintf("total circuit resistance must be positive, got %g Ω", resistance)}
	}
	L := s.Cable.length
	return -(L * L * bt * bt * velocity * math.Cos(s.Cable.inclination)) / resistance, nil
}

// UpdateState moves the satellite to the angle equatorAngle (radians) of an orbit inclined by
// inclination (degrees), at its current radius, and updates its heading.
// NOTE: the heading is atan2(Δφ, Δθ) between the previous and the new position. This is an
// approximation of the ground track direction and does not account for the φ wrap around ±π.
func (s *MagneticSatellite) UpdateState(equatorAngle, inclination float64) {
	old := s.position
	sph := InclinedPosition(old.R, equatorAngle, inclination*deg2rad)
	s.position = Position{R: sph[0], Theta: sph[1], Phi: sph[2]}
	s.heading = math.Atan2(s.position.Phi-old.Phi, s.position.Theta-old.Theta)
}

// MassBudget summarizes the masses and resistance of a tethered satellite.
type MassBudget struct {
	Resistance        float64 // Ω
	SectionMM2        float64 // mm²
	TotalMass         float64 // kg
	CableMass         float64 // kg
	CableBallastMass  float64 // kg, cable and deployment system
	PercentageOfTotal float64 // %
}

// String implements the Stringer interface.
func (b MassBudget) String() string {
	return fmt.Sprintf("R=%.1f Ω section=%.2f mm^2 total=%.0f kg cable=%.2f kg cable+ballast=%.2f kg (%.2f%%)", b.Resistance, b.SectionMM2, b.TotalMass, b.CableMass, b.CableBallastMass, b.PercentageOfTotal)
}

// MassBudget returns the mass budget of the satellite. Without a tether, only the total mass is set.
func (s *MagneticSatellite) MassBudget() MassBudget {
	b := MassBudget{TotalMass: s.Mass}
	if s.Cable == nil {
		return b
	}
	b.Resistance = s.Cable.resistance
	b.SectionMM2 = s.Cable.section / mm2ToM2
	b.CableMass = s.Cable.mass
	b.CableBallastMass = s.Cable.mass + s.Cable.ballastMass
	b.PercentageOfTotal = b.CableBallastMass / s.Mass * 100
	return b
}

// String implements the Stringer interface.
func (s *MagneticSatellite) String() string {
	tether := "no tether"
	if s.Cable != nil {
		tether = s.Cable.String()
	}
	return fmt.Sprintf("satellite m=%.1f kg S=%.2f m^2 Cx=%.2f %s @ %s", s.Mass, s.DragSurface, s.Cx, tether, s.position)
}
