package deorbit

import (
	"fmt"
	"strings"
)

// Approach defines the numerical scheme used to advance the orbit radius and velocity.
type Approach uint8

const (
	// EnergeticApproach integrates the radius from the dissipated power with a Heun (RK2) step.
	EnergeticApproach Approach = iota + 1
	// DynamicsApproach integrates the velocity from the fundamental principle of dynamics (PFD).
	DynamicsApproach
)

func (a Approach) String() string {
	switch a {
	case EnergeticApproach:
		return "energetic"
	case DynamicsApproach:
		return "pfd"
	default:
		panic(fmt.Errorf("unknown approach %d", a))
	}
}

// Stepper returns the stepper implementing this approach.
func (a Approach) Stepper() Stepper {
	switch a {
	case EnergeticApproach:
		return Energetic{}
	case DynamicsApproach:
		return Dynamics{}
	default:
		panic(fmt.Errorf("unknown approach %d", a))
	}
}

// ApproachFromString returns the approach from its name.
func ApproachFromString(name string) (Approach, error) {
	switch strings.ToLower(name) {
	case "energetic", "energetique", "énergétique", "energy":
		return EnergeticApproach, nil
	case "pfd", "dynamics":
		return DynamicsApproach, nil
	default:
		return 0, &ConfigurationError{Field: "approach", Reason: fmt.Sprintf("undefined approach '%s'", name)}
	}
}

// Stepper advances a quasi circular orbit by one time step under a tangential braking force.
// The force is positive when it opposes the velocity.
type Stepper interface {
	Advance(r, v, force, mass, dt, mu float64) (rNext, vNext float64, err error)
	Approach() Approach
}

// Energetic is the energetic approach: dr/dt = -2r²(F·v)/(μm) integrated with Heun's method, the
// velocity being the circular velocity of the new radius.
type Energetic struct{}

func (Energetic) drdt(r, v, force, mass, mu float64) float64 {
	return -2 / (mu * mass) * r * r * (force * v)
}

// Advance implements the Stepper interface.
func (e Energetic) Advance(r, v, force, mass, dt, mu float64) (float64, float64, error) {
	k1 := e.drdt(r, v, force, mass, mu)
	k2 := e.drdt(r+k1*dt, v, force, mass, mu)
	rNext := r + (k1+k2)*dt/2
	if !(rNext > 0) {
		return rNext, 0, ErrNonPositiveRadius
	}
	return rNext, vKepler(rNext, mu), nil
}

// Approach implements the Stepper interface.
func (Energetic) Approach() Approach { return EnergeticApproach }

// Dynamics is the PFD approach: an explicit Euler step on the velocity, the radius being the radius
// of the circular orbit at that velocity.
type Dynamics struct{}

// Advance implements the Stepper interface.
func (Dynamics) Advance(r, v, force, mass, dt, mu float64) (float64, float64, error) {
	vNext := v + force/mass*dt
	if !(vNext > 0) {
		return 0, vNext, ErrNonPositiveVelocity
	}
	return mu / (vNext * vNext), vNext, nil
}

// Approach implements the Stepper interface.
func (Dynamics) Approach() Approach { return DynamicsApproach }
