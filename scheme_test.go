package deorbit

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestSteppersZeroForce(t *testing.T) {
	mu := EarthConstants.Mu
	r := EarthConstants.PlanetRadius + 400e3
	v := EarthConstants.KeplerVelocity(r)
	for _, stepper := range []Stepper{Energetic{}, Dynamics{}} {
		rNext, vNext, err := stepper.Advance(r, v, 0, 1000, 60, mu)
		if err != nil {
			t.Fatalf("%s: %s", stepper.Approach(), err)
		}
		if !scalar.EqualWithinRel(rNext, r, 1e-14) || !scalar.EqualWithinRel(vNext, v, 1e-14) {
			t.Fatalf("%s: zero force changed the orbit: r=%f (%f) v=%f (%f)", stepper.Approach(), rNext, r, vNext, v)
		}
	}
	// The energetic step is exact on the radius.
	if rNext, _, _ := (Energetic{}).Advance(r, v, 0, 1000, 60, mu); rNext != r {
		t.Fatalf("energetic step with no force: %f != %f", rNext, r)
	}
	// The PFD step is exact on the velocity.
	if _, vNext, _ := (Dynamics{}).Advance(r, v, 0, 1000, 60, mu); vNext != v {
		t.Fatalf("PFD step with no force: %f != %f", vNext, v)
	}
}

func TestSteppersBraking(t *testing.T) {
	mu := EarthConstants.Mu
	r := EarthConstants.PlanetRadius + 200e3
	v := EarthConstants.KeplerVelocity(r)
	for _, stepper := range []Stepper{Energetic{}, Dynamics{}} {
		rNext, vNext, err := stepper.Advance(r, v, 10, 1000, 300, mu)
		if err != nil {
			t.Fatalf("%s: %s", stepper.Approach(), err)
		}
		if rNext >= r {
			t.Fatalf("%s: a braking force did not lower the orbit", stepper.Approach())
		}
		if vNext <= v {
			t.Fatalf("%s: a lower circular orbit should be faster", stepper.Approach())
		}
		if !scalar.EqualWithinRel(vNext, EarthConstants.KeplerVelocity(rNext), 1e-12) {
			t.Fatalf("%s: the orbit is not circular anymore", stepper.Approach())
		}
	}
}

func TestEnergeticHeun(t *testing.T) {
	mu := EarthConstants.Mu
	r, v, f, m, dt := 6.6e6, 7700.0, 5.0, 800.0, 100.0
	k1 := -2 / (mu * m) * r * r * f * v
	r1 := r + k1*dt
	k2 := -2 / (mu * m) * r1 * r1 * f * v
	rNext, _, _ := Energetic{}.Advance(r, v, f, m, dt, mu)
	if !scalar.EqualWithinRel(rNext, r+(k1+k2)*dt/2, 1e-15) {
		t.Fatalf("r' = %f, expected %f", rNext, r+(k1+k2)*dt/2)
	}
}

func TestDynamicsNonPositiveVelocity(t *testing.T) {
	_, _, err := Dynamics{}.Advance(6.6e6, 7700, -1e9, 1000, 300, EarthConstants.Mu)
	if !errors.Is(err, ErrNonPositiveVelocity) {
		t.Fatalf("expected ErrNonPositiveVelocity, got %v", err)
	}
}

func TestApproachFromString(t *testing.T) {
	testValues := []struct {
		name string
		exp  Approach
	}{
		{"energetic", EnergeticApproach},
		{"energetique", EnergeticApproach},
		{"Energy", EnergeticApproach},
		{"pfd", DynamicsApproach},
		{"PFD", DynamicsApproach},
		{"dynamics", DynamicsApproach},
	}
	for _, tv := range testValues {
		a, err := ApproachFromString(tv.name)
		if err != nil || a != tv.exp {
			t.Fatalf("%s: got %v (%v), expected %s", tv.name, a, err, tv.exp)
		}
		if a.Stepper().Approach() != a {
			t.Fatalf("%s: stepper of another approach", a)
		}
	}
	_, err := ApproachFromString("lagrangian")
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("unknown approach: expected a ConfigurationError, got %v", err)
	}
}
