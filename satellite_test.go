package deorbit

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func literalSatellite(t *testing.T) *MagneticSatellite {
	cable, err := NewCable(5000, 10, Aluminium, WithBallast(25))
	if err != nil {
		t.Fatalf("NewCable: %s", err)
	}
	sat, err := NewMagneticSatellite(1000, 0.5, 2, cable)
	if err != nil {
		t.Fatalf("NewMagneticSatellite: %s", err)
	}
	return sat
}

func TestNewMagneticSatelliteInvalid(t *testing.T) {
	testValues := []struct {
		mass, surface, cx float64
	}{
		{0, 1, 2},
		{-10, 1, 2},
		{math.Inf(1), 1, 2},
		{100, -1, 2},
		{100, 1, -2},
		{100, math.NaN(), 2},
	}
	for _, tv := range testValues {
		_, err := NewMagneticSatellite(tv.mass, tv.surface, tv.cx, nil)
		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("%+v: expected a ConfigurationError, got %v", tv, err)
		}
	}
}

func TestDragMonotonic(t *testing.T) {
	sat := literalSatellite(t)
	prev := -1.0
	for v := 0.0; v < 9000; v += 500 {
		drag := sat.Drag(1e-10, v)
		if drag < prev {
			t.Fatalf("drag decreased with the velocity at %f m/s", v)
		}
		prev = drag
	}
	prev = -1.0
	for _, density := range []float64{0, 1e-15, 1e-12, 1e-10, 1e-8, 1.225} {
		drag := sat.Drag(density, 7800)
		if drag < prev {
			t.Fatalf("drag decreased with the density at %g kg/m^3", density)
		}
		prev = drag
	}
	if drag := sat.Drag(2, 3); !scalar.EqualWithinAbs(drag, 0.5*2*0.5*9*2, 1e-12) {
		t.Fatalf("drag = %f", drag)
	}
}

func TestLorentzForce(t *testing.T) {
	sat := literalSatellite(t)
	bt := 2.5e-5
	v := 7784.0
	exp := -(5000 * 5000 * bt * bt * v * math.Cos(DefaultTetherInclination*deg2rad)) / 13.7
	f, err := sat.LorentzForce(bt, v, 0)
	if err != nil {
		t.Fatalf("LorentzForce: %s", err)
	}
	if !scalar.EqualWithinRel(f, exp, 1e-12) {
		t.Fatalf("F = %f N, expected %f N", f, exp)
	}
	if f >= 0 {
		t.Fatal("the Lorentz force should be braking (negative)")
	}
	// The control resistance is in series.
	fc, _ := sat.LorentzForce(bt, v, 13.7)
	if !scalar.EqualWithinRel(fc, exp/2, 1e-12) {
		t.Fatalf("F = %f N with the control resistance, expected %f N", fc, exp/2)
	}
	if _, err := sat.LorentzForce(bt, v, -20); err == nil {
		t.Fatal("a negative circuit resistance should fail")
	}
	bare, _ := NewMagneticSatellite(1000, 0.5, 2, nil)
	if f, err := bare.LorentzForce(bt, v, 0); err != nil || f != 0 {
		t.Fatalf("no tether: F=%f err=%v", f, err)
	}
}

func TestUpdateState(t *testing.T) {
	sat := literalSatellite(t)
	r := EarthConstants.PlanetRadius + 200e3
	sat.WithPosition(Position{R: r})
	sat.UpdateState(0.1, 0)
	pos := sat.Position()
	if !scalar.EqualWithinRel(pos.R, r, 1e-12) || !scalar.EqualWithinAbs(pos.Theta, 0, 1e-12) || !scalar.EqualWithinAbs(pos.Phi, 0.1, 1e-12) {
		t.Fatalf("equatorial update: %s", pos)
	}
	// Moving east along the equator.
	if !scalar.EqualWithinAbs(sat.Heading(), math.Pi/2, 1e-12) {
		t.Fatalf("heading = %f, expected π/2", sat.Heading())
	}

	before := sat.Position()
	sat.WithRadius(r - 1000)
	if pos := sat.Position(); pos.R != r-1000 || pos.Phi != before.Phi || pos.Theta != before.Theta {
		t.Fatalf("WithRadius changed the angles: %s, was %s", pos, before)
	}

	sat.WithPosition(Position{R: r})
	sat.UpdateState(0.05, 51.6)
	pos = sat.Position()
	if pos.Theta <= 0 || pos.Phi <= 0 {
		t.Fatalf("prograde inclined orbit should go north east: %s", pos)
	}
	if exp := math.Atan2(pos.Phi, pos.Theta); !scalar.EqualWithinAbs(sat.Heading(), exp, 1e-12) {
		t.Fatalf("heading = %f, expected %f", sat.Heading(), exp)
	}
}

func TestMassBudget(t *testing.T) {
	sat := literalSatellite(t)
	b := sat.MassBudget()
	if !scalar.EqualWithinAbs(b.Resistance, 13.7, 1e-9) || !scalar.EqualWithinAbs(b.SectionMM2, 10, 1e-9) {
		t.Fatalf("unexpected budget %s", b)
	}
	if !scalar.EqualWithinAbs(b.CableBallastMass, 160, 1e-9) || !scalar.EqualWithinAbs(b.PercentageOfTotal, 16, 1e-9) {
		t.Fatalf("unexpected budget %s", b)
	}
	bare, _ := NewMagneticSatellite(500, 1, 2, nil)
	if b := bare.MassBudget(); b.TotalMass != 500 || b.CableMass != 0 {
		t.Fatalf("unexpected budget without tether %s", b)
	}
}
