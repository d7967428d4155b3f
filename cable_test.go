package deorbit

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestNewCable(t *testing.T) {
	c, err := NewCable(5000, 10, Aluminium, WithBallast(25))
	if err != nil {
		t.Fatalf("NewCable: %s", err)
	}
	if !scalar.EqualWithinAbs(c.Section(), 1e-5, 1e-15) {
		t.Fatalf("section = %g m², expected 1e-5", c.Section())
	}
	if !scalar.EqualWithinAbs(c.Mass(), 135, 1e-9) {
		t.Fatalf("mass = %f kg, expected 135", c.Mass())
	}
	if !scalar.EqualWithinAbs(c.Resistance(), 13.7, 1e-9) {
		t.Fatalf("resistance = %f Ω, expected 13.7", c.Resistance())
	}
	if !scalar.EqualWithinAbs(c.Inclination(), DefaultTetherInclination*math.Pi/180, 1e-12) {
		t.Fatalf("inclination = %f rad", c.Inclination())
	}
	if c.BallastMass() != 25 || c.ControlResistance() != 0 || c.Length() != 5000 || c.Material() != Aluminium {
		t.Fatalf("unexpected cable %s", c)
	}
}

func TestCableDefaults(t *testing.T) {
	c, err := NewCable(1000, 1, Copper, WithTetherInclination(0), WithControlResistance(5))
	if err != nil {
		t.Fatalf("NewCable: %s", err)
	}
	if c.BallastMass() != DefaultBallastMass {
		t.Fatalf("ballast = %f, expected %f", c.BallastMass(), DefaultBallastMass)
	}
	if c.Inclination() != 0 || c.ControlResistance() != 5 {
		t.Fatalf("options not applied: %s", c)
	}
}

func TestCableResistanceScaling(t *testing.T) {
	ref, _ := NewCable(1000, 10, Aluminium)
	testValues := []struct {
		length, section, ratio float64
	}{
		{2000, 10, 2},
		{500, 10, 0.5},
		{1000, 20, 0.5},
		{1000, 5, 2},
		{3000, 30, 1},
	}
	for _, tv := range testValues {
		c, err := NewCable(tv.length, tv.section, Aluminium)
		if err != nil {
			t.Fatalf("NewCable(%f, %f): %s", tv.length, tv.section, err)
		}
		if !scalar.EqualWithinRel(c.Resistance(), ref.Resistance()*tv.ratio, 1e-12) {
			t.Fatalf("L=%f S=%f: R=%f expected %f", tv.length, tv.section, c.Resistance(), ref.Resistance()*tv.ratio)
		}
	}
}

func TestCableResistanceFloor(t *testing.T) {
	// A resistance which underflows to zero falls back to the floor.
	c, err := NewCable(1e-200, 1e200, Material{"superconductor", 1, 1e-200})
	if err != nil {
		t.Fatalf("NewCable: %s", err)
	}
	if c.Resistance() != resistanceFloor {
		t.Fatalf("resistance = %g, expected the floor", c.Resistance())
	}
}

func TestNewCableInvalid(t *testing.T) {
	testValues := []struct {
		name            string
		length, section float64
		material        Material
		opts            []CableOption
	}{
		{"zero length", 0, 10, Aluminium, nil},
		{"negative length", -1, 10, Aluminium, nil},
		{"NaN length", math.NaN(), 10, Aluminium, nil},
		{"zero section", 1000, 0, Aluminium, nil},
		{"negative section", 1000, -3, Aluminium, nil},
		{"no material", 1000, 10, Material{}, nil},
		{"negative ballast", 1000, 10, Aluminium, []CableOption{WithBallast(-1)}},
		{"negative control resistance", 1000, 10, Aluminium, []CableOption{WithControlResistance(-1)}},
	}
	for _, tv := range testValues {
		_, err := NewCable(tv.length, tv.section, tv.material, tv.opts...)
		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("%s: expected a ConfigurationError, got %v", tv.name, err)
		}
	}
}

func TestMaterialFromString(t *testing.T) {
	testValues := []struct {
		name string
		exp  Material
	}{
		{"aluminium", Aluminium},
		{"Aluminum", Aluminium},
		{"ALU", Aluminium},
		{"copper", Copper},
		{"cuivre", Copper},
	}
	for _, tv := range testValues {
		m, err := MaterialFromString(tv.name)
		if err != nil {
			t.Fatalf("%s: %s", tv.name, err)
		}
		if m != tv.exp {
			t.Fatalf("%s: got %s expected %s", tv.name, m, tv.exp)
		}
	}
	if _, err := MaterialFromString("unobtainium"); err == nil {
		t.Fatal("unknown material did not fail")
	}
	if m := Materials(); len(m) != 2 || m[0].Name != "aluminium" || m[1].Name != "copper" {
		t.Fatalf("unexpected materials %v", m)
	}
}
