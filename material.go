package deorbit

import (
	"fmt"
	"sort"
	"strings"
)

// Material defines the electrical and mass properties of a tether conductor.
type Material struct {
	Name        string
	Density     float64 // kg/m^3
	Resistivity float64 // Ω·m
}

// String implements the Stringer interface.
func (m Material) String() string {
	return fmt.Sprintf("%s (ρ=%.1f kg/m^3, %.3g Ω·m)", m.Name, m.Density, m.Resistivity)
}

func (m Material) validate() error {
	if !(m.Density > 0) {
		return &ConfigurationError{Field: "material.density", Reason: fmt.Sprintf("must be positive, got %g", m.Density)}
	}
	if !(m.Resistivity > 0) {
		return &ConfigurationError{Field: "material.resistivity", Reason: fmt.Sprintf("must be positive, got %g", m.Resistivity)}
	}
	return nil
}

// MaterialFromString returns the material from its name.
func MaterialFromString(name string) (Material, error) {
	switch strings.ToLower(name) {
	case "aluminium", "aluminum", "alu":
		return Aluminium, nil
	case "copper", "cuivre":
		return Copper, nil
	default:
		return Material{}, &ConfigurationError{Field: "tether.material", Reason: fmt.Sprintf("undefined material '%s'", name)}
	}
}

// Materials returns all the builtin materials sorted by name.
func Materials() []Material {
	all := []Material{Aluminium, Copper}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

/* Definitions */

// Aluminium is the default tether conductor.
var Aluminium = Material{"aluminium", 2700.0, 2.74e-8}

// Copper conducts better but the density is historical: it is kept at 933 kg/m^3 for comparison with previous runs.
var Copper = Material{"copper", 933.0, 1.7e-8}
