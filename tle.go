package deorbit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// OrbitFromTLE returns the circular orbit equivalent to a two line element set at the provided date:
// the altitude is the one of the osculating semi major axis and the inclination is the one of the
// osculating angular momentum. The step is left to the caller.
func OrbitFromTLE(line1, line2 string, date time.Time, c Constants) (orbit Orbit, err error) {
	if err = validateTLELines(line1, line2); err != nil {
		return Orbit{}, &ConfigurationError{Field: "orbit.tle", Reason: err.Error()}
	}
	defer func() {
		if r := recover(); r != nil {
			orbit, err = Orbit{}, &ConfigurationError{Field: "orbit.tle", Reason: fmt.Sprintf("sgp4 failed: %v", r)}
		}
	}()
	sat := satellite.TLEToSat(strings.TrimSpace(line1), strings.TrimSpace(line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return Orbit{}, &ConfigurationError{Field: "orbit.tle", Reason: fmt.Sprintf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)}
	}
	date = date.UTC()
	pos, vel := satellite.Propagate(sat, date.Year(), int(date.Month()), date.Day(), date.Hour(), date.Minute(), date.Second())
	// TEME, km and km/s
	R := []float64{pos.X * 1e3, pos.Y * 1e3, pos.Z * 1e3}
	V := []float64{vel.X * 1e3, vel.Y * 1e3, vel.Z * 1e3}
	if !isFinite(append(R, V...)...) {
		return Orbit{}, &LookupRangeError{Source: "tle", Key: fmt.Sprintf("sgp4 propagation to %s is not finite", date.Format(time.RFC3339))}
	}
	r := norm(R)
	v := norm(V)
	sma := 1 / (2/r - v*v/c.Mu)
	if !(sma > 0) {
		return Orbit{}, &ConfigurationError{Field: "orbit.tle", Reason: "hyperbolic orbit"}
	}
	H := cross(R, V)
	inc := math.Acos(H[2]/norm(H)) * rad2deg
	return Orbit{Altitude: sma - c.PlanetRadius, Inclination: inc, Start: date}, nil
}

// tleField is a numeric field of a TLE line, at the columns go-satellite parses it from.
type tleField struct {
	name    string
	parse   func(line string) string
	integer bool
}

func tleColumns(from, to int) func(string) string {
	return func(line string) string { return strings.Replace(line[from:to], " ", "", 2) }
}

var (
	tleLine1Fields = []tleField{
		{"satellite number", func(l string) string { return strings.TrimSpace(l[2:7]) }, true},
		{"epoch year", func(l string) string { return l[18:20] }, true},
		{"epoch day", func(l string) string { return l[20:32] }, false},
		{"first derivative of mean motion", tleColumns(33, 43), false},
		{"second derivative of mean motion", func(l string) string { return strings.Replace(l[44:45]+"."+l[45:50]+"e"+l[50:52], " ", "", 2) }, false},
		{"bstar", func(l string) string { return strings.Replace(l[53:54]+"."+l[54:59]+"e"+l[59:61], " ", "", 2) }, false},
	}
	tleLine2Fields = []tleField{
		{"inclination", tleColumns(8, 16), false},
		{"right ascension of the ascending node", tleColumns(17, 25), false},
		{"eccentricity", func(l string) string { return "." + l[26:33] }, false},
		{"argument of perigee", tleColumns(34, 42), false},
		{"mean anomaly", tleColumns(43, 51), false},
		{"mean motion", tleColumns(52, 63), false},
	}
)

// parseTLEFields returns the values of the fields of a line, in order.
func parseTLEFields(name, line string, fields []tleField) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		raw := f.parse(line)
		var err error
		if f.integer {
			var n int64
			n, err = strconv.ParseInt(raw, 10, 0)
			vals[i] = float64(n)
		} else {
			vals[i], err = strconv.ParseFloat(raw, 64)
		}
		if err != nil || !isFinite(vals[i]) {
			return nil, fmt.Errorf("%s: invalid %s %q", name, f.name, raw)
		}
	}
	return vals, nil
}

// tleChecksum returns the modulo 10 checksum of the first 68 columns of a line: digits count for
// their value and minus signs for one.
func tleChecksum(line string) int {
	sum := 0
	for i := 0; i < 68; i++ {
		switch c := line[i]; {
		case '0' <= c && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// validateTLELines checks every field go-satellite reads, since it exits the process on a field it
// cannot parse, and the range of the values it would index or divide with.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	for i, line := range []string{line1, line2} {
		name := fmt.Sprintf("line%d", i+1)
		if len(line) != 69 {
			return fmt.Errorf("%s length %d, expected 69", name, len(line))
		}
		if line[0] != byte('1'+i) {
			return fmt.Errorf("%s must start with '%d', got '%c'", name, i+1, line[0])
		}
		if sum := tleChecksum(line); int(line[68])-'0' != sum {
			return fmt.Errorf("%s checksum %c, expected %d", name, line[68], sum)
		}
	}
	vals1, err := parseTLEFields("line1", line1, tleLine1Fields)
	if err != nil {
		return err
	}
	vals2, err := parseTLEFields("line2", line2, tleLine2Fields)
	if err != nil {
		return err
	}
	if day := vals1[2]; day < 1 || day >= 367 {
		return fmt.Errorf("line1: epoch day %g outside [1, 367)", day)
	}
	if inc := vals2[0]; inc < 0 || inc > 180 {
		return fmt.Errorf("line2: inclination %g° outside [0, 180]", inc)
	}
	if n := vals2[5]; !(n > 0) {
		return fmt.Errorf("line2: mean motion %g rev/day is not positive", n)
	}
	return nil
}
