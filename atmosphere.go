package deorbit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Atmosphere returns the air density (kg/m^3) of a 1 km altitude band, where band is
// floor(altitude in meters / 1000).
type Atmosphere interface {
	Density(band int) (float64, error)
}

// DensityTable is a precomputed Atmosphere: Values[i] is the density of band Base+i.
type DensityTable struct {
	Base   int
	Values []float64
}

// Density implements the Atmosphere interface.
func (t DensityTable) Density(band int) (float64, error) {
	idx := band - t.Base
	if idx < 0 || idx >= len(t.Values) {
		return 0, &LookupRangeError{Source: "atmosphere", Key: fmt.Sprintf("band %d km outside [%d, %d] km", band, t.Base, t.Top())}
	}
	return t.Values[idx], nil
}

// Top returns the highest band of this table.
func (t DensityTable) Top() int {
	return t.Base + len(t.Values) - 1
}

// Covers returns whether every band between the provided altitudes (in meters) is defined.
func (t DensityTable) Covers(lowAltitude, highAltitude float64) bool {
	low := int(math.Floor(lowAltitude / 1000))
	high := int(math.Floor(highAltitude / 1000))
	return low >= t.Base && high <= t.Top()
}

// exponentialLayer is a layer of the exponential atmosphere model (Vallado, table 8-4).
type exponentialLayer struct {
	base        float64 // km
	density     float64 // kg/m^3
	scaleHeight float64 // km
}

var exponentialLayers = []exponentialLayer{
	{0, 1.225, 7.249},
	{25, 3.899e-2, 6.349},
	{30, 1.774e-2, 6.682},
	{40, 3.972e-3, 7.554},
	{50, 1.057e-3, 8.382},
	{60, 3.206e-4, 7.714},
	{70, 8.770e-5, 6.549},
	{80, 1.905e-5, 5.799},
	{90, 3.396e-6, 5.382},
	{100, 5.297e-7, 5.877},
	{110, 9.661e-8, 7.263},
	{120, 2.438e-8, 9.473},
	{130, 8.484e-9, 12.636},
	{140, 3.845e-9, 16.149},
	{150, 2.070e-9, 22.523},
	{180, 5.464e-10, 29.740},
	{200, 2.789e-10, 37.105},
	{250, 7.248e-11, 45.546},
	{300, 2.418e-11, 53.628},
	{350, 9.518e-12, 53.298},
	{400, 3.725e-12, 58.515},
	{450, 1.585e-12, 60.828},
	{500, 6.967e-13, 63.822},
	{600, 1.454e-13, 71.835},
	{700, 3.614e-14, 88.667},
	{800, 1.170e-14, 124.64},
	{900, 5.245e-15, 181.05},
	{1000, 3.019e-15, 268.00},
}

// ExponentialDensity returns the density (kg/m^3) of the exponential atmosphere at the provided altitude (km).
func ExponentialDensity(altitudeKm float64) float64 {
	if altitudeKm < 0 {
		altitudeKm = 0
	}
	layer := exponentialLayers[0]
	for _, l := range exponentialLayers {
		if altitudeKm < l.base {
			break
		}
		layer = l
	}
	return layer.density * math.Exp(-(altitudeKm-layer.base)/layer.scaleHeight)
}

// MaxExponentialAltitudeKm is the highest top accepted for the exponential model in a scenario.
const MaxExponentialAltitudeKm = 36000

// NewExponentialAtmosphere returns a density table from the ground up to maxKm (included),
// sampled at the bottom of each 1 km band.
func NewExponentialAtmosphere(maxKm int) DensityTable {
	if maxKm < 0 {
		maxKm = 0
	}
	values := make([]float64, maxKm+1)
	for i := range values {
		values[i] = ExponentialDensity(float64(i))
	}
	return DensityTable{Base: 0, Values: values}
}

// ReadDensityTable reads a delimited "altitude_km<comma>density" table. Lines starting with '#' are
// ignored, as is a first non numerical line (header). Altitudes must be consecutive integers.
func ReadDensityTable(r io.Reader, comma rune) (DensityTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	table := DensityTable{}
	for first := true; ; first = false {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DensityTable{}, fmt.Errorf("reading density table: %w", err)
		}
		line, _ := reader.FieldPos(0)
		band, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if first {
				continue // header
			}
			return DensityTable{}, fmt.Errorf("density table line %d: invalid altitude %q: %w", line, record[0], err)
		}
		density, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return DensityTable{}, fmt.Errorf("density table line %d: invalid density %q: %w", line, record[1], err)
		}
		if density < 0 {
			return DensityTable{}, &ConfigurationError{Field: "atmosphere.table", Reason: fmt.Sprintf("negative density at %d km", band)}
		}
		if len(table.Values) == 0 {
			table.Base = band
		} else if band != table.Top()+1 {
			return DensityTable{}, &ConfigurationError{Field: "atmosphere.table", Reason: fmt.Sprintf("altitude %d km does not follow %d km", band, table.Top())}
		}
		table.Values = append(table.Values, density)
	}
	if len(table.Values) == 0 {
		return DensityTable{}, &ConfigurationError{Field: "atmosphere.table", Reason: "empty density table"}
	}
	return table, nil
}

// LoadDensityTable reads a density table from a file; ".csv" files are comma delimited, others use ';'.
func LoadDensityTable(filename string) (DensityTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return DensityTable{}, err
	}
	defer f.Close()
	comma := ';'
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		comma = ','
	}
	return ReadDensityTable(f, comma)
}
