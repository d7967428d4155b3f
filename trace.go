package deorbit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Trace is the time series of a decay run. Time, Radius and Velocity start with the initial state;
// Power and PowerCeiling start at the first step, hence have one entry less.
type Trace struct {
	Time         []float64 // s
	Radius       []float64 // m
	Velocity     []float64 // m/s
	Power        []float64 // W
	PowerCeiling []float64 // W
}

// NewTrace returns a trace starting at the provided state.
func NewTrace(t, r, v float64) *Trace {
	return &Trace{Time: []float64{t}, Radius: []float64{r}, Velocity: []float64{v}}
}

// Append adds one integration step to the trace.
func (t *Trace) Append(clock, r, v, power, ceiling float64) {
	t.Time = append(t.Time, clock)
	t.Radius = append(t.Radius, r)
	t.Velocity = append(t.Velocity, v)
	t.Power = append(t.Power, power)
	t.PowerCeiling = append(t.PowerCeiling, ceiling)
}

// Len returns the number of states in the trace, initial state included.
func (t *Trace) Len() int {
	return len(t.Time)
}

// Altitudes returns the altitude (km) of each state above the provided radius (m).
func (t *Trace) Altitudes(planetRadius float64) []float64 {
	alt := make([]float64, len(t.Radius))
	for i, r := range t.Radius {
		alt[i] = (r - planetRadius) / 1000
	}
	return alt
}

// TraceFormat selects the columns of a persisted trace.
type TraceFormat uint8

const (
	// RadiusColumns writes the time and radius only.
	RadiusColumns TraceFormat = iota + 1
	// FullColumns also writes the velocity and both powers.
	FullColumns
)

const traceComma = ';'

var (
	radiusHeader = []string{"time", "radius"}
	fullHeader   = []string{"time", "radius", "velocity", "power", "power_ceiling"}
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteTrace writes the trace as ';' delimited rows after a header line.
func WriteTrace(w io.Writer, t *Trace, format TraceFormat) error {
	writer := csv.NewWriter(w)
	writer.Comma = traceComma
	header := radiusHeader
	if format == FullColumns {
		header = fullHeader
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := range t.Time {
		record := []string{formatFloat(t.Time[i]), formatFloat(t.Radius[i])}
		if format == FullColumns {
			record = append(record, formatFloat(t.Velocity[i]), "", "")
			if i > 0 {
				record[3] = formatFloat(t.Power[i-1])
				record[4] = formatFloat(t.PowerCeiling[i-1])
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadTrace reads a trace written by WriteTrace, in either format.
func ReadTrace(r io.Reader) (*Trace, error) {
	reader := csv.NewReader(r)
	reader.Comma = traceComma
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading trace header: %w", err)
	}
	full := false
	switch len(header) {
	case len(radiusHeader):
	case len(fullHeader):
		full = true
	default:
		return nil, fmt.Errorf("unexpected trace header %v", header)
	}
	reader.FieldsPerRecord = len(header)
	t := &Trace{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trace: %w", err)
		}
		vals := make([]float64, len(record))
		for i, field := range record {
			if field == "" {
				continue
			}
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("trace line %d column %s: %w", line, header[i], err)
			}
		}
		t.Time = append(t.Time, vals[0])
		t.Radius = append(t.Radius, vals[1])
		if full {
			t.Velocity = append(t.Velocity, vals[2])
			if record[3] != "" {
				t.Power = append(t.Power, vals[3])
				t.PowerCeiling = append(t.PowerCeiling, vals[4])
			}
		}
	}
	return t, nil
}

// SaveTrace writes the trace to the provided file, which is created or truncated.
func SaveTrace(filename string, t *Trace, format TraceFormat) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteTrace(f, t, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTrace reads a trace from the provided file.
func LoadTrace(filename string) (*Trace, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrace(f)
}
