package deorbit

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func sampleTrace() *Trace {
	tr := NewTrace(0, 6571e3, 7788.1)
	tr.Append(300, 6560e3, 7794.6, -64788.5, -1.2e5)
	tr.Append(600, 6540.5e3, 7806.2, -70001.25, -1.3e5)
	return tr
}

func TestWriteTrace(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTrace(&buf, sampleTrace(), RadiusColumns); err != nil {
		t.Fatalf("WriteTrace: %s", err)
	}
	exp := "time;radius\n0;6.571e+06\n300;6.56e+06\n600;6.5405e+06\n"
	if buf.String() != exp {
		t.Fatalf("unexpected trace:\n%s", buf.String())
	}
	buf.Reset()
	if err := WriteTrace(&buf, sampleTrace(), FullColumns); err != nil {
		t.Fatalf("WriteTrace: %s", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "time;radius;velocity;power;power_ceiling" {
		t.Fatalf("unexpected trace:\n%s", buf.String())
	}
	if lines[1] != "0;6.571e+06;7788.1;;" {
		t.Fatalf("initial row %q should have empty powers", lines[1])
	}
}

func TestTraceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := sampleTrace()
	for _, format := range []TraceFormat{RadiusColumns, FullColumns} {
		filename := filepath.Join(dir, "trace.csv")
		if err := SaveTrace(filename, orig, format); err != nil {
			t.Fatalf("SaveTrace: %s", err)
		}
		back, err := LoadTrace(filename)
		if err != nil {
			t.Fatalf("LoadTrace: %s", err)
		}
		if !floats.Equal(back.Time, orig.Time) || !floats.Equal(back.Radius, orig.Radius) {
			t.Fatalf("format %d: time or radius differs", format)
		}
		if format == RadiusColumns {
			if len(back.Velocity) != 0 || len(back.Power) != 0 {
				t.Fatal("radius format read back other columns")
			}
			continue
		}
		if !floats.Equal(back.Velocity, orig.Velocity) || !floats.Equal(back.Power, orig.Power) || !floats.Equal(back.PowerCeiling, orig.PowerCeiling) {
			t.Fatal("full format did not round trip")
		}
	}
}

func TestReadTraceInvalid(t *testing.T) {
	for _, data := range []string{"", "time;radius;velocity\n", "time;radius\n0;abc\n", "time;radius\n0;1;2\n"} {
		if _, err := ReadTrace(strings.NewReader(data)); err == nil {
			t.Fatalf("%q: expected an error", data)
		}
	}
}

func TestTraceAltitudes(t *testing.T) {
	alt := sampleTrace().Altitudes(EarthConstants.PlanetRadius)
	if !floats.EqualApprox(alt, []float64{200, 189, 169.5}, 1e-9) {
		t.Fatalf("altitudes = %v", alt)
	}
}
