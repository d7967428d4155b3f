package deorbit

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestDecimalYear(t *testing.T) {
	testValues := []struct {
		date time.Time
		exp  float64
	}{
		{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2000},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), 2025.5},
	}
	for _, tv := range testValues {
		if dy := DecimalYear(tv.date); !scalar.EqualWithinAbs(dy, tv.exp, 5e-3) {
			t.Fatalf("DecimalYear(%s) = %f, expected %f", tv.date, dy, tv.exp)
		}
	}
}

func TestDipoleField(t *testing.T) {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// At the equator and the Greenwich meridian, on the ground.
	be, bn, bu, err := WMM2025Dipole.Sample(0, 0, 0, epoch)
	if err != nil {
		t.Fatalf("Sample: %s", err)
	}
	if !scalar.EqualWithinAbs(be, -4545.4e-9, 1e-10) || !scalar.EqualWithinAbs(bn, 29351.8e-9, 1e-10) || !scalar.EqualWithinAbs(bu, -2821.6e-9, 1e-10) {
		t.Fatalf("(be, bn, bu) = (%g, %g, %g)", be, bn, bu)
	}
	// Field points down at the north pole.
	_, bn, bu, _ = WMM2025Dipole.Sample(0, 90, 0, epoch)
	if !scalar.EqualWithinAbs(bu, -58703.6e-9, 1e-10) || !scalar.EqualWithinAbs(bn, -1410.8e-9, 1e-10) {
		t.Fatalf("north pole (bn, bu) = (%g, %g)", bn, bu)
	}
	// Decreases as the cube of the radius.
	_, bnHigh, _, _ := WMM2025Dipole.Sample(0, 0, wmmReferenceRadius, epoch)
	if !scalar.EqualWithinAbs(bnHigh, 29351.8e-9/8, 1e-10) {
		t.Fatalf("bn at two reference radii = %g", bnHigh)
	}
	// Secular variation.
	_, bnLater, _, _ := WMM2025Dipole.Sample(0, 0, 0, epoch.AddDate(5, 0, 0))
	if !scalar.EqualWithinAbs(bnLater, (29351.8-5*12.0)*1e-9, 1e-10) {
		t.Fatalf("bn in 2030 = %g", bnLater)
	}
}

func TestDipoleFieldOutOfRange(t *testing.T) {
	testValues := []struct {
		lon, lat, alt float64
	}{
		{0, 91, 200},
		{0, -90.5, 200},
		{math.NaN(), 0, 200},
		{0, 0, -7000},
	}
	for _, tv := range testValues {
		_, _, _, err := WMM2025Dipole.Sample(tv.lon, tv.lat, tv.alt, DefaultEpoch)
		var lookupErr *LookupRangeError
		if !errors.As(err, &lookupErr) || lookupErr.Source != "field" {
			t.Fatalf("%+v: expected a LookupRangeError, got %v", tv, err)
		}
	}
}

func TestProjection(t *testing.T) {
	be, bn := 1.0, 2.0
	if bt := ProjectionSinCos.Tangential(be, bn, math.Pi/2); !scalar.EqualWithinAbs(bt, bn, 1e-15) {
		t.Fatalf("sincos heading east: %f", bt)
	}
	if bt := ProjectionSinCos.Tangential(be, bn, 0); !scalar.EqualWithinAbs(bt, be, 1e-15) {
		t.Fatalf("sincos heading north: %f", bt)
	}
	if bt := ProjectionCosSin.Tangential(be, bn, math.Pi/2); !scalar.EqualWithinAbs(bt, be, 1e-15) {
		t.Fatalf("cossin heading east: %f", bt)
	}
	if bt := ProjectionCosSin.Tangential(be, bn, 0); !scalar.EqualWithinAbs(bt, bn, 1e-15) {
		t.Fatalf("cossin heading north: %f", bt)
	}
	for _, p := range []Projection{ProjectionSinCos, ProjectionCosSin} {
		back, err := ProjectionFromString(p.String())
		if err != nil || back != p {
			t.Fatalf("%s did not round trip: %v", p, err)
		}
	}
	if p, err := ProjectionFromString(""); err != nil || p != ProjectionSinCos {
		t.Fatal("default projection should be sincos")
	}
	if _, err := ProjectionFromString("tan"); err == nil {
		t.Fatal("unknown projection did not fail")
	}
}

type countingField struct {
	mu    sync.Mutex
	calls int
}

func (f *countingField) Sample(lonDeg, latDeg, altKm float64, date time.Time) (float64, float64, float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if altKm < 0 {
		return 0, 0, 0, &LookupRangeError{Source: "field", Key: "negative altitude"}
	}
	return lonDeg, latDeg, altKm, nil
}

func TestMemoizedField(t *testing.T) {
	counter := &countingField{}
	field := NewMemoizedField(counter, 0)
	for i := 0; i < 3; i++ {
		be, bn, bu, err := field.Sample(1.5, -2.5, 200, DefaultEpoch)
		if err != nil || be != 1.5 || bn != -2.5 || bu != 200 {
			t.Fatalf("unexpected sample (%f, %f, %f, %v)", be, bn, bu, err)
		}
	}
	if counter.calls != 1 {
		t.Fatalf("wrapped sampler called %d times, expected 1", counter.calls)
	}
	// Different by one bit, or by one day.
	field.Sample(math.Nextafter(1.5, 2), -2.5, 200, DefaultEpoch)
	field.Sample(1.5, -2.5, 200, DefaultEpoch.AddDate(0, 0, 1))
	if counter.calls != 3 || field.Len() != 3 {
		t.Fatalf("calls=%d len=%d, expected 3 and 3", counter.calls, field.Len())
	}
	// Errors are not cached.
	for i := 0; i < 2; i++ {
		if _, _, _, err := field.Sample(0, 0, -1, DefaultEpoch); err == nil {
			t.Fatal("expected an error")
		}
	}
	if hits, misses := field.Stats(); hits != 2 || misses != 5 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestMemoizedFieldCapacity(t *testing.T) {
	counter := &countingField{}
	field := NewMemoizedField(counter, 2)
	for alt := 200.0; alt < 205; alt++ {
		field.Sample(0, 0, alt, DefaultEpoch)
	}
	if field.Len() != 2 || counter.calls != 5 {
		t.Fatalf("len=%d calls=%d, expected 2 and 5", field.Len(), counter.calls)
	}
	// The two latest samples are kept, the oldest ones were evicted.
	field.Sample(0, 0, 204, DefaultEpoch)
	field.Sample(0, 0, 203, DefaultEpoch)
	if counter.calls != 5 {
		t.Fatalf("latest samples evicted: %d calls", counter.calls)
	}
	field.Sample(0, 0, 200, DefaultEpoch)
	if counter.calls != 6 || field.Len() != 2 {
		t.Fatalf("oldest sample kept: calls=%d len=%d", counter.calls, field.Len())
	}
}

func TestMemoizedFieldConcurrent(t *testing.T) {
	field := NewMemoizedField(WMM2025Dipole, 0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lat := -80.0; lat <= 80; lat += 10 {
				if _, _, _, err := field.Sample(10, lat, 400, DefaultEpoch); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
	if field.Len() != 17 {
		t.Fatalf("%d cached samples, expected 17", field.Len())
	}
	be, bn, bu, _ := field.Sample(10, 20, 400, DefaultEpoch)
	expBe, expBn, expBu, _ := WMM2025Dipole.Sample(10, 20, 400, DefaultEpoch)
	if be != expBe || bn != expBn || bu != expBu {
		t.Fatal("memoized sample differs from the direct sample")
	}
}
