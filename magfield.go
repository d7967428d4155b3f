package deorbit

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// FieldSampler returns the east, north and up components (in Tesla) of the geomagnetic field at
// the provided geographic longitude and latitude (degrees), altitude (km) and date.
type FieldSampler interface {
	Sample(lonDeg, latDeg, altKm float64, date time.Time) (be, bn, bu float64, err error)
}

// Projection selects how the east and north components are projected on the velocity direction.
type Projection uint8

const (
	// ProjectionSinCos computes Bt = Bn·sin(h) + Be·cos(h).
	ProjectionSinCos Projection = iota + 1
	// ProjectionCosSin computes Bt = Bn·cos(h) + Be·sin(h).
	ProjectionCosSin
)

func (p Projection) String() string {
	switch p {
	case ProjectionSinCos:
		return "sincos"
	case ProjectionCosSin:
		return "cossin"
	default:
		panic(fmt.Errorf("unknown projection %d", p))
	}
}

// ProjectionFromString returns the projection from its name.
func ProjectionFromString(name string) (Projection, error) {
	switch strings.ToLower(name) {
	case "", "sincos":
		return ProjectionSinCos, nil
	case "cossin":
		return ProjectionCosSin, nil
	default:
		return 0, &ConfigurationError{Field: "field.projection", Reason: fmt.Sprintf("undefined projection '%s'", name)}
	}
}

// Tangential returns the field component along a velocity whose angle from the local north is heading (radians).
func (p Projection) Tangential(be, bn, heading float64) float64 {
	s, c := math.Sincos(heading)
	if p == ProjectionCosSin {
		return bn*c + be*s
	}
	return bn*s + be*c
}

const (
	nT2T = 1e-9
	// wmmReferenceRadius is the geomagnetic reference radius of the WMM, in km.
	wmmReferenceRadius = 6371.2
	wmmEpoch           = 2025.0
	j2000              = 2451545.0
	julianYear         = 365.25
)

// DipoleField is a centred dipole geomagnetic field: the degree one terms of a spherical harmonics
// model with a linear secular variation from the model epoch.
type DipoleField struct {
	Epoch                  float64 // decimal year
	G10, G11, H11          float64 // nT
	G10Dot, G11Dot, H11Dot float64 // nT/year
}

// coefficients returns the Gauss coefficients at the provided date.
func (f DipoleField) coefficients(date time.Time) (g10, g11, h11 float64) {
	delta := DecimalYear(date) - f.Epoch
	return f.G10 + f.G10Dot*delta, f.G11 + f.G11Dot*delta, f.H11 + f.H11Dot*delta
}

// Sample implements the FieldSampler interface.
func (f DipoleField) Sample(lonDeg, latDeg, altKm float64, date time.Time) (be, bn, bu float64, err error) {
	if !isFinite(lonDeg, latDeg, altKm) || latDeg < -90 || latDeg > 90 || altKm <= -wmmReferenceRadius {
		return 0, 0, 0, &LookupRangeError{Source: "field", Key: fmt.Sprintf("lon=%g° lat=%g° alt=%g km", lonDeg, latDeg, altKm)}
	}
	g10, g11, h11 := f.coefficients(date)
	colat := (90 - latDeg) * deg2rad
	sθ, cθ := math.Sincos(colat)
	sλ, cλ := math.Sincos(lonDeg * deg2rad)
	ratio := wmmReferenceRadius / (wmmReferenceRadius + altKm)
	scale := ratio * ratio * ratio
	equatorial := g11*cλ + h11*sλ
	br := 2 * scale * (g10*cθ + equatorial*sθ)
	bθ := scale * (g10*sθ - equatorial*cθ)
	bλ := scale * (g11*sλ - h11*cλ)
	// North is -θ, up is r.
	return bλ * nT2T, -bθ * nT2T, br * nT2T, nil
}

// String implements the Stringer interface.
func (f DipoleField) String() string {
	return fmt.Sprintf("dipole epoch=%.1f g10=%.1f g11=%.1f h11=%.1f nT", f.Epoch, f.G10, f.G11, f.H11)
}

// DecimalYear returns the provided date as a decimal year of 365.25 days from J2000.
func DecimalYear(date time.Time) float64 {
	return 2000 + (julian.TimeToJD(date.UTC())-j2000)/julianYear
}

/* Definitions */

// WMM2025Dipole is the dipole part of the World Magnetic Model 2025.
var WMM2025Dipole = DipoleField{
	Epoch:  wmmEpoch,
	G10:    -29351.8,
	G11:    -1410.8,
	H11:    4545.4,
	G10Dot: 12.0,
	G11Dot: 9.7,
	H11Dot: -21.5,
}

type fieldKey struct {
	lon, lat, alt uint64
	date          int64
}

type fieldSample struct {
	be, bn, bu float64
}

// DefaultFieldCacheCapacity is the number of samples a MemoizedField keeps when no capacity is given.
const DefaultFieldCacheCapacity = 1 << 16

// MemoizedField caches the samples of another FieldSampler. Keys are the exact bit patterns of the
// inputs, so a cached sample is only ever returned for identical arguments. Once the capacity is
// reached, the oldest sample is evicted. It is safe for concurrent use.
type MemoizedField struct {
	sampler      FieldSampler
	capacity     int
	mu           sync.Mutex
	cache        map[fieldKey]fieldSample
	order        []fieldKey // insertion ring
	next         int        // oldest entry of order once full
	hits, misses uint64
}

// NewMemoizedField returns a new memoizing wrapper around the provided sampler, keeping at most
// capacity samples (DefaultFieldCacheCapacity if capacity <= 0).
func NewMemoizedField(sampler FieldSampler, capacity int) *MemoizedField {
	if capacity <= 0 {
		capacity = DefaultFieldCacheCapacity
	}
	return &MemoizedField{sampler: sampler, capacity: capacity, cache: make(map[fieldKey]fieldSample)}
}

// Sample implements the FieldSampler interface. Errors are not cached.
func (m *MemoizedField) Sample(lonDeg, latDeg, altKm float64, date time.Time) (be, bn, bu float64, err error) {
	key := fieldKey{math.Float64bits(lonDeg), math.Float64bits(latDeg), math.Float64bits(altKm), date.UnixNano()}
	m.mu.Lock()
	if s, ok := m.cache[key]; ok {
		m.hits++
		m.mu.Unlock()
		return s.be, s.bn, s.bu, nil
	}
	m.misses++
	m.mu.Unlock()
	be, bn, bu, err = m.sampler.Sample(lonDeg, latDeg, altKm, date)
	if err != nil {
		return 0, 0, 0, err
	}
	m.mu.Lock()
	m.store(key, fieldSample{be, bn, bu})
	m.mu.Unlock()
	return be, bn, bu, nil
}

// store adds a sample, evicting the oldest one when full. The caller holds the lock.
func (m *MemoizedField) store(key fieldKey, s fieldSample) {
	if _, ok := m.cache[key]; !ok {
		if len(m.order) < m.capacity {
			m.order = append(m.order, key)
		} else {
			delete(m.cache, m.order[m.next])
			m.order[m.next] = key
			m.next = (m.next + 1) % m.capacity
		}
	}
	m.cache[key] = s
}

// Stats returns the number of cache hits and misses.
func (m *MemoizedField) Stats() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// Len returns the number of cached samples.
func (m *MemoizedField) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}
