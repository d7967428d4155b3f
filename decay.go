package deorbit

import (
	"context"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// DefaultMaxSteps is the default maximum number of integration steps of a decay run.
	DefaultMaxSteps uint64 = 10000000
	secondsPerDay          = 24 * 3600.0
	progressEveryKm        = 10
	// radiusTolerance absorbs the rounding of r = μ/v² on steps with a vanishing force.
	radiusTolerance = 1e-12
)

// DefaultEpoch is the start date used when an orbit does not define one.
var DefaultEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Orbit defines the initial circular orbit of a decay run.
type Orbit struct {
	Altitude    float64   // m, above the planet radius
	Inclination float64   // degrees
	Step        float64   // s, integration step
	Horizon     float64   // s, upper bound of the simulated time (0 for none)
	Start       time.Time // date of the field model at t=0
}

// Radius returns the initial orbital radius.
func (o Orbit) Radius(c Constants) float64 {
	return o.Altitude + c.PlanetRadius
}

// String implements the Stringer interface.
func (o Orbit) String() string {
	return fmt.Sprintf("alt=%.1f km i=%.2f° dt=%.0f s start=%s", o.Altitude/1000, o.Inclination, o.Step, o.Start.Format("2006-01-02"))
}

func (o Orbit) validate() error {
	switch {
	case o.Altitude < 0 || !isFinite(o.Altitude):
		return &ConfigurationError{Field: "orbit.altitude", Reason: fmt.Sprintf("must be a non negative altitude, got %g", o.Altitude)}
	case !isFinite(o.Inclination):
		return &ConfigurationError{Field: "orbit.inclination", Reason: fmt.Sprintf("invalid inclination %g", o.Inclination)}
	case !(o.Step > 0) || !isFinite(o.Step):
		return &ConfigurationError{Field: "orbit.step", Reason: fmt.Sprintf("must be positive, got %g", o.Step)}
	case o.Horizon < 0:
		return &ConfigurationError{Field: "orbit.horizon", Reason: fmt.Sprintf("may not be negative, got %g", o.Horizon)}
	}
	return nil
}

// Result is the outcome of a successful decay run.
type Result struct {
	Days     float64       // simulated decay time
	Duration time.Duration // wall clock time of the run
	Steps    uint64
	Trace    *Trace
	Approach Approach
}

// String implements the Stringer interface.
func (r Result) String() string {
	return fmt.Sprintf("%s: %.4f days in %d steps (%s)", r.Approach, r.Days, r.Steps, r.Duration)
}

// Decay integrates the decay of a satellite from its initial orbit down to the re-entry altitude.
type Decay struct {
	orbit      Orbit
	sat        *MagneticSatellite
	atmosphere Atmosphere
	field      FieldSampler
	stepper    Stepper
	constants  Constants
	projection Projection
	maxSteps   uint64
	wallClock  time.Duration
	logger     kitlog.Logger
}

// DecayOption configures optional parameters of a Decay.
type DecayOption func(*Decay)

// WithMaxSteps sets the maximum number of integration steps (defaults to DefaultMaxSteps).
func WithMaxSteps(n uint64) DecayOption {
	return func(d *Decay) {
		d.maxSteps = n
	}
}

// WithWallClock sets the maximum wall clock duration of a run (none by default).
func WithWallClock(budget time.Duration) DecayOption {
	return func(d *Decay) {
		d.wallClock = budget
	}
}

// WithLogger sets the logger of the run (silent by default).
func WithLogger(logger kitlog.Logger) DecayOption {
	return func(d *Decay) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithProjection sets the tangential field projection (defaults to ProjectionSinCos).
func WithProjection(p Projection) DecayOption {
	return func(d *Decay) {
		d.projection = p
	}
}

// WithConstants sets the physical constants (defaults to EarthConstants).
func WithConstants(c Constants) DecayOption {
	return func(d *Decay) {
		d.constants = c
	}
}

// NewDecay returns a new decay run. The run owns the satellite: its position is reset by Run.
func NewDecay(orbit Orbit, sat *MagneticSatellite, atmosphere Atmosphere, field FieldSampler, stepper Stepper, opts ...DecayOption) (*Decay, error) {
	d := &Decay{
		orbit:      orbit,
		sat:        sat,
		atmosphere: atmosphere,
		field:      field,
		stepper:    stepper,
		constants:  EarthConstants,
		projection: ProjectionSinCos,
		maxSteps:   DefaultMaxSteps,
		logger:     kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	switch {
	case sat == nil:
		return nil, &ConfigurationError{Field: "satellite", Reason: "no satellite"}
	case atmosphere == nil:
		return nil, &ConfigurationError{Field: "atmosphere", Reason: "no atmosphere model"}
	case field == nil:
		return nil, &ConfigurationError{Field: "field", Reason: "no field sampler"}
	case stepper == nil:
		return nil, &ConfigurationError{Field: "approach", Reason: "no stepper"}
	case d.projection != ProjectionSinCos && d.projection != ProjectionCosSin:
		return nil, &ConfigurationError{Field: "field.projection", Reason: fmt.Sprintf("unknown projection %d", d.projection)}
	case d.maxSteps == 0:
		return nil, &ConfigurationError{Field: "max_steps", Reason: "must be positive"}
	}
	if err := d.constants.Validate(); err != nil {
		return nil, err
	}
	if err := orbit.validate(); err != nil {
		return nil, err
	}
	if d.orbit.Start.IsZero() {
		d.orbit.Start = DefaultEpoch
	}
	return d, nil
}

// Satellite returns the satellite of this run.
func (d *Decay) Satellite() *MagneticSatellite {
	return d.sat
}

// tangential samples the field at the current satellite position, clock seconds after the start
// date, and projects it along the provided heading.
func (d *Decay) tangential(heading, clock float64) (float64, error) {
	pos := d.sat.Position()
	altKm := math.Floor((pos.R - d.constants.PlanetRadius) / 1000)
	date := d.orbit.Start.AddDate(0, 0, int(clock/secondsPerDay))
	be, bn, _, err := d.field.Sample(pos.LongitudeDeg(), pos.LatitudeDeg(), altKm, date)
	if err != nil {
		return 0, err
	}
	return d.projection.Tangential(be, bn, heading), nil
}

// relativeVelocity returns the velocity relative to the rotating frame of the magnetic field.
func (d *Decay) relativeVelocity(r, v float64) float64 {
	offset := (d.constants.PoleOffset + d.orbit.Inclination) * deg2rad
	return v - 2*math.Pi*r*math.Cos(offset)/d.constants.FrameRotationPeriod
}

// powerCeiling returns the maximum braking power the tether may dissipate at radius r.
func (d *Decay) powerCeiling(r, vrel float64) float64 {
	cable := d.sat.Cable
	if cable == nil {
		return 0
	}
	return d.constants.PowerCeilingFactor * d.constants.Gamma(r) * cable.length * (cable.ballastMass + cable.mass/4) * vrel
}

// Run integrates the decay until the radius reaches the re-entry radius. It stops with a DivergenceError
// when the state is not physical anymore, when the maximum number of steps is exceeded, or when the
// context is done (the wall clock budget, if any, is applied to the context).
func (d *Decay) Run(ctx context.Context) (*Result, error) {
	if d.wallClock > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.wallClock)
		defer cancel()
	}
	began := time.Now()
	c := d.constants
	dt := d.orbit.Step
	reentry := c.ReentryRadius()
	controlResistance := 0.0
	cosAlpha := 0.0
	if d.sat.Cable != nil {
		controlResistance = d.sat.Cable.controlResistance
		cosAlpha = math.Cos(d.sat.Cable.inclination)
	}

	r := d.orbit.Radius(c)
	v := c.KeplerVelocity(r)
	d.sat.WithPosition(Position{R: r})
	trace := NewTrace(0, r, v)
	result := &Result{Trace: trace, Approach: d.stepper.Approach()}
	logger := kitlog.With(d.logger, "subsys", "decay", "approach", result.Approach)
	if r <= reentry {
		logger.Log("level", "notice", "status", "already re-entered", "altitude(km)", d.orbit.Altitude/1000)
		result.Duration = time.Since(began)
		return result, nil
	}
	logger.Log("level", "info", "status", "started", "orbit", d.orbit, "v(m/s)", v)

	bt, err := d.tangential(math.Pi/2-d.orbit.Inclination*deg2rad, 0)
	if err != nil {
		return nil, &DivergenceError{Step: 0, Radius: r, Velocity: v, Reason: "initial field sample", Err: err}
	}
	var step uint64
	clock := 0.0
	equator := 0.0
	nextProgress := math.Floor((r-c.PlanetRadius)/1000/progressEveryKm) * progressEveryKm
	for r > reentry {
		if step >= d.maxSteps {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: fmt.Sprintf("no re-entry after %d steps", step), Err: ErrStepLimit}
		}
		if d.orbit.Horizon > 0 && clock >= d.orbit.Horizon {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: fmt.Sprintf("no re-entry after %.0f s", clock), Err: ErrHorizon}
		}
		if err := ctx.Err(); err != nil {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: "run interrupted", Err: err}
		}

		band := int(math.Floor((r - c.PlanetRadius) / 1000))
		density, err := d.atmosphere.Density(band)
		if err != nil {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: "atmosphere density", Err: err}
		}
		drag := d.sat.Drag(density, v)
		lorentz, err := d.sat.LorentzForce(bt, v, controlResistance)
		if err != nil {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: "lorentz force", Err: err}
		}
		fmag := lorentz * cosAlpha
		rNext, vNext, err := d.stepper.Advance(r, v, drag-fmag, d.sat.Mass, dt, c.Mu)
		if err != nil {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: result.Approach.String() + " step", Err: err}
		}
		if !isFinite(rNext, vNext) {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: fmt.Sprintf("non finite state r=%g v=%g", rNext, vNext)}
		}
		if rNext > r*(1+radiusTolerance) {
			return nil, &DivergenceError{Step: step, Radius: r, Velocity: v, Reason: fmt.Sprintf("radius increased to %.3f m", rNext)}
		}

		equator += v * dt / r
		d.sat.WithRadius(rNext)
		d.sat.UpdateState(equator, d.orbit.Inclination)
		clock += dt
		if bt, err = d.tangential(d.sat.Heading(), clock); err != nil {
			return nil, &DivergenceError{Step: step, Radius: rNext, Velocity: vNext, Reason: "field sample", Err: err}
		}
		vrel := d.relativeVelocity(rNext, vNext)
		r, v = rNext, vNext
		step++
		trace.Append(clock, r, v, fmag*vrel, d.powerCeiling(r, vrel))

		if alt := (r - c.PlanetRadius) / 1000; alt < nextProgress {
			nextProgress = math.Floor(alt/progressEveryKm) * progressEveryKm
			logger.Log("level", "debug", "step", step, "altitude(km)", alt, "days", clock/secondsPerDay, "bt(nT)", bt/nT2T)
		}
	}
	result.Steps = step
	result.Days = clock / secondsPerDay
	result.Duration = time.Since(began)
	logger.Log("level", "notice", "status", "re-entered", "days", result.Days, "steps", step, "duration", result.Duration)
	return result, nil
}
