package deorbit

import (
	"fmt"
	"io"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding scenario keys, e.g. DEORBIT_ORBIT_ALTITUDE.
const EnvPrefix = "DEORBIT"

// TetherConfig is the tether part of a scenario.
type TetherConfig struct {
	Length            float64 // m
	SectionMM2        float64 // mm²
	Material          Material
	Inclination       float64 // degrees
	Ballast           float64 // kg
	ControlResistance float64 // Ω
}

// Scenario is a complete decay run configuration.
type Scenario struct {
	Orbit       Orbit
	Mass        float64 // kg
	DragSurface float64 // m²
	Cx          float64
	Tether      *TetherConfig // nil without tether brake
	Approach    Approach
	Projection  Projection
	Memoize     bool
	// AtmosphereTable is a density table file; the exponential model is used when empty.
	AtmosphereTable string
	// AtmosphereMaxKm is the top of the exponential model.
	AtmosphereMaxKm int
	MaxSteps        uint64
	WallClock       time.Duration
	TraceFile       string
	TraceFormat     TraceFormat
	Constants       Constants
}

// NewViper returns a viper instance with the scenario defaults and the environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("orbit.inclination", 0.0)
	v.SetDefault("orbit.step", 300.0)
	v.SetDefault("orbit.horizon", 0.0)
	v.SetDefault("satellite.cx", DefaultDragCoefficient)
	v.SetDefault("tether.enabled", true)
	v.SetDefault("tether.material", Aluminium.Name)
	v.SetDefault("tether.inclination", DefaultTetherInclination)
	v.SetDefault("tether.ballast", DefaultBallastMass)
	v.SetDefault("tether.control_resistance", 0.0)
	v.SetDefault("approach", DynamicsApproach.String())
	v.SetDefault("field.projection", ProjectionSinCos.String())
	v.SetDefault("field.memoize", true)
	v.SetDefault("atmosphere.max_altitude", 1000)
	v.SetDefault("run.max_steps", DefaultMaxSteps)
	v.SetDefault("run.wall_clock", time.Duration(0))
	v.SetDefault("output.format", "radius")
	v.SetDefault("constants.mu", EarthConstants.Mu)
	v.SetDefault("constants.planet_radius", EarthConstants.PlanetRadius)
	v.SetDefault("constants.reentry_altitude", EarthConstants.ReentryAltitude)
	v.SetDefault("constants.pole_offset", EarthConstants.PoleOffset)
	v.SetDefault("constants.power_ceiling_factor", EarthConstants.PowerCeilingFactor)
	v.SetDefault("constants.frame_rotation_period", EarthConstants.FrameRotationPeriod)
	return v
}

// LoadScenario reads a scenario file (the format is given by its extension, e.g. yaml or toml).
func LoadScenario(filename string, logger kitlog.Logger) (*Scenario, error) {
	v := NewViper()
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", filename, err)
	}
	logger.Log("level", "info", "subsys", "config", "file", v.ConfigFileUsed())
	return ScenarioFromViper(v)
}

// ReadScenario reads a scenario of the provided format (e.g. "json" or "yaml") from r.
func ReadScenario(r io.Reader, format string) (*Scenario, error) {
	v := NewViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, &ConfigurationError{Field: "scenario", Reason: fmt.Sprintf("invalid %s: %s", format, err)}
	}
	return ScenarioFromViper(v)
}

// confReadJDEorTime reads a date either as a Julian date or as a date string.
func confReadJDEorTime(v *viper.Viper, key string) (dt time.Time) {
	jde := v.GetFloat64(key)
	if jde == 0 {
		dt = v.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return dt.UTC()
}

// ScenarioFromViper builds a scenario from the configuration held by v.
func ScenarioFromViper(v *viper.Viper) (*Scenario, error) {
	var err error
	s := &Scenario{
		Mass:            v.GetFloat64("satellite.mass"),
		DragSurface:     v.GetFloat64("satellite.drag_surface"),
		Cx:              v.GetFloat64("satellite.cx"),
		Memoize:         v.GetBool("field.memoize"),
		AtmosphereTable: v.GetString("atmosphere.table"),
		AtmosphereMaxKm: v.GetInt("atmosphere.max_altitude"),
		MaxSteps:        v.GetUint64("run.max_steps"),
		WallClock:       v.GetDuration("run.wall_clock"),
		TraceFile:       v.GetString("output.trace"),
		Constants: Constants{
			Mu:                  v.GetFloat64("constants.mu"),
			PlanetRadius:        v.GetFloat64("constants.planet_radius"),
			ReentryAltitude:     v.GetFloat64("constants.reentry_altitude"),
			PoleOffset:          v.GetFloat64("constants.pole_offset"),
			PowerCeilingFactor:  v.GetFloat64("constants.power_ceiling_factor"),
			FrameRotationPeriod: v.GetFloat64("constants.frame_rotation_period"),
		},
	}
	if err = s.Constants.Validate(); err != nil {
		return nil, err
	}
	if s.AtmosphereMaxKm <= 0 || s.AtmosphereMaxKm > MaxExponentialAltitudeKm {
		return nil, &ConfigurationError{Field: "atmosphere.max_altitude", Reason: fmt.Sprintf("%d km is outside ]0, %d] km", s.AtmosphereMaxKm, MaxExponentialAltitudeKm)}
	}
	if s.Approach, err = ApproachFromString(v.GetString("approach")); err != nil {
		return nil, err
	}
	if s.Projection, err = ProjectionFromString(v.GetString("field.projection")); err != nil {
		return nil, err
	}
	switch format := strings.ToLower(v.GetString("output.format")); format {
	case "radius", "":
		s.TraceFormat = RadiusColumns
	case "full":
		s.TraceFormat = FullColumns
	default:
		return nil, &ConfigurationError{Field: "output.format", Reason: fmt.Sprintf("undefined trace format '%s'", format)}
	}

	start := DefaultEpoch
	if v.IsSet("orbit.start") {
		start = confReadJDEorTime(v, "orbit.start")
	}
	if line1 := v.GetString("orbit.tle.line1"); line1 != "" {
		if s.Orbit, err = OrbitFromTLE(line1, v.GetString("orbit.tle.line2"), start, s.Constants); err != nil {
			return nil, err
		}
	} else {
		if !v.IsSet("orbit.altitude") {
			return nil, &ConfigurationError{Field: "orbit.altitude", Reason: "missing"}
		}
		s.Orbit = Orbit{Altitude: v.GetFloat64("orbit.altitude"), Inclination: v.GetFloat64("orbit.inclination"), Start: start}
	}
	s.Orbit.Step = v.GetFloat64("orbit.step")
	s.Orbit.Horizon = v.GetFloat64("orbit.horizon")
	if err = s.Orbit.validate(); err != nil {
		return nil, err
	}

	if v.GetBool("tether.enabled") {
		material, err := MaterialFromString(v.GetString("tether.material"))
		if err != nil {
			return nil, err
		}
		s.Tether = &TetherConfig{
			Length:            v.GetFloat64("tether.length"),
			SectionMM2:        v.GetFloat64("tether.section"),
			Material:          material,
			Inclination:       v.GetFloat64("tether.inclination"),
			Ballast:           v.GetFloat64("tether.ballast"),
			ControlResistance: v.GetFloat64("tether.control_resistance"),
		}
	}
	return s, nil
}

// Satellite returns a new satellite for this scenario.
func (s *Scenario) Satellite() (*MagneticSatellite, error) {
	var cable *Cable
	if s.Tether != nil {
		var err error
		cable, err = NewCable(s.Tether.Length, s.Tether.SectionMM2, s.Tether.Material,
			WithTetherInclination(s.Tether.Inclination), WithBallast(s.Tether.Ballast), WithControlResistance(s.Tether.ControlResistance))
		if err != nil {
			return nil, err
		}
	}
	return NewMagneticSatellite(s.Mass, s.DragSurface, s.Cx, cable)
}

// Atmosphere returns the atmosphere model of this scenario.
func (s *Scenario) Atmosphere() (Atmosphere, error) {
	var table DensityTable
	if s.AtmosphereTable != "" {
		var err error
		if table, err = LoadDensityTable(s.AtmosphereTable); err != nil {
			return nil, err
		}
	} else {
		table = NewExponentialAtmosphere(s.AtmosphereMaxKm)
	}
	if !table.Covers(s.Constants.ReentryAltitude, s.Orbit.Altitude) && s.Orbit.Altitude > s.Constants.ReentryAltitude {
		return nil, &ConfigurationError{Field: "atmosphere", Reason: fmt.Sprintf("density table [%d, %d] km does not cover %.0f to %.0f km", table.Base, table.Top(), s.Constants.ReentryAltitude/1000, s.Orbit.Altitude/1000)}
	}
	return table, nil
}

// NewDecay returns a new decay run of this scenario. A nil field defaults to the WMM2025 dipole,
// memoized if the scenario says so.
func (s *Scenario) NewDecay(field FieldSampler, opts ...DecayOption) (*Decay, error) {
	sat, err := s.Satellite()
	if err != nil {
		return nil, err
	}
	atmosphere, err := s.Atmosphere()
	if err != nil {
		return nil, err
	}
	if field == nil {
		field = WMM2025Dipole
		if s.Memoize {
			field = NewMemoizedField(field, 0)
		}
	}
	base := []DecayOption{WithConstants(s.Constants), WithProjection(s.Projection), WithMaxSteps(s.MaxSteps), WithWallClock(s.WallClock)}
	return NewDecay(s.Orbit, sat, atmosphere, field, s.Approach.Stepper(), append(base, opts...)...)
}

// Baseline returns a copy of this scenario without tether brake.
func (s *Scenario) Baseline() *Scenario {
	b := *s
	b.Tether = nil
	return &b
}
