package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	kitlog "github.com/go-kit/kit/log"

	deorbit "github.com/TenessyD/MGA802-projet-final"
	"github.com/TenessyD/MGA802-projet-final/internal/observability"
)

// Limits applied to every request when the Config leaves them null.
const (
	DefaultWallClock       = time.Minute
	DefaultMaxSteps uint64 = 1000000
	DefaultMaxAtmosphereKm = 2000
)

// Config of the HTTP service.
type Config struct {
	Addr         string
	AllowOrigins []string
	// WallClock bounds every run; a scenario may only ask for less.
	WallClock time.Duration
	// MaxSteps bounds the integration steps of every run.
	MaxSteps uint64
	// MaxAtmosphereKm bounds the top of the requested exponential atmosphere.
	MaxAtmosphereKm int
}

func (cfg *Config) setDefaults() {
	if cfg.WallClock <= 0 {
		cfg.WallClock = DefaultWallClock
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxAtmosphereKm <= 0 {
		cfg.MaxAtmosphereKm = DefaultMaxAtmosphereKm
	}
}

// Server runs decay scenarios over HTTP.
type Server struct {
	cfg       Config
	engine    *gin.Engine
	field     deorbit.FieldSampler
	collector *observability.Collector
	logger    kitlog.Logger
}

// NewServer returns a new server. The field sampler is shared by all the runs, hence must be safe
// for concurrent use and bounded in memory; the collector may be nil.
func NewServer(cfg Config, field deorbit.FieldSampler, collector *observability.Collector, logger kitlog.Logger) *Server {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	cfg.setDefaults()
	s := &Server{cfg: cfg, engine: gin.New(), field: field, collector: collector, logger: kitlog.With(logger, "subsys", "api")}
	s.engine.Use(gin.Recovery())
	if len(cfg.AllowOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: false,
		}))
	}

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if collector != nil {
		s.engine.GET("/metrics", gin.WrapH(collector.Handler()))
	}
	api := s.engine.Group("/api/v1")
	{
		api.GET("/materials", s.getMaterials)
		api.POST("/decay", s.postDecay)
	}
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until the server fails.
func (s *Server) Run() error {
	s.logger.Log("level", "notice", "status", "listening", "addr", s.cfg.Addr)
	return s.engine.Run(s.cfg.Addr)
}

type materialResponse struct {
	Name        string  `json:"name"`
	Density     float64 `json:"density"`
	Resistivity float64 `json:"resistivity"`
}

func (s *Server) getMaterials(c *gin.Context) {
	materials := deorbit.Materials()
	data := make([]materialResponse, len(materials))
	for i, m := range materials {
		data[i] = materialResponse{m.Name, m.Density, m.Resistivity}
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
}

type massBudgetResponse struct {
	Resistance        float64 `json:"resistance"`
	SectionMM2        float64 `json:"section_mm2"`
	TotalMass         float64 `json:"total_mass"`
	CableMass         float64 `json:"cable_mass"`
	CableBallastMass  float64 `json:"cable_ballast_mass"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

type traceResponse struct {
	Time         []float64 `json:"time"`
	Radius       []float64 `json:"radius"`
	Velocity     []float64 `json:"velocity"`
	Power        []float64 `json:"power"`
	PowerCeiling []float64 `json:"power_ceiling"`
}

type decayResponse struct {
	Approach    string             `json:"approach"`
	Days        float64            `json:"days"`
	Steps       uint64             `json:"steps"`
	DurationMS  float64            `json:"duration_ms"`
	FinalRadius float64            `json:"final_radius"`
	MassBudget  massBudgetResponse `json:"mass_budget"`
	Trace       *traceResponse     `json:"trace,omitempty"`
}

func (s *Server) postDecay(c *gin.Context) {
	scenario, err := deorbit.ReadScenario(c.Request.Body, "json")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err = s.limit(scenario); err != nil {
		s.fail(c, err)
		return
	}
	decay, err := scenario.NewDecay(s.field, deorbit.WithLogger(s.logger))
	if err != nil {
		s.fail(c, err)
		return
	}
	result, err := observability.RunDecay(c.Request.Context(), scenario, decay, s.collector)
	if err != nil {
		s.fail(c, err)
		return
	}
	budget := decay.Satellite().MassBudget()
	resp := decayResponse{
		Approach:    result.Approach.String(),
		Days:        result.Days,
		Steps:       result.Steps,
		DurationMS:  float64(result.Duration) / float64(time.Millisecond),
		FinalRadius: result.Trace.Radius[len(result.Trace.Radius)-1],
		MassBudget:  massBudgetResponse(budget),
	}
	if c.Query("trace") == "true" {
		resp.Trace = &traceResponse{result.Trace.Time, result.Trace.Radius, result.Trace.Velocity, result.Trace.Power, result.Trace.PowerCeiling}
	}
	c.JSON(http.StatusOK, resp)
}

// limit applies the resource bounds of the server to a scenario read from a request.
func (s *Server) limit(scenario *deorbit.Scenario) error {
	if scenario.AtmosphereTable != "" {
		return &deorbit.ConfigurationError{Field: "atmosphere.table", Reason: "density table files cannot be read from a request"}
	}
	if scenario.AtmosphereMaxKm > s.cfg.MaxAtmosphereKm {
		return &deorbit.ConfigurationError{Field: "atmosphere.max_altitude", Reason: fmt.Sprintf("%d km is above the %d km served", scenario.AtmosphereMaxKm, s.cfg.MaxAtmosphereKm)}
	}
	if scenario.MaxSteps == 0 || scenario.MaxSteps > s.cfg.MaxSteps {
		scenario.MaxSteps = s.cfg.MaxSteps
	}
	if scenario.WallClock <= 0 || scenario.WallClock > s.cfg.WallClock {
		scenario.WallClock = s.cfg.WallClock
	}
	return nil
}

// fail maps the errors of a run to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var conf *deorbit.ConfigurationError
	var div *deorbit.DivergenceError
	var lookup *deorbit.LookupRangeError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &conf):
		status = http.StatusBadRequest
	case errors.As(err, &div), errors.As(err, &lookup):
		status = http.StatusUnprocessableEntity
	}
	s.logger.Log("level", "error", "status", status, "err", err)
	c.JSON(status, gin.H{"error": err.Error()})
}
