package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	deorbit "github.com/TenessyD/MGA802-projet-final"
	"github.com/TenessyD/MGA802-projet-final/internal/api"
	"github.com/TenessyD/MGA802-projet-final/internal/observability"
)

var (
	serveAddr    string
	serveOrigins []string
	serveConfig  api.Config
	serveCache   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decay runs over HTTP",
	Long: `Starts an HTTP service:
  POST /api/v1/decay      runs the JSON scenario of the body (?trace=true returns the trace)
  GET  /api/v1/materials  lists the tether materials
  GET  /metrics           Prometheus metrics`,
	RunE: serve,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveAddr, "addr", ":8080", "listen address")
	flags.StringSliceVar(&serveOrigins, "cors", nil, "allowed CORS origins")
	flags.DurationVar(&serveConfig.WallClock, "wall-clock", api.DefaultWallClock, "maximum wall clock duration of any run")
	flags.Uint64Var(&serveConfig.MaxSteps, "max-steps", api.DefaultMaxSteps, "maximum integration steps of any run")
	flags.IntVar(&serveConfig.MaxAtmosphereKm, "max-atmosphere", api.DefaultMaxAtmosphereKm, "highest atmosphere top (km) a request may ask for")
	flags.IntVar(&serveCache, "field-cache", deorbit.DefaultFieldCacheCapacity, "magnetic field samples kept across runs")
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, logger)
	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	serveConfig.Addr = serveAddr
	serveConfig.AllowOrigins = serveOrigins
	server := api.NewServer(serveConfig, deorbit.NewMemoizedField(deorbit.WMM2025Dipole, serveCache), collector, logger)
	return server.Run()
}
