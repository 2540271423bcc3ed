package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/server"
	"go.uber.org/zap"
)

func backendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Start the intermediary weather backend",
		Long:  `Start the intermediary backend that serves GET /api/weather from its own cache and the upstream provider. Point intermediary.base_url of the app at it.`,
		RunE:  runBackend,
	}
}

func runBackend(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	serverCfg := cfg.Server
	serverCfg.Host = cfg.Backend.Host
	serverCfg.Port = cfg.Backend.Port

	log.Info("Starting intermediary backend",
		zap.Int("server_port", serverCfg.Port),
		zap.String("forecast_policy", cfg.Backend.ForecastPolicy))

	res, closeStore, err := newBackendResolver(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.NewServer(server.Options{
		Name:        "backend",
		Server:      serverCfg,
		Resolver:    res,
		DefaultCity: cfg.Resolver.DefaultCity,
		Logger:      log.Logger,
		Telemetry:   tele,
	})
	if err != nil {
		return err
	}

	return serve(cmd.Context(), srv)
}
