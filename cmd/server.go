package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/server"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather lookup server",
		Long:  `Start the HTTP server that resolves weather through the request cache, the optional intermediary backend and the upstream provider.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting weather lookup server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	res, closeStore, err := newAppResolver(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.NewServer(server.Options{
		Name:        "app",
		Server:      cfg.Server,
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
