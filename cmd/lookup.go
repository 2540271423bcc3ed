package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-lookup/internal/config"
	"github.com/vzahanych/weather-lookup/internal/display"
)

func lookupCmd() *cobra.Command {
	var (
		city      string
		unit      string
		skipCache bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Print the weather for a city",
		Long:  `Resolve the weather for a city in process, using the same cache, intermediary and provider settings as the server, and print it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			u, err := display.ParseUnit(unit)
			if err != nil {
				return err
			}
			if city == "" {
				city = cfg.Resolver.DefaultCity
			}

			res, closeStore, err := newAppResolver(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			resp, err := res.Resolve(cmd.Context(), city, skipCache)
			if err != nil {
				return err
			}

			return display.Render(cmd.OutOrStdout(), resp, display.Options{
				Unit:     u,
				Location: cfg.Resolver.Location(),
			})
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city to look up (default: resolver.default_city)")
	cmd.Flags().StringVarP(&unit, "unit", "u", string(display.Celsius), "temperature unit: celsius or fahrenheit")
	cmd.Flags().BoolVar(&skipCache, "skip-cache", false, "bypass the request cache")

	return cmd
}
