// Package cli wires the gasradar command tree.
package cli

import (
	"fmt"

	"github.com/navid-fn/gasradar/api"
	"github.com/navid-fn/gasradar/configs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type app struct {
	config *configs.AppConfig
	logger *logrus.Logger
}

func (a *app) client() *api.Client {
	return api.NewClient(&a.config.API, a.logger)
}

// NewRootCommand builds the command tree around cfg. Flags given on the command
// line override the loaded configuration.
func NewRootCommand(cfg *configs.AppConfig, logger *logrus.Logger) *cobra.Command {
	a := &app{config: cfg, logger: logger}

	rootCmd := &cobra.Command{
		Use:   "gasradar",
		Short: "Ethereum gas fee estimates from GasPrice.io",
		Long: `gasradar queries the GasPrice.io service for Ethereum fee estimates.

Examples:
  gasradar estimates --countervalue EUR   # Current estimates with the ETH price in EUR
  gasradar history minute --duration 1800 # Last 30 minutes of estimates
  gasradar history hour --summary         # Cheapest hour and weekday of the last month
  gasradar txpool                         # Pending pool analysis
  gasradar realtime --kafka               # Stream estimates into Kafka
  gasradar watch --interval 30s           # Poll estimates every 30 seconds`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				a.logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.API.BaseURL, "api-url", cfg.API.BaseURL, "REST API base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.Realtime.BaseURL, "ws-url", cfg.Realtime.BaseURL, "websocket base URL")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newEstimatesCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newTxpoolCmd(a))
	rootCmd.AddCommand(newRealtimeCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gasradar v%s\n", version)
		},
	}
}
