package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/service/server"
	"github.com/oshokin/lost-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the server.
	rootCmd = &cobra.Command{
		Use:   "lost-alarm-server [listen-address]",
		Short: "Run the lost-person alert server.",
		Long: `Starts the HTTP API that receives lost-person location reports and
broadcasts them to every subscriber of the Telegram and WhatsApp channels.

The Telegram bot is long-polled for subscription commands; WhatsApp messages
arrive through the webhook. An optional gRPC health endpoint reports the state
of each channel.

Listen address can be provided as argument to override config (e.g., :3002).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}
)

// Execute runs the lost-alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
