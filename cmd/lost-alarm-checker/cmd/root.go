package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/service/checker"
	"github.com/oshokin/lost-alarm/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// interval between checks in watch mode.
	interval time.Duration
	// timeout per health call.
	timeout time.Duration
	// once checks a single time.
	once bool

	// rootCmd represents the base command for polling server health.
	rootCmd = &cobra.Command{
		Use:   "lost-alarm-checker [server-address]",
		Short: "Check the health of a running lost-alarm server.",
		Long: `Queries the gRPC health endpoint of lost-alarm-server for the whole server
and for every enabled channel.

With --once it prints each status and exits non-zero unless all are SERVING,
which suits container probes and cron jobs. Otherwise it keeps polling and
logs every status change.

Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
				Timeout:       timeout,
				Once:          once,
			})
		},
	}
)

// Execute runs the lost-alarm-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.DurationVarP(&interval, "interval", "i", checker.DefaultPollInterval, "interval between checks")
	flags.DurationVarP(&timeout, "timeout", "t", 5*time.Second, "timeout of one health call")
	flags.BoolVar(&once, "once", false, "check once and exit")
}
