package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/service/notify"
	"github.com/oshokin/lost-alarm/internal/service/reporting"
	"github.com/oshokin/lost-alarm/internal/version"
)

var (
	// configPath stores the configuration file path.
	configPath string
	// channelName selects the backend.
	channelName string
	// name, phone, lat and lng describe a report when no message is given.
	name, phone string
	lat, lng    float64

	// rootCmd represents the base command for manual broadcasts.
	rootCmd = &cobra.Command{
		Use:   "lost-alarm-notify [message]",
		Short: "Broadcast a message or a location report to every subscriber.",
		Long: `Sends one broadcast to the administrator and all subscribers of a channel,
using the same settings as the server, and prints who received it.

With a message argument the text is sent as is. Without it, --name, --phone,
--lat and --lng describe a lost-person report that is journaled and composed
exactly as if it came through the HTTP API.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := &notify.Options{
				ConfigPath: configPath,
				Channel:    channelName,
				Out:        cmd.OutOrStdout(),
			}

			if len(args) > 0 {
				opts.Text = args[0]
			} else {
				opts.Report = reporting.Request{Name: name, Phone: phone}

				if cmd.Flags().Changed("lat") {
					opts.Report.Latitude = &lat
				}

				if cmd.Flags().Changed("lng") {
					opts.Report.Longitude = &lng
				}
			}

			return notify.Run(ctx, opts)
		},
	}
)

// Execute runs the lost-alarm-notify CLI and exits with non-zero status on error.
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
	flags.StringVar(&channelName, "channel", channel.Telegram, "channel to broadcast on (telegram or whatsapp)")
	flags.StringVar(&name, "name", "", "name of the person who needs help")
	flags.StringVar(&phone, "phone", "", "contact phone number")
	flags.Float64Var(&lat, "lat", 0, "latitude of the person")
	flags.Float64Var(&lng, "lng", 0, "longitude of the person")
}
