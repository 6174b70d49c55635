package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/service/common"
	"github.com/oshokin/lost-alarm/internal/service/reporting"
)

// Options configures one broadcast from the command line.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Channel is "telegram" or "whatsapp".
	Channel string
	// Text is sent verbatim when not empty.
	Text string
	// Report is composed and sent when Text is empty.
	Report reporting.Request
	// Out receives the summary; stdout when nil.
	Out io.Writer
}

var (
	errNothingToSend    = errors.New("either a message or a complete report is required")
	errNothingDelivered = errors.New("no recipient received the message")
)

// Run broadcasts once and prints the per-recipient summary.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = common.ApplyLogging(settings); err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "lost-alarm-notify")

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	channels := common.BuildChannels(ctx, settings, nil)

	summary, err := send(ctx, channels.Reporting, opts)
	if err != nil {
		return err
	}

	PrintSummary(out, summary)

	if summary.Delivered() == 0 {
		return errNothingDelivered
	}

	return nil
}

func send(ctx context.Context, svc *reporting.Service, opts *Options) (*alert.Summary, error) {
	if opts.Text != "" {
		return svc.Notify(ctx, opts.Channel, opts.Text)
	}

	if opts.Report.Name == "" && opts.Report.Phone == "" {
		return nil, errNothingToSend
	}

	return svc.Report(ctx, opts.Channel, opts.Report)
}

// PrintSummary writes one line for the broadcast and one per failed recipient.
func PrintSummary(w io.Writer, summary *alert.Summary) {
	_, _ = fmt.Fprintf(w, "broadcast %s on %s: %s\n", summary.ID, summary.Channel, summary)

	for _, o := range summary.Failed() {
		_, _ = fmt.Fprintf(w, "  failed %s: %v\n", o.Recipient, o.Err)
	}
}
