package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/lost-alarm/internal/api/grpc/health"
	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/logger"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress overrides grpc.listen_addr from the settings.
	ServerAddress string
	// PollInterval defines the interval between checks.
	PollInterval time.Duration
	// Timeout specifies the per-RPC timeout duration.
	Timeout time.Duration
	// Once checks a single time and fails unless everything is serving.
	Once bool
	// Out receives the report of a single check; stdout when nil.
	Out io.Writer
}

// DefaultPollInterval is used when Options.PollInterval is not positive.
const DefaultPollInterval = 30 * time.Second

var (
	// ErrNoServerAddress indicates the health endpoint is not configured.
	ErrNoServerAddress = errors.New("no health endpoint address configured")
	// errNotServing is returned by a single check when something is down.
	errNotServing = errors.New("not every service is serving")
)

// Run watches the server's health endpoint and logs every status change.
// With Options.Once it checks a single time instead.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "lost-alarm-checker")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	address, err := resolveServerAddress(settings.GRPC.ListenAddress, opts.ServerAddress)
	if err != nil {
		return err
	}

	client, err := health.Dial(address, health.WithCallTimeout(opts.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	services := watchedServices(settings)

	if opts.Once {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}

		return checkOnce(ctx, client, services, out)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.InfoKV(ctx, "Watching server health", "server_address", address, "interval", interval.String())

	w := newWatcher(client, services)
	w.poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// watchedServices is the whole server plus every enabled channel.
func watchedServices(settings *config.Config) []string {
	services := []string{""}

	if settings.Telegram.Enabled {
		services = append(services, channel.Telegram)
	}

	if settings.WhatsApp.Enabled {
		services = append(services, channel.WhatsApp)
	}

	return services
}

// checker is what the watcher needs from the health client.
type checker interface {
	Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error)
}

func checkOnce(ctx context.Context, client checker, services []string, out io.Writer) error {
	healthy := true

	for _, service := range services {
		status, err := client.Check(ctx, service)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "%s: %s\n", displayName(service), status)

		if status != healthpb.HealthCheckResponse_SERVING {
			healthy = false
		}
	}

	if !healthy {
		return errNotServing
	}

	return nil
}

// watcher remembers the last status of each service.
type watcher struct {
	client   checker
	services []string
	last     map[string]healthpb.HealthCheckResponse_ServingStatus
}

func newWatcher(client checker, services []string) *watcher {
	return &watcher{
		client:   client,
		services: services,
		last:     make(map[string]healthpb.HealthCheckResponse_ServingStatus, len(services)),
	}
}

// poll checks every service and logs the ones whose status changed.
func (w *watcher) poll(ctx context.Context) {
	for _, service := range w.services {
		status, err := w.client.Check(ctx, service)
		if err != nil {
			logger.ErrorKV(ctx, "Health check failed", "service", displayName(service), "error", err)

			status = healthpb.HealthCheckResponse_UNKNOWN
		}

		previous, seen := w.last[service]
		if seen && previous == status {
			continue
		}

		w.last[service] = status

		if status == healthpb.HealthCheckResponse_SERVING {
			logger.InfoKV(ctx, "Service status", "service", displayName(service), "status", status.String())
		} else {
			logger.WarnKV(ctx, "Service status", "service", displayName(service), "status", status.String())
		}
	}
}

func displayName(service string) string {
	if service == "" {
		return "server"
	}

	return service
}

// resolveServerAddress picks the override or the configured listen address,
// dialing loopback when the configured address has no host.
func resolveServerAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port), nil
}
