package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/lost-alarm/internal/api/grpc/health"
	httpapi "github.com/oshokin/lost-alarm/internal/api/http"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
	"github.com/oshokin/lost-alarm/internal/repository/visitors"
	"github.com/oshokin/lost-alarm/internal/service/common"
	"github.com/oshokin/lost-alarm/internal/service/presence"
	"github.com/oshokin/lost-alarm/internal/service/subscription"
	"github.com/oshokin/lost-alarm/internal/version"
)

// Options controls the lost-alarm-server process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides http.listen_addr when not empty.
	ListenAddress string
}

// Run loads the settings, wires every component and serves until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		settings.HTTP.ListenAddress = opts.ListenAddress
	}

	if err = common.ApplyLogging(settings); err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "lost-alarm-server")

	logger.InfoKV(ctx, "Starting", "version", version.Full())

	m := metrics.New()
	channels := common.BuildChannels(ctx, settings, m)
	hub := presence.NewHub(m)

	routerOpts := httpapi.Options{
		Reporter:       channels.Reporting,
		Visitors:       visitors.NewFileRepository(settings.VisitorLogFile),
		Presence:       hub,
		Metrics:        m,
		StaticDir:      settings.HTTP.StaticDir,
		RequestTimeout: settings.HTTP.RequestTimeout,
	}

	if channels.WhatsApp != nil {
		handler, err := subscription.New(
			settings.Subscription.Keyword,
			channels.Registries[channels.WhatsApp.Name()],
			m,
		)
		if err != nil {
			return fmt.Errorf("build whatsapp command handler: %w", err)
		}

		routerOpts.Webhook = &httpapi.WhatsAppWebhook{
			VerifyToken: settings.WhatsApp.VerifyToken,
			Responder:   channels.WhatsApp,
			Handler:     handler,
		}
	}

	var telegramHandler *subscription.Handler

	if channels.Telegram != nil {
		telegramHandler, err = subscription.New(
			settings.Subscription.Keyword,
			channels.Registries[channels.Telegram.Name()],
			m,
		)
		if err != nil {
			return fmt.Errorf("build telegram command handler: %w", err)
		}
	}

	lc := net.ListenConfig{}

	httpListener, err := lc.Listen(ctx, "tcp", settings.HTTP.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.HTTP.ListenAddress, err)
	}

	var grpcListener net.Listener

	if settings.GRPC.ListenAddress != "" {
		grpcListener, err = lc.Listen(ctx, "tcp", settings.GRPC.ListenAddress)
		if err != nil {
			_ = httpListener.Close()

			return fmt.Errorf("listen on %s: %w", settings.GRPC.ListenAddress, err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return serveHTTP(groupCtx, httpListener, httpapi.NewRouter(ctx, routerOpts), settings.HTTP, hub)
	})

	if grpcListener != nil {
		healthServer := health.NewServer(channels.Enabled()...)
		for _, name := range channels.Enabled() {
			healthServer.SetChannelStatus(name, channels.Ready(name))
		}

		group.Go(func() error {
			return healthServer.Serve(groupCtx, grpcListener)
		})
	}

	if telegramHandler != nil {
		group.Go(func() error {
			return channels.Telegram.Listen(groupCtx, telegramHandler)
		})
	}

	err = group.Wait()

	logger.Info(ctx, "Server stopped")

	return err
}

// serveHTTP serves lis until ctx is canceled, then shuts down gracefully.
func serveHTTP(
	ctx context.Context,
	lis net.Listener,
	router *httpapi.Router,
	settings config.HTTP,
	hub *presence.Hub,
) error {
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: settings.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// Closed after Shutdown so serveHTTP does not return before the drain ends.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.ShutdownTimeout)
		defer cancel()

		// Websockets are hijacked and not tracked by Shutdown.
		hub.Close()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "HTTP shutdown incomplete", "error", err)
		}

		// Webhook replies outlive their requests.
		router.Wait()
	}()

	logger.InfoKV(ctx, "HTTP server listening", "listen_address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done

	return nil
}
