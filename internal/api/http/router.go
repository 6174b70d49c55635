package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
	"github.com/oshokin/lost-alarm/internal/repository/visitors"
	"github.com/oshokin/lost-alarm/internal/service/reporting"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Reporter handles location reports.
type Reporter interface {
	Report(ctx context.Context, channelName string, req reporting.Request) (*alert.Summary, error)
}

// Presence serves the websocket endpoint and exposes the online count.
type Presence interface {
	http.Handler
	Count() int
}

// WebhookResponder sends replies to inbound WhatsApp messages.
type WebhookResponder interface {
	Respond(ctx context.Context, msgs []channel.Message, handler channel.InboundHandler)
}

// WhatsAppWebhook enables the webhook routes when set.
type WhatsAppWebhook struct {
	// VerifyToken must match hub.verify_token on the verification request.
	VerifyToken string
	Responder   WebhookResponder
	Handler     channel.InboundHandler
}

// Options wires the router.
type Options struct {
	Reporter Reporter
	Visitors visitors.Repository
	Presence Presence
	Metrics  *metrics.Metrics
	// Webhook is nil when WhatsApp is disabled.
	Webhook *WhatsAppWebhook
	// StaticDir is served under / when not empty.
	StaticDir string
	// RequestTimeout bounds every /api request.
	RequestTimeout time.Duration
}

// handler holds the route dependencies.
type handler struct {
	opts Options
	// replies tracks webhook replies sent after the request was acknowledged.
	replies sync.WaitGroup
}

// Router serves the HTTP API.
type Router struct {
	http.Handler

	h *handler
}

// Wait blocks until every pending webhook reply has been sent.
// Call it after the HTTP server stopped accepting requests.
func (r *Router) Wait() {
	r.h.replies.Wait()
}

// NewRouter builds the chi router. ctx provides the base logger.
func NewRouter(ctx context.Context, opts Options) *Router {
	h := &handler{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger.FromContext(logger.WithName(ctx, "http"))))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Post("/telegram/send", h.handleReport(channel.Telegram, "Telegram"))
		r.Post("/whatsapp/send", h.handleReport(channel.WhatsApp, "WhatsApp"))

		if opts.Webhook != nil {
			r.Get("/whatsapp/webhook", h.handleWebhookVerify)
			r.Post("/whatsapp/webhook", h.handleWebhook)
		}

		if opts.Visitors != nil {
			r.Post("/log-visitor", h.handleLogVisitor)
			r.Get("/log-visitor", h.handleListVisitors)
		}

		if opts.Presence != nil {
			r.Get("/online", h.handleOnline)
		}
	})

	if opts.Presence != nil {
		r.Handle("/socket", opts.Presence)
	}

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return &Router{Handler: r, h: h}
}
