package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
	"github.com/oshokin/lost-alarm/internal/repository/subscribers"
)

// DefaultConcurrency is used when Config.Concurrency is not positive.
const DefaultConcurrency = 8

var (
	errNoSender   = errors.New("no sender configured")
	errNoRegistry = errors.New("no subscriber registry configured")
)

// Config wires a dispatcher for one channel.
type Config struct {
	// Channel names the backend in logs, metrics and summaries.
	Channel string
	// Sender delivers the message.
	Sender channel.Sender
	// Registry lists the channel's subscribers.
	Registry subscribers.Registry
	// Admin always receives the message, first.
	Admin string
	// Concurrency caps simultaneous deliveries.
	Concurrency int
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Dispatcher broadcasts messages over one channel.
type Dispatcher struct {
	channel     string
	sender      channel.Sender
	registry    subscribers.Registry
	admin       string
	concurrency int
	metrics     *metrics.Metrics
}

// New builds a dispatcher. Missing dependencies surface on Broadcast.
func New(cfg Config) *Dispatcher {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Dispatcher{
		channel:     cfg.Channel,
		sender:      cfg.Sender,
		registry:    cfg.Registry,
		admin:       strings.TrimSpace(cfg.Admin),
		concurrency: concurrency,
		metrics:     cfg.Metrics,
	}
}

// Channel returns the channel name.
func (d *Dispatcher) Channel() string {
	return d.channel
}

// Broadcast sends text to the administrator and every subscriber.
//
// The error is non-nil only when the broadcast could not start: a missing
// sender (alert.ErrBackendInit) or an unreadable registry (alert.ErrRegistryIO).
// Per-recipient failures are reported in the summary.
//
// Once the recipients are loaded, canceling ctx no longer stops delivery:
// every recipient is attempted and each send is bounded by its backend timeout.
func (d *Dispatcher) Broadcast(ctx context.Context, text string) (*alert.Summary, error) {
	if d.sender == nil {
		return nil, fmt.Errorf("%w: %s: %w", alert.ErrBackendInit, d.channel, errNoSender)
	}

	if d.registry == nil {
		return nil, fmt.Errorf("%w: %s: %w", alert.ErrBackendInit, d.channel, errNoRegistry)
	}

	summary := &alert.Summary{
		ID:      uuid.NewString(),
		Channel: d.channel,
	}

	ctx = logger.WithName(ctx, "broadcast")
	ctx = logger.WithKV(ctx, "broadcast_id", summary.ID, "channel", d.channel)

	subscribed, err := d.registry.Load(ctx)
	if err != nil {
		if !errors.Is(err, alert.ErrRegistryIO) {
			err = fmt.Errorf("%w: %w", alert.ErrRegistryIO, err)
		}

		logger.ErrorKV(ctx, "Failed to load subscribers", "error", err)

		return nil, err
	}

	recipients := Recipients(d.admin, subscribed)
	summary.Outcomes = make([]alert.Outcome, len(recipients))

	logger.InfoKV(ctx, "Broadcast started", "recipients", len(recipients))

	// Keeps the logger values but not the caller's deadline or cancellation.
	sendCtx := context.WithoutCancel(ctx)

	var group errgroup.Group

	group.SetLimit(d.concurrency)

	for i, recipient := range recipients {
		group.Go(func() error {
			summary.Outcomes[i] = d.deliver(sendCtx, recipient, text)

			return nil
		})
	}

	// Workers never return errors.
	_ = group.Wait()

	logger.InfoKV(ctx, "Broadcast finished",
		"delivered", summary.Delivered(),
		"total", summary.Total(),
	)

	return summary, nil
}

// deliver sends to one recipient and records the attempt.
func (d *Dispatcher) deliver(ctx context.Context, recipient, text string) alert.Outcome {
	started := time.Now()
	err := d.sender.Send(ctx, recipient, text)
	took := time.Since(started)

	d.metrics.ObserveDelivery(d.channel, err == nil, took)

	if err != nil {
		err = &alert.DeliveryError{Recipient: recipient, Err: err}
		logger.WarnKV(ctx, "Delivery failed", "recipient", recipient, "error", err)
	} else {
		logger.DebugKV(ctx, "Delivered", "recipient", recipient, "took", took)
	}

	return alert.Outcome{
		Recipient: recipient,
		Err:       err,
		Duration:  took,
	}
}

// Recipients returns admin followed by the subscribers, without duplicates
// and in registry order. An empty admin is skipped.
func Recipients(admin string, subscribed []string) []string {
	seen := make(map[string]struct{}, len(subscribed)+1)
	out := make([]string, 0, len(subscribed)+1)

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}

		if _, ok := seen[id]; ok {
			return
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(admin)

	for _, id := range subscribed {
		add(id)
	}

	return out
}
