// Package reporting turns a location report into a broadcast on one channel.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
)

// Journal stores the audit trail of reports.
type Journal interface {
	Record(ctx context.Context, r *alert.Report) error
}

// Broadcaster fans a message out over one channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (*alert.Summary, error)
}

// Request carries the raw report fields as received.
type Request struct {
	Name      string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

var errUnknownChannel = errors.New("channel is not enabled")

// route pairs a composer with the dispatcher of the same channel.
type route struct {
	composer    channel.Composer
	broadcaster Broadcaster
}

// Service validates, journals, composes and broadcasts reports.
type Service struct {
	routes  map[string]route
	journal Journal
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a service without channels. journal and m may be nil.
func New(journal Journal, m *metrics.Metrics) *Service {
	return &Service{
		routes:  make(map[string]route),
		journal: journal,
		metrics: m,
		now:     time.Now,
	}
}

// Enable routes reports for name through composer and broadcaster.
// It must be called before the service is shared between goroutines.
func (s *Service) Enable(name string, composer channel.Composer, broadcaster Broadcaster) {
	s.routes[name] = route{
		composer:    composer,
		broadcaster: broadcaster,
	}
}

// Channels returns the enabled channel names, sorted.
func (s *Service) Channels() []string {
	names := make([]string, 0, len(s.routes))
	for name := range s.routes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Report handles one location report for the named channel.
//
// Validation failures wrap alert.ErrValidation and nothing is recorded.
// A disabled channel wraps alert.ErrBackendInit after the report is journaled.
func (s *Service) Report(ctx context.Context, channelName string, req Request) (*alert.Summary, error) {
	ctx = logger.WithName(ctx, "alert")
	ctx = logger.WithKV(ctx, "channel", channelName)

	report, err := alert.NewReport(req.Name, req.Phone, req.Latitude, req.Longitude)
	if err != nil {
		s.metrics.ObserveReport(channelName, "invalid")
		logger.WarnKV(ctx, "Rejected location report", "error", err)

		return nil, err
	}

	report.ReceivedAt = s.now()

	if s.journal != nil {
		if err := s.journal.Record(ctx, report); err != nil {
			logger.ErrorKV(ctx, "Failed to journal location report", "error", err)
		}
	}

	r, ok := s.routes[channelName]
	if !ok {
		s.metrics.ObserveReport(channelName, "unavailable")

		return nil, fmt.Errorf("%w: %s: %w", alert.ErrBackendInit, channelName, errUnknownChannel)
	}

	logger.InfoKV(ctx, "Location report received",
		"name", report.Name,
		"location", report.Location.String(),
	)

	summary, err := r.broadcaster.Broadcast(ctx, r.composer.Compose(report))
	if err != nil {
		s.metrics.ObserveReport(channelName, "error")

		return nil, fmt.Errorf("broadcast report: %w", err)
	}

	s.metrics.ObserveReport(channelName, "ok")

	return summary, nil
}

// Notify broadcasts free text on the named channel.
func (s *Service) Notify(ctx context.Context, channelName, text string) (*alert.Summary, error) {
	r, ok := s.routes[channelName]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", alert.ErrBackendInit, channelName, errUnknownChannel)
	}

	summary, err := r.broadcaster.Broadcast(logger.WithName(ctx, "notify"), text)
	if err != nil {
		return nil, fmt.Errorf("broadcast message: %w", err)
	}

	return summary, nil
}
