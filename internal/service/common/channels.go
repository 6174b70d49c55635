//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/channel/telegram"
	"github.com/oshokin/lost-alarm/internal/channel/whatsapp"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
	"github.com/oshokin/lost-alarm/internal/repository/journal"
	"github.com/oshokin/lost-alarm/internal/repository/subscribers"
	"github.com/oshokin/lost-alarm/internal/service/broadcast"
	"github.com/oshokin/lost-alarm/internal/service/reporting"
)

// Channels is every enabled messaging channel, ready to broadcast.
type Channels struct {
	// Reporting routes reports to the channels that started.
	Reporting *reporting.Service
	// Telegram is nil when disabled or unreachable.
	Telegram *telegram.Bot
	// WhatsApp is nil when disabled or misconfigured.
	WhatsApp *whatsapp.Client
	// Registries holds the subscriber registry of each enabled channel.
	Registries map[string]*subscribers.FileRegistry
	// Failures holds the init error of each enabled channel that did not start.
	Failures map[string]error
}

// Enabled returns the names of the channels turned on in the settings.
func (c *Channels) Enabled() []string {
	names := make([]string, 0, len(c.Registries))

	for _, name := range []string{channel.Telegram, channel.WhatsApp} {
		if _, ok := c.Registries[name]; ok {
			names = append(names, name)
		}
	}

	return names
}

// Ready reports whether the named channel started.
func (c *Channels) Ready(name string) bool {
	_, registered := c.Registries[name]
	_, failed := c.Failures[name]

	return registered && !failed
}

// BuildChannels constructs every enabled backend. A backend that cannot start
// is logged and left out; reports on it fail with alert.ErrBackendInit.
func BuildChannels(ctx context.Context, settings *config.Config, m *metrics.Metrics) *Channels {
	ctx = logger.WithName(ctx, "channels")

	c := &Channels{
		Reporting:  reporting.New(journal.NewFileJournal(settings.JournalFile), m),
		Registries: make(map[string]*subscribers.FileRegistry),
		Failures:   make(map[string]error),
	}

	if settings.Telegram.Enabled {
		registry := subscribers.NewFileRegistry(settings.Telegram.RegistryFile)
		c.Registries[channel.Telegram] = registry

		bot, err := telegram.New(settings.Telegram, nil)
		if err != nil {
			c.fail(ctx, channel.Telegram, err)
		} else {
			c.Telegram = bot
			c.enable(ctx, bot, registry, settings.Telegram.AdminChatID, settings, m)
		}
	}

	if settings.WhatsApp.Enabled {
		registry := subscribers.NewFileRegistry(settings.WhatsApp.RegistryFile)
		c.Registries[channel.WhatsApp] = registry

		client, err := whatsapp.New(settings.WhatsApp, nil)
		if err != nil {
			c.fail(ctx, channel.WhatsApp, err)
		} else {
			c.WhatsApp = client
			c.enable(ctx, client, registry, settings.WhatsApp.AdminPhone, settings, m)
		}
	}

	return c
}

func (c *Channels) enable(
	ctx context.Context,
	backend channel.Backend,
	registry subscribers.Registry,
	admin string,
	settings *config.Config,
	m *metrics.Metrics,
) {
	dispatcher := broadcast.New(broadcast.Config{
		Channel:     backend.Name(),
		Sender:      backend,
		Registry:    registry,
		Admin:       admin,
		Concurrency: settings.Broadcast.Concurrency,
		Metrics:     m,
	})

	c.Reporting.Enable(backend.Name(), backend, dispatcher)

	logger.InfoKV(ctx, "Channel ready", "channel", backend.Name())
}

func (c *Channels) fail(ctx context.Context, name string, err error) {
	c.Failures[name] = err

	logger.ErrorKV(ctx, "Channel unavailable", "channel", name, "error", err)
}
