// Package channel defines what the core needs from a messaging backend.
//
// Backends live in sub-packages; each one composes alerts in its own markup
// and delivers plain text to an opaque recipient identifier.
package channel

import (
	"context"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// Channel names used in routes, config sections, metrics and health checks.
const (
	Telegram = "telegram"
	WhatsApp = "whatsapp"
)

// Sender delivers formatted text to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// Composer renders a report in the backend's markup.
type Composer interface {
	Compose(r *alert.Report) string
}

// Backend is a complete outbound messaging backend.
type Backend interface {
	Sender
	Composer
	// Name returns one of the channel name constants.
	Name() string
}

// Message is an inbound chat message.
type Message struct {
	// From is the sender's recipient identifier on the same backend.
	From string
	// Text is the raw message body.
	Text string
}

// Command describes a bot command for clients that show suggestions.
type Command struct {
	Name        string
	Description string
}

// InboundHandler answers inbound chat messages.
type InboundHandler interface {
	// Reply returns the text to send back to msg.From; empty means no reply.
	Reply(ctx context.Context, msg Message) string
	// Commands lists the commands the handler understands.
	Commands() []Command
}
