package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/metrics"
	"github.com/oshokin/lost-alarm/internal/repository/subscribers"
)

// Action tells what a handled message did.
type Action int

const (
	// ActionNone means the message was answered without side effects.
	ActionNone Action = iota
	// ActionSubscribed means the sender was added to the registry.
	ActionSubscribed
	// ActionAlreadySubscribed means the sender was in the registry already.
	ActionAlreadySubscribed
	// ActionFailed means the registry could not be updated.
	ActionFailed
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionSubscribed:
		return "subscribed"
	case ActionAlreadySubscribed:
		return "already_subscribed"
	case ActionFailed:
		return "failed"
	default:
		return "none"
	}
}

// Reply texts.
const (
	GreetingText = "Soy un bot. ¿En qué puedo ayudarte?"
	//nolint:lll // User-facing text.
	SubscribedText = "¡Ahora estás en la lista! Recibirás notificaciones cuando alguien necesite ayuda."
	//nolint:lll // User-facing text.
	AlreadySubscribedText = "Ya estás en la lista. Recibirás notificaciones cuando alguien necesite ayuda."
	FailureText           = "❌ Error al registrarte. Por favor, inténtalo de nuevo más tarde."
)

const (
	commandStart    = "start"
	commandHelp     = "help"
	commandPersonas = "personas"
)

var errEmptyKeyword = errors.New("subscription keyword must not be empty")

// Reply is the outcome of handling one message.
type Reply struct {
	Text   string
	Action Action
}

// Handler implements channel.InboundHandler on top of a subscriber registry.
type Handler struct {
	keyword  string
	registry subscribers.Registry
	metrics  *metrics.Metrics
}

var _ channel.InboundHandler = (*Handler)(nil)

// New builds a handler that subscribes chats writing keyword. m may be nil.
func New(keyword string, registry subscribers.Registry, m *metrics.Metrics) (*Handler, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, errEmptyKeyword
	}

	return &Handler{
		keyword:  keyword,
		registry: registry,
		metrics:  m,
	}, nil
}

// Commands lists the bot commands in the order clients show them.
func (h *Handler) Commands() []channel.Command {
	return []channel.Command{
		{Name: commandStart, Description: "Iniciar el bot"},
		{Name: commandHelp, Description: "Mostrar ayuda"},
		{Name: commandPersonas, Description: "Cómo registrarse"},
		{Name: h.keyword, Description: "Unirte a las notificaciones"},
	}
}

// Reply implements channel.InboundHandler. Registry errors are logged and
// answered with the failure text.
func (h *Handler) Reply(ctx context.Context, msg channel.Message) string {
	reply, err := h.Handle(ctx, msg)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to register subscriber", "from", msg.From, "error", err)
	}

	return reply.Text
}

// Handle interprets msg and registers its sender when it asks to subscribe.
func (h *Handler) Handle(ctx context.Context, msg channel.Message) (Reply, error) {
	text := strings.TrimSpace(msg.Text)

	if command, ok := parseCommand(text); ok {
		switch command {
		case h.keyword:
			return h.subscribe(ctx, msg.From)
		case commandStart:
			return Reply{Text: GreetingText}, nil
		case commandPersonas:
			return Reply{Text: h.instructions()}, nil
		default:
			return Reply{Text: h.help()}, nil
		}
	}

	if strings.Contains(strings.ToLower(text), h.keyword) {
		return h.subscribe(ctx, msg.From)
	}

	return Reply{Text: h.help()}, nil
}

// subscribe adds id to the registry unless it is already there.
func (h *Handler) subscribe(ctx context.Context, id string) (Reply, error) {
	reply, err := h.register(ctx, id)
	h.metrics.ObserveSubscription(reply.Action.String())

	return reply, err
}

func (h *Handler) register(ctx context.Context, id string) (Reply, error) {
	added, err := h.registry.Register(ctx, id)
	if err != nil {
		return Reply{Text: FailureText, Action: ActionFailed}, err
	}

	if !added {
		return Reply{Text: AlreadySubscribedText, Action: ActionAlreadySubscribed}, nil
	}

	logger.InfoKV(ctx, "New subscriber registered", "id", id)

	return Reply{Text: SubscribedText, Action: ActionSubscribed}, nil
}

func (h *Handler) instructions() string {
	return fmt.Sprintf("Para registrarte y recibir notificaciones, escribe %q en el chat.", h.keyword)
}

func (h *Handler) help() string {
	var b strings.Builder

	b.WriteString("Comandos disponibles:\n")

	for _, c := range h.Commands() {
		fmt.Fprintf(&b, "/%s - %s\n", c.Name, c.Description)
	}

	b.WriteString("\n")
	b.WriteString(h.instructions())

	return b.String()
}

// parseCommand returns the lower-cased command name of "/name@bot args".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	name, _, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")

	return strings.ToLower(name), true
}
