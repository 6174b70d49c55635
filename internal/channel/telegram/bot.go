package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// errTokenRequired is returned when the bot token is not configured.
var errTokenRequired = errors.New("telegram bot token is empty")

// Bot is the Telegram backend: it sends alerts and long-polls for commands.
type Bot struct {
	// api is the Bot API client.
	api *tgbotapi.BotAPI
	// pollTimeout is the getUpdates long-polling timeout in seconds.
	pollTimeout int
}

var _ channel.Backend = (*Bot)(nil)

// New connects to the Bot API and verifies the token with getMe.
// A nil client gets one whose timeout also covers a full long poll.
func New(cfg config.Telegram, client *http.Client) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: %w", alert.ErrBackendInit, errTokenRequired)
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout + time.Duration(cfg.PollTimeout)*time.Second}
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram getMe: %w", alert.ErrBackendInit, err)
	}

	return &Bot{
		api:         api,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Name implements channel.Backend.
func (b *Bot) Name() string {
	return channel.Telegram
}

// Username returns the bot's @username as reported by getMe.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Send delivers HTML text to a numeric chat ID or an @channel username.
func (b *Bot) Send(ctx context.Context, recipient, text string) error {
	msg, err := newMessage(recipient, text)
	if err != nil {
		return err
	}

	msg.ParseMode = tgbotapi.ModeHTML

	return b.send(ctx, msg)
}

// sendPlain delivers text without markup, used for command replies.
func (b *Bot) sendPlain(ctx context.Context, recipient, text string) error {
	msg, err := newMessage(recipient, text)
	if err != nil {
		return err
	}

	return b.send(ctx, msg)
}

// send honors cancellation before handing the message to the client.
func (b *Bot) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}

	return nil
}

// newMessage builds a message config for a chat ID or channel username.
func newMessage(recipient, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(recipient, "@") {
		return tgbotapi.NewMessageToChannel(recipient, text), nil
	}

	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}

	return tgbotapi.NewMessage(chatID, text), nil
}
