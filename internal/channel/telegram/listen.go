package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/logger"
)

// Listen long-polls for updates and answers text messages through handler.
// It blocks until ctx is canceled.
func (b *Bot) Listen(ctx context.Context, handler channel.InboundHandler) error {
	ctx = logger.WithName(ctx, "telegram-listener")

	b.registerCommands(ctx, handler.Commands())

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	logger.InfoKV(ctx, "Listening for Telegram updates", "bot", b.Username())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Telegram listener stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, handler, update)
		}
	}
}

// handleUpdate answers one text message. Non-text updates are ignored.
func (b *Bot) handleUpdate(ctx context.Context, handler channel.InboundHandler, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	ctx = logger.WithKV(ctx, "chat_id", chatID, "update_id", update.UpdateID)

	logger.DebugKV(ctx, "Telegram message received", "text", msg.Text)

	reply := handler.Reply(ctx, channel.Message{From: chatID, Text: msg.Text})
	if reply == "" {
		return
	}

	if err := b.sendPlain(ctx, chatID, reply); err != nil {
		logger.ErrorKV(ctx, "Failed to reply on Telegram", "error", err)
	}
}

// registerCommands publishes the command list shown by Telegram clients.
func (b *Bot) registerCommands(ctx context.Context, commands []channel.Command) {
	if len(commands) == 0 {
		return
	}

	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{
			Command:     c.Name,
			Description: c.Description,
		})
	}

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		logger.WarnKV(ctx, "Could not register Telegram commands", "error", err)
	}
}
