package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/DanAmador/Fagbot/internal/analytics"
)

// NewCountHandler returns a handler for the /count command. Without
// arguments it reports chat-wide totals; with a first name it reports that
// member's totals within the chat.
func NewCountHandler(deps HandlerDeps) bot.HandlerFunc {
	return countHandler{deps}.Handle
}

type countHandler struct {
	deps HandlerDeps
}

func (h countHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "count")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Count handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	nameTokens := commandArgs(update.Message.Text)

	result, err := h.deps.Analytics.Count(ctx, chatID, nameTokens)
	if err != nil {
		reply := h.deps.Config.Messages.GeneralError
		switch {
		case errors.Is(err, analytics.ErrUserNotFound):
			reply = h.deps.Config.Messages.UserNotFound
		case errors.Is(err, analytics.ErrChatNotFound):
			reply = h.deps.Config.Messages.EmptyChat
		default:
			log.ErrorContext(ctx, "Failed to compute count", "error", err, "chat_id", chatID)
		}
		h.send(ctx, b, chatID, reply, log)
		return
	}

	reply := fmt.Sprintf("%s: %d messages, %d words", result.DisplayName, result.Messages, result.Words)
	h.send(ctx, b, chatID, reply, log)
}

func (h countHandler) send(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send count reply", "error", err, "chat_id", chatID)
	}
}
