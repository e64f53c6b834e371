package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/DanAmador/Fagbot/internal/analytics"
)

// NewStatsHandler returns a handler for the /stats command. It replies with
// the chat summary naming the most active and most verbose member.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	summary, err := h.deps.Analytics.Summarize(ctx, chatID)
	if err != nil {
		reply := h.deps.Config.Messages.GeneralError
		if errors.Is(err, analytics.ErrNoMessages) || errors.Is(err, analytics.ErrChatNotFound) {
			reply = h.deps.Config.Messages.EmptyChat
		} else {
			log.ErrorContext(ctx, "Failed to summarize chat", "error", err, "chat_id", chatID)
		}
		summary = reply
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: summary}); err != nil {
		log.ErrorContext(ctx, "Failed to send stats reply", "error", err, "chat_id", chatID)
	}
}
