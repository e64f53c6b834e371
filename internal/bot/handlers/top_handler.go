package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const defaultTopCount = 5

// NewTopHandler returns a handler for the /top command, which replies with
// the chat's most active senders ranked by message count.
func NewTopHandler(deps HandlerDeps) bot.HandlerFunc {
	return topHandler{deps}.Handle
}

type topHandler struct {
	deps HandlerDeps
}

func (h topHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "top")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Top handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	topN := defaultTopCount
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			topN = n
		}
	}

	senders, err := h.deps.Analytics.TopSenders(ctx, chatID, topN)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute top senders", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}
	if len(senders) == 0 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.EmptyChat, log)
		return
	}

	var sb strings.Builder
	for i, sender := range senders {
		fmt.Fprintf(&sb, "%d. %s: %d messages\n", i+1, sender.Name, sender.Messages)
	}
	h.reply(ctx, b, chatID, strings.TrimRight(sb.String(), "\n"), log)
}

func (h topHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send top reply", "error", err, "chat_id", chatID)
	}
}
