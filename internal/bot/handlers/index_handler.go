package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewIndexHandler returns a handler for the admin-only /index command, which
// appends all unindexed texts of a language to its on-disk corpus file.
func NewIndexHandler(deps HandlerDeps) bot.HandlerFunc {
	return indexHandler{deps}.Handle
}

type indexHandler struct {
	deps HandlerDeps
}

func (h indexHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "index")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Index handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.reply(ctx, b, chatID, "Usage: /index <language code>", log)
		return
	}
	language := args[0]

	processed, err := h.deps.Indexer.IndexByLanguage(ctx, language)
	if err != nil {
		// Records processed before the failure are already marked indexed.
		log.ErrorContext(ctx, "Indexing failed", "error", err, "language", language, "processed", len(processed))
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("Indexed %d new texts for language %q.", len(processed), language), log)
}

func (h indexHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send index reply", "error", err, "chat_id", chatID)
	}
}
