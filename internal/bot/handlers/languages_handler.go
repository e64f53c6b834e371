package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLanguagesHandler returns a handler for the /languages command, which
// replies with the number of stored texts per detected language. An optional
// language-code argument narrows the reply to that language.
func NewLanguagesHandler(deps HandlerDeps) bot.HandlerFunc {
	return languagesHandler{deps}.Handle
}

type languagesHandler struct {
	deps HandlerDeps
}

func (h languagesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "languages")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Languages handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	language := ""
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		language = args[0]
	}

	histogram, err := h.deps.Indexer.LanguageHistogram(ctx, language)
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute language histogram", "error", err)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError, log)
		return
	}
	if len(histogram) == 0 {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.EmptyChat, log)
		return
	}

	codes := make([]string, 0, len(histogram))
	for code := range histogram {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var sb strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&sb, "%s: %d\n", code, histogram[code])
	}
	h.reply(ctx, b, chatID, strings.TrimRight(sb.String(), "\n"), log)
}

func (h languagesHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send languages reply", "error", err, "chat_id", chatID)
	}
}
