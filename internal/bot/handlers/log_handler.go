package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/DanAmador/Fagbot/internal/ingest"
)

// NewLogMessageHandler creates the default handler that records every text
// message the bot sees into the store. Non-text updates (stickers, photos,
// joins) are skipped upstream of the ingestion service.
func NewLogMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return logMessageHandler{deps}.Handle
}

type logMessageHandler struct {
	deps HandlerDeps
}

func (h logMessageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "log_message")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring non-text message", "chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}
	// Commands are handled by their own handlers and stay out of the log.
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	event := ingest.Event{
		UpdateID:  update.ID,
		MessageID: int64(msg.ID),
		Date:      time.Unix(int64(msg.Date), 0),
		ChatID:    msg.Chat.ID,
		ChatTitle: msg.Chat.Title,
		ChatType:  string(msg.Chat.Type),
		UserID:    msg.From.ID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.Username,
		Text:      msg.Text,
	}

	if err := h.deps.Ingest.Ingest(ctx, event); err != nil {
		if errors.Is(err, ingest.ErrEmptyMessage) {
			return
		}
		log.ErrorContext(ctx, "Failed to ingest message",
			"error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
	}
}
