// Package ingest persists incoming chat messages: it maintains chat and user
// records and their membership relation, then stores the message metadata and
// its body text for language analytics.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanAmador/Fagbot/internal/database"
	"github.com/DanAmador/Fagbot/internal/langdetect"
)

// ErrEmptyMessage is returned when an event carries no text. Language
// detection requires non-empty input, so empty events are rejected up front.
var ErrEmptyMessage = errors.New("ingest: message text is empty")

// Event carries one incoming chat message and its sender/chat metadata.
type Event struct {
	UpdateID  int64
	MessageID int64
	Date      time.Time

	ChatID    int64
	ChatTitle string
	ChatType  string

	UserID    int64
	FirstName string
	LastName  string
	Username  string

	Text string
}

// Service ingests chat message events into the store.
type Service struct {
	store    database.Store
	detector langdetect.Detector
	logger   *slog.Logger
}

// NewService creates an ingestion service.
func NewService(store database.Store, detector langdetect.Detector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		detector: detector,
		logger:   logger.With("component", "ingest"),
	}
}

// Ingest records one chat message. It upserts the owning chat and the sending
// user, registers the membership pair, then persists a Text record followed
// by a Message record. The two inserts are not atomic: a crash in between
// leaves an orphan text, which is accepted.
func (s *Service) Ingest(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Text) == "" {
		return ErrEmptyMessage
	}

	chat := &database.Chat{
		ChatID:    event.ChatID,
		Title:     event.ChatTitle,
		Type:      event.ChatType,
		CreatedAt: event.Date,
	}
	if err := s.store.EnsureChat(ctx, chat); err != nil {
		return fmt.Errorf("failed to ensure chat: %w", err)
	}

	user := &database.User{
		UserID:    event.UserID,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Username:  event.Username,
	}
	if err := s.store.EnsureUser(ctx, user); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	if err := s.store.AddChatMember(ctx, event.ChatID, event.UserID); err != nil {
		return fmt.Errorf("failed to add chat member: %w", err)
	}

	language, err := s.detector.Detect(event.Text)
	if err != nil {
		return fmt.Errorf("failed to detect language: %w", err)
	}

	wordCount := len(strings.Fields(event.Text))

	text := &database.Text{
		Content:  event.Text,
		Date:     event.Date,
		Language: language,
		Indexed:  false,
	}
	if err := s.store.SaveText(ctx, text); err != nil {
		return fmt.Errorf("failed to save text: %w", err)
	}

	message := &database.Message{
		Date:      event.Date,
		UserID:    event.UserID,
		ChatID:    event.ChatID,
		MessageID: event.MessageID,
		UpdateID:  event.UpdateID,
		WordCount: wordCount,
		Language:  language,
	}
	if err := s.store.SaveMessage(ctx, message); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	s.logger.DebugContext(ctx, "Message ingested",
		"chat_id", event.ChatID, "user_id", event.UserID,
		"word_count", wordCount, "language", language)
	return nil
}
