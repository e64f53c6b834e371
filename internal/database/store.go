package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Store defines the record-oriented interface the ingestion, analytics, and
// indexing services consume. Methods accept context.Context for cancellation
// and timeouts. Lookup methods return nil, nil when no record matches.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// EnsureChat inserts a chat record if one doesn't already exist for its id.
	EnsureChat(ctx context.Context, chat *Chat) error

	// EnsureUser inserts a user record if one doesn't already exist for its id.
	EnsureUser(ctx context.Context, user *User) error

	// AddChatMember records that a user has posted in a chat. No-op when the
	// membership already exists.
	AddChatMember(ctx context.Context, chatID, userID int64) error

	// SaveMessage inserts a new message metadata record.
	SaveMessage(ctx context.Context, message *Message) error

	// SaveText inserts a new message body record for language indexing.
	SaveText(ctx context.Context, text *Text) error

	// GetChat retrieves a chat by its external id.
	GetChat(ctx context.Context, chatID int64) (*Chat, error)

	// GetUser retrieves a user by their external id.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// FindMemberByFirstName resolves a chat member by case-insensitive first
	// name. When several members share the name, the lowest user id wins.
	FindMemberByFirstName(ctx context.Context, chatID int64, firstName string) (*User, error)

	// ChatMemberIDs lists the ids of every user who has posted in the chat,
	// in ascending order.
	ChatMemberIDs(ctx context.Context, chatID int64) ([]int64, error)

	// ChatMessageStats returns the message count and word-count sum across
	// all messages in a chat.
	ChatMessageStats(ctx context.Context, chatID int64) (MessageStats, error)

	// UserMessageStats returns the message count and word-count sum for one
	// user's messages within a chat.
	UserMessageStats(ctx context.Context, chatID, userID int64) (MessageStats, error)

	// UnindexedTexts retrieves texts of the given language that haven't been
	// appended to the corpus file yet, in storage (insertion) order.
	UnindexedTexts(ctx context.Context, language string) ([]Text, error)

	// MarkTextIndexed flips a single text record's indexed flag to true.
	MarkTextIndexed(ctx context.Context, id uint) error

	// DistinctLanguages lists every language code present across all texts.
	DistinctLanguages(ctx context.Context) ([]string, error)

	// CountTextsByLanguage counts text records with the given language code.
	CountTextsByLanguage(ctx context.Context, language string) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// MessageStats aggregates a set of message records.
type MessageStats struct {
	Messages int64 `db:"message_count"`
	Words    int64 `db:"total_words"`
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureChat inserts the chat if absent. ON CONFLICT DO NOTHING makes the
// insert-if-absent atomic, so concurrent first-contact messages from the same
// chat cannot create duplicates.
func (s *sqlxStore) EnsureChat(ctx context.Context, chat *Chat) error {
	if chat == nil {
		return fmt.Errorf("cannot save nil chat")
	}
	if chat.ChatID == 0 {
		return fmt.Errorf("chat must have a non-zero chat_id")
	}

	query := `
        INSERT INTO chats (chat_id, title, type, created_at)
        VALUES (:chat_id, :title, :type, :created_at)
        ON CONFLICT (chat_id) DO NOTHING;
    `
	if _, err := s.db.NamedExecContext(ctx, query, chat); err != nil {
		s.logger.ErrorContext(ctx, "Error ensuring chat", "chat_id", chat.ChatID, "error", err)
		return fmt.Errorf("failed to ensure chat %d: %w", chat.ChatID, err)
	}

	s.logger.DebugContext(ctx, "Chat ensured", "chat_id", chat.ChatID)
	return nil
}

// EnsureUser inserts the user if absent, atomically.
func (s *sqlxStore) EnsureUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.UserID == 0 {
		return fmt.Errorf("user must have a non-zero user_id")
	}

	query := `
        INSERT INTO users (user_id, first_name, last_name, username)
        VALUES (:user_id, :first_name, :last_name, :username)
        ON CONFLICT (user_id) DO NOTHING;
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error ensuring user", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to ensure user %d: %w", user.UserID, err)
	}

	s.logger.DebugContext(ctx, "User ensured", "user_id", user.UserID)
	return nil
}

// AddChatMember inserts the membership pair, ignoring duplicates. The single
// chat_members relation backs both the chat's member set and the user's chat
// set, so the two stay consistent by construction.
func (s *sqlxStore) AddChatMember(ctx context.Context, chatID, userID int64) error {
	if chatID == 0 || userID == 0 {
		return fmt.Errorf("chat_id and user_id must be non-zero")
	}

	query := `INSERT OR IGNORE INTO chat_members (chat_id, user_id) VALUES (?, ?);`
	if _, err := s.db.ExecContext(ctx, query, chatID, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error adding chat member", "chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to add member %d to chat %d: %w", userID, chatID, err)
	}

	return nil
}

// SaveMessage inserts a new message metadata record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if message.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if message.Date.IsZero() {
		return fmt.Errorf("message must have a non-zero date")
	}

	query := `
        INSERT INTO messages (date, user_id, chat_id, message_id, update_id, word_count, language)
        VALUES (:date, :user_id, :chat_id, :message_id, :update_id, :word_count, :language);
    `
	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "chat_id", message.ChatID, "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message (chat %d, user %d): %w", message.ChatID, message.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		message.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"chat_id", message.ChatID, "user_id", message.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"chat_id", message.ChatID, "user_id", message.UserID, "word_count", message.WordCount)
	return nil
}

// SaveText inserts a new message body record with indexed=false.
func (s *sqlxStore) SaveText(ctx context.Context, text *Text) error {
	if text == nil {
		return fmt.Errorf("cannot save nil text")
	}
	if text.Content == "" {
		return fmt.Errorf("text must have non-empty content")
	}

	query := `
        INSERT INTO texts (content, date, language, indexed)
        VALUES (:content, :date, :language, :indexed);
    `
	result, err := s.db.NamedExecContext(ctx, query, text)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving text", "language", text.Language, "error", err)
		return fmt.Errorf("failed to save text: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		text.ID = uint(id)
	}

	return nil
}

// GetChat retrieves a chat by its external id. Returns nil, nil if not found.
func (s *sqlxStore) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var chat Chat
	query := `SELECT chat_id, title, type, created_at FROM chats WHERE chat_id = ?`

	err := s.db.GetContext(ctx, &chat, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No chat found", "chat_id", chatID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}

	return &chat, nil
}

// GetUser retrieves a user by their external id. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var user User
	query := `SELECT user_id, first_name, last_name, username FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", userID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// FindMemberByFirstName resolves a chat member by case-insensitive first name.
// Returns nil, nil when no member matches.
func (s *sqlxStore) FindMemberByFirstName(ctx context.Context, chatID int64, firstName string) (*User, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if firstName == "" {
		return nil, fmt.Errorf("first name cannot be empty")
	}

	var user User
	query := `
        SELECT u.user_id, u.first_name, u.last_name, u.username
        FROM users u
        JOIN chat_members cm ON cm.user_id = u.user_id
        WHERE cm.chat_id = ? AND LOWER(u.first_name) = LOWER(?)
        ORDER BY u.user_id
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &user, query, chatID, firstName)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No member matches first name", "chat_id", chatID, "first_name", firstName)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error finding member by first name", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to find member %q in chat %d: %w", firstName, chatID, err)
	}

	return &user, nil
}

// ChatMemberIDs lists the chat's member ids in ascending order.
func (s *sqlxStore) ChatMemberIDs(ctx context.Context, chatID int64) ([]int64, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var ids []int64
	query := `SELECT user_id FROM chat_members WHERE chat_id = ? ORDER BY user_id;`

	if err := s.db.SelectContext(ctx, &ids, query, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing chat members", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list members of chat %d: %w", chatID, err)
	}

	return ids, nil
}

// ChatMessageStats returns count and word sum for all messages in a chat.
// The word sum is a scan over the word_count column; no aggregate is stored.
func (s *sqlxStore) ChatMessageStats(ctx context.Context, chatID int64) (MessageStats, error) {
	if chatID == 0 {
		return MessageStats{}, fmt.Errorf("chat_id cannot be zero")
	}

	var stats MessageStats
	query := `
        SELECT COUNT(*) AS message_count, COALESCE(SUM(word_count), 0) AS total_words
        FROM messages
        WHERE chat_id = ?;
    `

	if err := s.db.GetContext(ctx, &stats, query, chatID); err != nil {
		s.logger.ErrorContext(ctx, "Error computing chat message stats", "chat_id", chatID, "error", err)
		return MessageStats{}, fmt.Errorf("failed to compute stats for chat %d: %w", chatID, err)
	}

	return stats, nil
}

// UserMessageStats returns count and word sum for one user's messages in a chat.
func (s *sqlxStore) UserMessageStats(ctx context.Context, chatID, userID int64) (MessageStats, error) {
	if chatID == 0 || userID == 0 {
		return MessageStats{}, fmt.Errorf("chat_id and user_id must be non-zero")
	}

	var stats MessageStats
	query := `
        SELECT COUNT(*) AS message_count, COALESCE(SUM(word_count), 0) AS total_words
        FROM messages
        WHERE chat_id = ? AND user_id = ?;
    `

	if err := s.db.GetContext(ctx, &stats, query, chatID, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error computing user message stats",
			"chat_id", chatID, "user_id", userID, "error", err)
		return MessageStats{}, fmt.Errorf("failed to compute stats for user %d in chat %d: %w", userID, chatID, err)
	}

	return stats, nil
}

// UnindexedTexts retrieves unindexed texts of a language in insertion order.
func (s *sqlxStore) UnindexedTexts(ctx context.Context, language string) ([]Text, error) {
	if language == "" {
		return nil, fmt.Errorf("language cannot be empty")
	}

	var texts []Text
	query := `
        SELECT id, content, date, language, indexed
        FROM texts
        WHERE language = ? AND indexed = 0
        ORDER BY id;
    `

	if err := s.db.SelectContext(ctx, &texts, query, language); err != nil {
		s.logger.ErrorContext(ctx, "Error getting unindexed texts", "language", language, "error", err)
		return nil, fmt.Errorf("failed to get unindexed texts for language %q: %w", language, err)
	}

	s.logger.DebugContext(ctx, "Fetched unindexed texts", "language", language, "count", len(texts))
	return texts, nil
}

// MarkTextIndexed flips one text record's indexed flag. The single-row UPDATE
// is atomic, so the false->true transition happens exactly once per record.
func (s *sqlxStore) MarkTextIndexed(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("text id cannot be zero")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE texts SET indexed = 1 WHERE id = ?;`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking text indexed", "text_id", id, "error", err)
		return fmt.Errorf("failed to mark text %d indexed: %w", id, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when marking text indexed",
			"text_id", id, "affected", affected)
	}

	return nil
}

// DistinctLanguages lists every language code present across all texts.
func (s *sqlxStore) DistinctLanguages(ctx context.Context) ([]string, error) {
	var languages []string
	query := `SELECT DISTINCT language FROM texts ORDER BY language;`

	if err := s.db.SelectContext(ctx, &languages, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing distinct languages", "error", err)
		return nil, fmt.Errorf("failed to list distinct languages: %w", err)
	}

	return languages, nil
}

// CountTextsByLanguage counts text records with the given language code.
func (s *sqlxStore) CountTextsByLanguage(ctx context.Context, language string) (int64, error) {
	if language == "" {
		return 0, fmt.Errorf("language cannot be empty")
	}

	var count int64
	query := `SELECT COUNT(*) FROM texts WHERE language = ?;`

	if err := s.db.GetContext(ctx, &count, query, language); err != nil {
		s.logger.ErrorContext(ctx, "Error counting texts by language", "language", language, "error", err)
		return 0, fmt.Errorf("failed to count texts for language %q: %w", language, err)
	}

	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
