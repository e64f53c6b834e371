package database

import "time"

// Chat represents a Telegram conversation the bot has seen at least one
// message from. Membership is tracked in the chat_members relation.
type Chat struct {
	ChatID    int64     `db:"chat_id"`
	Title     string    `db:"title"`
	Type      string    `db:"type"`
	CreatedAt time.Time `db:"created_at"`
}

// User represents a message sender. LastName and Username are optional and
// stored as empty strings when Telegram doesn't provide them.
type User struct {
	UserID    int64  `db:"user_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Username  string `db:"username"`
}

// DisplayName returns the username when set, otherwise the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// Message stores the metadata of one ingested chat message. The body text
// lives in a parallel Text record; only the derived word count and detected
// language are kept here. Immutable after insert.
type Message struct {
	ID        uint      `db:"id"`
	Date      time.Time `db:"date"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	MessageID int64     `db:"message_id"`
	UpdateID  int64     `db:"update_id"`
	WordCount int       `db:"word_count"`
	Language  string    `db:"language"`
}

// Text is the body-text counterpart to a Message, tracked separately so the
// language indexer can consume it. Indexed flips false->true exactly once,
// when the content has been appended to the per-language corpus file.
type Text struct {
	ID       uint      `db:"id"`
	Content  string    `db:"content"`
	Date     time.Time `db:"date"`
	Language string    `db:"language"`
	Indexed  bool      `db:"indexed"`
}
