// Package analytics computes per-chat and per-user statistics over stored
// message records: message counts, word counts, percentage shares, a
// human-readable summary, and a sender leaderboard.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/DanAmador/Fagbot/internal/database"
)

// ErrChatNotFound is returned when statistics are requested for a chat that
// has no stored record.
var ErrChatNotFound = errors.New("analytics: chat not found")

// ErrUserNotFound is returned when a user-scoped query names a user who is
// not a member of the chat.
var ErrUserNotFound = errors.New("analytics: no matching user in chat")

// ErrNoMessages is returned when statistics are requested for a chat with no
// messages or no members; percentage shares are undefined in that case.
var ErrNoMessages = errors.New("analytics: chat has no messages")

// CountResult is the answer to a message-count query, either chat-wide or
// scoped to one user.
type CountResult struct {
	DisplayName string
	Messages    int64
	Words       int64
}

// MemberStat holds one chat member's share of the conversation. Percentage
// is messages/total*100 rendered with two decimal places.
type MemberStat struct {
	UserID     int64
	Messages   int64
	Percentage string
	Words      int64
}

// ChatStats aggregates per-member statistics for a chat.
type ChatStats struct {
	TotalMessages int64
	TotalWords    int64
	Members       []MemberStat
}

// Sender is one leaderboard entry.
type Sender struct {
	UserID   int64
	Name     string
	Messages int64
}

// Service answers aggregate queries over stored messages.
type Service struct {
	store  database.Store
	logger *slog.Logger
}

// NewService creates an analytics service.
func NewService(store database.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "analytics"),
	}
}

// Count returns message and word totals for a chat. With no name tokens the
// totals cover the whole chat and the display name is the chat title. With
// name tokens, the space-joined tokens are matched case-insensitively against
// the first names of the chat's members (lowest user id wins on duplicates)
// and the totals cover only that member's messages in this chat.
func (s *Service) Count(ctx context.Context, chatID int64, nameTokens []string) (*CountResult, error) {
	if len(nameTokens) == 0 {
		chat, err := s.store.GetChat(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if chat == nil {
			return nil, fmt.Errorf("%w: chat %d", ErrChatNotFound, chatID)
		}

		stats, err := s.store.ChatMessageStats(ctx, chatID)
		if err != nil {
			return nil, err
		}

		return &CountResult{
			DisplayName: chat.Title,
			Messages:    stats.Messages,
			Words:       stats.Words,
		}, nil
	}

	firstName := strings.Join(nameTokens, " ")
	user, err := s.store.FindMemberByFirstName(ctx, chatID, firstName)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %q in chat %d", ErrUserNotFound, firstName, chatID)
	}

	stats, err := s.store.UserMessageStats(ctx, chatID, user.UserID)
	if err != nil {
		return nil, err
	}

	return &CountResult{
		DisplayName: user.DisplayName(),
		Messages:    stats.Messages,
		Words:       stats.Words,
	}, nil
}

// ChatStats computes per-member message counts, word sums, and conversation
// percentages for the given members. The chat-wide message total is computed
// once and reused as the denominator for every member. Chats with no messages
// or an empty member list are rejected with ErrNoMessages.
func (s *Service) ChatStats(ctx context.Context, chatID int64, memberIDs []int64) (*ChatStats, error) {
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: chat %d has no members", ErrNoMessages, chatID)
	}

	total, err := s.store.ChatMessageStats(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if total.Messages == 0 {
		return nil, fmt.Errorf("%w: chat %d", ErrNoMessages, chatID)
	}

	result := &ChatStats{
		TotalMessages: total.Messages,
		Members:       make([]MemberStat, 0, len(memberIDs)),
	}

	for _, userID := range memberIDs {
		stats, err := s.store.UserMessageStats(ctx, chatID, userID)
		if err != nil {
			return nil, err
		}

		percentage := float64(stats.Messages) / float64(total.Messages) * 100
		result.TotalWords += stats.Words
		result.Members = append(result.Members, MemberStat{
			UserID:     userID,
			Messages:   stats.Messages,
			Percentage: fmt.Sprintf("%.2f", percentage),
			Words:      stats.Words,
		})
	}

	return result, nil
}

// Summarize builds chat statistics over the chat's full member set and
// renders a two-line summary naming the most active and the most verbose
// member. Maxima are first-max: members iterate in ascending user id order,
// so ties go to the lowest id.
func (s *Service) Summarize(ctx context.Context, chatID int64) (string, error) {
	memberIDs, err := s.store.ChatMemberIDs(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(memberIDs) == 0 {
		return "", fmt.Errorf("%w: chat %d has no members", ErrChatNotFound, chatID)
	}

	stats, err := s.ChatStats(ctx, chatID, memberIDs)
	if err != nil {
		return "", err
	}

	maxMessages := stats.Members[0]
	maxWords := stats.Members[0]
	for _, member := range stats.Members[1:] {
		if member.Messages > maxMessages.Messages {
			maxMessages = member
		}
		if member.Words > maxWords.Words {
			maxWords = member
		}
	}

	maxMessagesName, err := s.displayName(ctx, maxMessages.UserID)
	if err != nil {
		return "", err
	}
	maxWordsName, err := s.displayName(ctx, maxWords.UserID)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf(
		"Most messages sent: %s with %d messages from a total of %d\n"+
			"Most words used: %s with %d words from a total of %d",
		maxMessagesName, maxMessages.Messages, stats.TotalMessages,
		maxWordsName, maxWords.Words, stats.TotalWords,
	)

	s.logger.DebugContext(ctx, "Chat summarized",
		"chat_id", chatID, "members", len(memberIDs), "total_messages", stats.TotalMessages)
	return summary, nil
}

// TopSenders ranks the chat's members by message count, descending, and
// returns the first topN entries. Equal counts are ordered by ascending
// user id so the ranking is deterministic.
func (s *Service) TopSenders(ctx context.Context, chatID int64, topN int) ([]Sender, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("analytics: top count must be positive, got %d", topN)
	}

	memberIDs, err := s.store.ChatMemberIDs(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senders := make([]Sender, 0, len(memberIDs))
	for _, userID := range memberIDs {
		stats, err := s.store.UserMessageStats(ctx, chatID, userID)
		if err != nil {
			return nil, err
		}

		name, err := s.displayName(ctx, userID)
		if err != nil {
			return nil, err
		}

		senders = append(senders, Sender{
			UserID:   userID,
			Name:     name,
			Messages: stats.Messages,
		})
	}

	sort.SliceStable(senders, func(i, j int) bool {
		if senders[i].Messages != senders[j].Messages {
			return senders[i].Messages > senders[j].Messages
		}
		return senders[i].UserID < senders[j].UserID
	})

	if len(senders) > topN {
		senders = senders[:topN]
	}
	return senders, nil
}

func (s *Service) displayName(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("%w: user %d", ErrUserNotFound, userID)
	}
	return user.DisplayName(), nil
}
