package analytics_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DanAmador/Fagbot/internal/analytics"
	"github.com/DanAmador/Fagbot/internal/database"
)

// fakeStore serves a fixed chat with two members:
// Alice (id 1) posted "hello world" and "foo", Bob (id 2) posted "bar baz qux".
type fakeStore struct {
	database.Store

	chat    *database.Chat
	users   map[int64]*database.User
	members []int64
	byUser  map[int64]database.MessageStats
	total   database.MessageStats
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chat: &database.Chat{ChatID: 100, Title: "Test Group", Type: "group"},
		users: map[int64]*database.User{
			1: {UserID: 1, FirstName: "Alice", Username: "alice"},
			2: {UserID: 2, FirstName: "Bob"},
		},
		members: []int64{1, 2},
		byUser: map[int64]database.MessageStats{
			1: {Messages: 2, Words: 3},
			2: {Messages: 1, Words: 3},
		},
		total: database.MessageStats{Messages: 3, Words: 6},
	}
}

func (f *fakeStore) GetChat(_ context.Context, chatID int64) (*database.Chat, error) {
	if f.chat != nil && f.chat.ChatID == chatID {
		return f.chat, nil
	}
	return nil, nil
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*database.User, error) {
	return f.users[userID], nil
}

func (f *fakeStore) FindMemberByFirstName(_ context.Context, chatID int64, firstName string) (*database.User, error) {
	if chatID != f.chat.ChatID {
		return nil, nil
	}
	var match *database.User
	for _, id := range f.members {
		user := f.users[id]
		if strings.EqualFold(user.FirstName, firstName) && (match == nil || user.UserID < match.UserID) {
			match = user
		}
	}
	return match, nil
}

func (f *fakeStore) ChatMemberIDs(_ context.Context, chatID int64) ([]int64, error) {
	if chatID != f.chat.ChatID {
		return nil, nil
	}
	return f.members, nil
}

func (f *fakeStore) ChatMessageStats(_ context.Context, chatID int64) (database.MessageStats, error) {
	if chatID != f.chat.ChatID {
		return database.MessageStats{}, nil
	}
	return f.total, nil
}

func (f *fakeStore) UserMessageStats(_ context.Context, chatID, userID int64) (database.MessageStats, error) {
	if chatID != f.chat.ChatID {
		return database.MessageStats{}, nil
	}
	return f.byUser[userID], nil
}

func TestCountWholeChat(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	result, err := svc.Count(context.Background(), 100, nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if result.DisplayName != "Test Group" {
		t.Errorf("display name = %q, want %q", result.DisplayName, "Test Group")
	}
	if result.Messages != 3 || result.Words != 6 {
		t.Errorf("totals = (%d, %d), want (3, 6)", result.Messages, result.Words)
	}
}

func TestCountByFirstName(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	tests := []struct {
		name     string
		tokens   []string
		wantName string
		wantMsgs int64
		wantWrds int64
	}{
		{name: "exact case", tokens: []string{"Alice"}, wantName: "alice", wantMsgs: 2, wantWrds: 3},
		{name: "case insensitive", tokens: []string{"bob"}, wantName: "Bob", wantMsgs: 1, wantWrds: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.Count(context.Background(), 100, tc.tokens)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if result.DisplayName != tc.wantName {
				t.Errorf("display name = %q, want %q", result.DisplayName, tc.wantName)
			}
			if result.Messages != tc.wantMsgs || result.Words != tc.wantWrds {
				t.Errorf("totals = (%d, %d), want (%d, %d)", result.Messages, result.Words, tc.wantMsgs, tc.wantWrds)
			}
		})
	}
}

func TestCountUnknownUser(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	_, err := svc.Count(context.Background(), 100, []string{"Mallory"})
	if !errors.Is(err, analytics.ErrUserNotFound) {
		t.Fatalf("Count() error = %v, want ErrUserNotFound", err)
	}
}

func TestCountUnknownChat(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	_, err := svc.Count(context.Background(), 999, nil)
	if !errors.Is(err, analytics.ErrChatNotFound) {
		t.Fatalf("Count() error = %v, want ErrChatNotFound", err)
	}
}

func TestChatStatsPercentages(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	stats, err := svc.ChatStats(context.Background(), 100, []int64{1, 2})
	if err != nil {
		t.Fatalf("ChatStats() error = %v", err)
	}

	if stats.TotalMessages != 3 {
		t.Errorf("total messages = %d, want 3", stats.TotalMessages)
	}
	if stats.TotalWords != 6 {
		t.Errorf("total words = %d, want 6", stats.TotalWords)
	}
	if len(stats.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(stats.Members))
	}

	alice := stats.Members[0]
	if alice.UserID != 1 || alice.Messages != 2 || alice.Words != 3 || alice.Percentage != "66.67" {
		t.Errorf("alice stat = %+v, want {1 2 66.67 3}", alice)
	}
	bob := stats.Members[1]
	if bob.UserID != 2 || bob.Messages != 1 || bob.Words != 3 || bob.Percentage != "33.33" {
		t.Errorf("bob stat = %+v, want {2 1 33.33 3}", bob)
	}
}

func TestChatStatsEmptyChat(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.total = database.MessageStats{}
	svc := analytics.NewService(store, nil)

	if _, err := svc.ChatStats(context.Background(), 100, []int64{1, 2}); !errors.Is(err, analytics.ErrNoMessages) {
		t.Errorf("ChatStats() with zero messages: error = %v, want ErrNoMessages", err)
	}

	if _, err := svc.ChatStats(context.Background(), 100, nil); !errors.Is(err, analytics.ErrNoMessages) {
		t.Errorf("ChatStats() with no members: error = %v, want ErrNoMessages", err)
	}
}

func TestSummarizeTemplate(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	summary, err := svc.Summarize(context.Background(), 100)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	want := "Most messages sent: alice with 2 messages from a total of 3\n" +
		"Most words used: alice with 3 words from a total of 6"
	if summary != want {
		t.Errorf("Summarize() = %q, want %q", summary, want)
	}
}

func TestSummarizeWordTieGoesToLowestID(t *testing.T) {
	t.Parallel()

	// Alice and Bob both have 3 words; the first-seen member (lowest id) wins.
	svc := analytics.NewService(newFakeStore(), nil)

	summary, err := svc.Summarize(context.Background(), 100)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(summary, "Most words used: alice") {
		t.Errorf("word tie should resolve to the lowest user id, got %q", summary)
	}
}

func TestTopSenders(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	senders, err := svc.TopSenders(context.Background(), 100, 5)
	if err != nil {
		t.Fatalf("TopSenders() error = %v", err)
	}
	if len(senders) != 2 {
		t.Fatalf("senders = %d, want 2", len(senders))
	}
	if senders[0].UserID != 1 || senders[0].Messages != 2 || senders[0].Name != "alice" {
		t.Errorf("top sender = %+v, want alice with 2", senders[0])
	}
	if senders[1].UserID != 2 || senders[1].Messages != 1 {
		t.Errorf("second sender = %+v, want bob with 1", senders[1])
	}
}

func TestTopSendersTruncates(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	senders, err := svc.TopSenders(context.Background(), 100, 1)
	if err != nil {
		t.Fatalf("TopSenders() error = %v", err)
	}
	if len(senders) != 1 || senders[0].UserID != 1 {
		t.Errorf("TopSenders(1) = %+v, want only alice", senders)
	}
}

func TestTopSendersTieOrdersByUserID(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.byUser[2] = database.MessageStats{Messages: 2, Words: 1}
	svc := analytics.NewService(store, nil)

	senders, err := svc.TopSenders(context.Background(), 100, 5)
	if err != nil {
		t.Fatalf("TopSenders() error = %v", err)
	}
	if senders[0].UserID != 1 || senders[1].UserID != 2 {
		t.Errorf("equal counts should order by ascending user id, got %+v", senders)
	}
}

func TestTopSendersRejectsNonPositive(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(newFakeStore(), nil)

	if _, err := svc.TopSenders(context.Background(), 100, 0); err == nil {
		t.Error("TopSenders(0) should fail")
	}
}
