package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/akarpov/rss-courier/app/database"
	"github.com/akarpov/rss-courier/app/subscriber"
	"github.com/akarpov/rss-courier/app/telegram"
)

type fakeSubscriberRepo struct {
	records map[string]database.SubscriberRecord
}

func newFakeSubscriberRepo() *fakeSubscriberRepo {
	return &fakeSubscriberRepo{records: make(map[string]database.SubscriberRecord)}
}

func (r *fakeSubscriberRepo) GetAll() ([]database.SubscriberRecord, error) {
	records := make([]database.SubscriberRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	return records, nil
}

func (r *fakeSubscriberRepo) GetCount() (int, error) { return len(r.records), nil }

func (r *fakeSubscriberRepo) Upsert(record database.SubscriberRecord) error {
	r.records[record.ID] = record
	return nil
}

type reply struct {
	ChatID int64
	Text   string
	Mode   telegram.ParseMode
}

type fakeSender struct {
	replies []reply
}

func (s *fakeSender) SendMessage(ctx context.Context, chatID int64, text string, mode telegram.ParseMode) error {
	s.replies = append(s.replies, reply{ChatID: chatID, Text: text, Mode: mode})
	return nil
}

func newTestHandler() (*Handler, *subscriber.Store, *fakeSubscriberRepo, *fakeSender) {
	repo := newFakeSubscriberRepo()
	store := subscriber.NewStore(repo)
	sender := &fakeSender{}
	return NewHandler(store, sender), store, repo, sender
}

func privateCommand(userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 1,
			From:      &telegram.User{ID: userID, FirstName: "Test"},
			Chat:      telegram.Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

func lastReply(t *testing.T, sender *fakeSender) reply {
	t.Helper()
	if len(sender.replies) == 0 {
		t.Fatalf("Expected a reply, got none")
	}
	return sender.replies[len(sender.replies)-1]
}

func TestHandler_Start_CreatesSubscriber(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/start"))

	if store.Count() != 1 {
		t.Errorf("Expected /start to create a subscriber, count is %d", store.Count())
	}

	sub, ok := store.Get("42")
	if !ok {
		t.Fatalf("Expected subscriber 42 to exist")
	}
	if !sub.Enabled || !sub.KeywordFilterActive {
		t.Errorf("New subscriber should default to enabled with filter on")
	}

	r := lastReply(t, sender)
	if r.ChatID != 42 {
		t.Errorf("Expected reply to chat 42, got %d", r.ChatID)
	}
	if !strings.Contains(r.Text, "/addkeyword") {
		t.Errorf("Expected help text listing commands, got %q", r.Text)
	}
}

func TestHandler_AddKeyword(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword cheap router"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 || sub.Keywords[0] != "cheap router" {
		t.Errorf("Expected keyword 'cheap router', got %v", sub.Keywords)
	}
	if !strings.Contains(lastReply(t, sender).Text, "added") {
		t.Errorf("Expected confirmation reply")
	}
}

func TestHandler_AddKeyword_DuplicateRejected(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword Router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword router"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 {
		t.Errorf("Duplicate keyword should not be added, got %v", sub.Keywords)
	}
	if !strings.Contains(lastReply(t, sender).Text, "already") {
		t.Errorf("Expected duplicate warning, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_AddKeyword_MissingArgument(t *testing.T) {
	handler, _, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword"))

	if !strings.Contains(lastReply(t, sender).Text, "Usage") {
		t.Errorf("Expected usage message, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_DelKeyword_ByPhrase(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/delkeyword ROUTER"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 0 {
		t.Errorf("Expected keyword removed case-insensitively, got %v", sub.Keywords)
	}
}

func TestHandler_DelKeyword_ByNumber(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword nas"))
	// Sorted order: 1. nas, 2. router
	handler.HandleUpdate(context.Background(), privateCommand(42, "/delkeyword 1"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 || sub.Keywords[0] != "router" {
		t.Errorf("Expected 'nas' removed by number, got %v", sub.Keywords)
	}
}

func TestHandler_DelKeyword_InvalidNumber(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/delkeyword 7"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 {
		t.Errorf("Out-of-range number should remove nothing, got %v", sub.Keywords)
	}
	if !strings.Contains(lastReply(t, sender).Text, "Invalid number") {
		t.Errorf("Expected invalid number message, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_EditKeyword(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/editkeyword 1 mesh wifi"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 || sub.Keywords[0] != "mesh wifi" {
		t.Errorf("Expected keyword replaced, got %v", sub.Keywords)
	}
}

func TestHandler_EditKeyword_DuplicateRejected(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword Router"))
	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword nas"))
	// Sorted order: 1. Router, 2. nas
	handler.HandleUpdate(context.Background(), privateCommand(42, "/editkeyword 2 ROUTER"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 2 || sub.Keywords[0] != "Router" || sub.Keywords[1] != "nas" {
		t.Errorf("Editing into a case-insensitive duplicate must not change the list, got %v", sub.Keywords)
	}
	if !strings.Contains(lastReply(t, sender).Text, "already") {
		t.Errorf("Expected duplicate warning, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_ToggleFilter(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/togglefilter"))

	sub, _ := store.Get("42")
	if sub.KeywordFilterActive {
		t.Errorf("Expected filter toggled off from its default")
	}

	handler.HandleUpdate(context.Background(), privateCommand(42, "/togglefilter"))

	sub, _ = store.Get("42")
	if !sub.KeywordFilterActive {
		t.Errorf("Expected filter toggled back on")
	}
}

func TestHandler_NotificationToggles(t *testing.T) {
	handler, store, repo, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/disablenotifications"))

	sub, _ := store.Get("42")
	if sub.Enabled {
		t.Errorf("Expected notifications disabled")
	}
	record := repo.records["42"]
	if record.Enabled == nil || *record.Enabled {
		t.Errorf("Disable should be persisted immediately")
	}

	handler.HandleUpdate(context.Background(), privateCommand(42, "/enablenotifications"))

	sub, _ = store.Get("42")
	if !sub.Enabled {
		t.Errorf("Expected notifications re-enabled")
	}
}

func TestHandler_Status_WarnsAboutEmptyKeywords(t *testing.T) {
	handler, _, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/status"))

	text := lastReply(t, sender).Text
	if !strings.Contains(text, "none yet") {
		t.Errorf("Expected empty keyword list in status, got %q", text)
	}
	if !strings.Contains(text, "will not receive any posts") {
		t.Errorf("Expected warning about filter on with no keywords, got %q", text)
	}
}

func TestHandler_CommandWithBotMention(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/addkeyword@rss_courier_bot router"))

	sub, _ := store.Get("42")
	if len(sub.Keywords) != 1 {
		t.Errorf("Expected @botname suffix stripped, got %v", sub.Keywords)
	}
}

func TestHandler_GroupChatRejected(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	update := telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			From: &telegram.User{ID: 42},
			Chat: telegram.Chat{ID: -100500, Type: "group"},
			Text: "/addkeyword router",
		},
	}
	handler.HandleUpdate(context.Background(), update)

	if store.Count() != 0 {
		t.Errorf("Group commands must not create subscribers")
	}
	if len(sender.replies) != 0 {
		t.Errorf("Only /start gets a group redirect, got %d replies", len(sender.replies))
	}

	update.Message.Text = "/start"
	handler.HandleUpdate(context.Background(), update)

	if len(sender.replies) != 1 {
		t.Fatalf("Expected a redirect reply to /start in a group")
	}
	if !strings.Contains(lastReply(t, sender).Text, "private chat") {
		t.Errorf("Expected private chat redirect, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_NonCommandIgnored(t *testing.T) {
	handler, store, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "hello bot"))
	handler.HandleUpdate(context.Background(), telegram.Update{UpdateID: 2})

	if store.Count() != 0 || len(sender.replies) != 0 {
		t.Errorf("Non-command updates must be ignored")
	}
}

func TestHandler_UnknownCommand(t *testing.T) {
	handler, _, _, sender := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/frobnicate"))

	if !strings.Contains(lastReply(t, sender).Text, "Unknown command") {
		t.Errorf("Expected unknown command reply, got %q", lastReply(t, sender).Text)
	}
}

func TestHandler_ChatIDRefreshedOnCommand(t *testing.T) {
	handler, store, _, _ := newTestHandler()

	handler.HandleUpdate(context.Background(), privateCommand(42, "/start"))

	// Simulate a stale stored chat ID, then any command refreshes it.
	store.UpdateChatID("42", 999)
	handler.HandleUpdate(context.Background(), privateCommand(42, "/listkeywords"))

	sub, _ := store.Get("42")
	if sub.ChatID != 42 {
		t.Errorf("Expected chat ID refreshed to 42, got %d", sub.ChatID)
	}
}
