package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/akarpov/rss-courier/app/subscriber"
	"github.com/akarpov/rss-courier/app/telegram"
)

// Sender is the reply transport; satisfied by *telegram.Client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, mode telegram.ParseMode) error
}

// Handler implements the subscriber command surface. Every command follows
// the same shape: fetch or create the record with defaults applied, mutate
// exactly the fields the command concerns, persist if anything changed.
// All of that happens inside Store.Mutate under the store lock, so command
// handlers and the dispatch cycle never interleave writes.
type Handler struct {
	store  *subscriber.Store
	sender Sender
}

func NewHandler(store *subscriber.Store, sender Sender) *Handler {
	return &Handler{
		store:  store,
		sender: sender,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	command, args := splitCommand(msg.Text)

	// Subscriptions are personal; commands are only accepted in a private
	// chat with the subscriber.
	if msg.Chat.Type != "private" || msg.Chat.ID != msg.From.ID {
		if command == "/start" {
			h.replyPlain(ctx, msg.Chat.ID, "Please manage your keyword subscriptions in a private chat with me.")
		}
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	slog.Debug("Handling command", "command", command, "user", userID)

	switch command {
	case "/start":
		h.handleStart(ctx, userID, chatID, msg.From.FirstName)
	case "/addkeyword":
		h.handleAddKeyword(ctx, userID, chatID, args)
	case "/delkeyword":
		h.handleDelKeyword(ctx, userID, chatID, args)
	case "/editkeyword":
		h.handleEditKeyword(ctx, userID, chatID, args)
	case "/listkeywords":
		h.handleListKeywords(ctx, userID, chatID)
	case "/togglefilter":
		h.handleToggleFilter(ctx, userID, chatID)
	case "/enablenotifications":
		h.handleSetNotifications(ctx, userID, chatID, true)
	case "/disablenotifications":
		h.handleSetNotifications(ctx, userID, chatID, false)
	case "/status":
		h.handleStatus(ctx, userID, chatID)
	default:
		h.replyPlain(ctx, chatID, "Unknown command. Use /start to see what I can do.")
	}
}

// splitCommand separates "/cmd@botname rest of args" into the bare command
// and its argument string.
func splitCommand(text string) (string, string) {
	command, args, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

func (h *Handler) handleStart(ctx context.Context, userID string, chatID int64, firstName string) {
	if _, err := h.store.Mutate(userID, chatID, nil); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	name := firstName
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👋 Hi, %s\\!\n\n", telegram.EscapeMarkdownV2(name))
	b.WriteString(telegram.EscapeMarkdownV2("I watch an RSS feed and notify you when new posts match your keywords.") + "\n\n")
	b.WriteString(telegram.EscapeMarkdownV2("Available commands:") + "\n")
	for _, line := range []string{
		"/start - show this help",
		"/addkeyword <phrase> - add a keyword",
		"/delkeyword <phrase or number> - remove a keyword",
		"/editkeyword <number> <phrase> - replace a keyword",
		"/listkeywords - list your keywords",
		"/togglefilter - toggle keyword filtering on/off",
		"/enablenotifications - enable all notifications",
		"/disablenotifications - disable all notifications",
		"/status - show your subscription status",
	} {
		b.WriteString(telegram.EscapeMarkdownV2(line) + "\n")
	}
	b.WriteString("\n" + telegram.EscapeMarkdownV2("I check for new posts regularly!"))

	h.reply(ctx, chatID, b.String())
}

func (h *Handler) handleAddKeyword(ctx context.Context, userID string, chatID int64, args string) {
	if args == "" {
		h.replyPlain(ctx, chatID, "Usage: /addkeyword <keyword or phrase>")
		return
	}

	added := false
	if _, err := h.store.Mutate(userID, chatID, func(sub *subscriber.Subscriber) bool {
		added = sub.AddKeyword(args)
		return added
	}); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	escaped := telegram.EscapeMarkdownV2(args)
	if added {
		h.reply(ctx, chatID, fmt.Sprintf("✅ Keyword '%s' added to your list\\.", escaped))
	} else {
		h.reply(ctx, chatID, fmt.Sprintf("⚠️ Keyword '%s' is already on your list\\.", escaped))
	}
}

func (h *Handler) handleDelKeyword(ctx context.Context, userID string, chatID int64, args string) {
	if args == "" {
		h.replyPlain(ctx, chatID, "Usage: /delkeyword <keyword, phrase or number from /listkeywords>")
		return
	}

	var removed string
	var failure string

	if _, err := h.store.Mutate(userID, chatID, func(sub *subscriber.Subscriber) bool {
		if len(sub.Keywords) == 0 {
			failure = "You have no keywords to remove."
			return false
		}

		if index, err := strconv.Atoi(args); err == nil {
			kw, err := sub.RemoveKeywordAt(index - 1)
			if err != nil {
				failure = "Invalid number. Use /listkeywords to see valid numbers."
				return false
			}
			removed = kw
			return true
		}

		kw, ok := sub.RemoveKeyword(args)
		if !ok {
			failure = fmt.Sprintf("Keyword '%s' was not found on your list.", args)
			return false
		}
		removed = kw
		return true
	}); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if failure != "" {
		h.replyPlain(ctx, chatID, failure)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("🗑️ Keyword '%s' removed from your list\\.", telegram.EscapeMarkdownV2(removed)))
}

func (h *Handler) handleEditKeyword(ctx context.Context, userID string, chatID int64, args string) {
	indexArg, phrase, _ := strings.Cut(args, " ")
	phrase = strings.TrimSpace(phrase)

	if indexArg == "" || phrase == "" {
		h.replyPlain(ctx, chatID, "Usage: /editkeyword <number> <new keyword or phrase>\n(numbers come from /listkeywords)")
		return
	}

	index, err := strconv.Atoi(indexArg)
	if err != nil {
		h.replyPlain(ctx, chatID, "The first argument must be a number from /listkeywords.")
		return
	}

	var old string
	var failure string

	if _, err := h.store.Mutate(userID, chatID, func(sub *subscriber.Subscriber) bool {
		if len(sub.Keywords) == 0 {
			failure = "You have no keywords to edit."
			return false
		}

		replaced, err := sub.EditKeyword(index-1, phrase)
		if err != nil {
			if errors.Is(err, subscriber.ErrDuplicateKeyword) {
				failure = fmt.Sprintf("Keyword '%s' is already on your list.", phrase)
			} else {
				failure = "Invalid number. Use /listkeywords to see valid numbers."
			}
			return false
		}
		old = replaced
		return true
	}); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if failure != "" {
		h.replyPlain(ctx, chatID, failure)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("🔄 Keyword '%s' replaced with '%s'\\.",
		telegram.EscapeMarkdownV2(old), telegram.EscapeMarkdownV2(phrase)))
}

func (h *Handler) handleListKeywords(ctx context.Context, userID string, chatID int64) {
	sub, err := h.store.Mutate(userID, chatID, nil)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if len(sub.Keywords) == 0 {
		h.replyPlain(ctx, chatID, "You have no keywords yet. Add one with /addkeyword!")
		return
	}

	var b strings.Builder
	b.WriteString(telegram.EscapeMarkdownV2("Your keywords (matched case-insensitively):") + "\n")
	for i, kw := range sub.Keywords {
		fmt.Fprintf(&b, "  %d\\. %s\n", i+1, telegram.EscapeMarkdownV2(kw))
	}

	h.reply(ctx, chatID, strings.TrimRight(b.String(), "\n"))
}

func (h *Handler) handleToggleFilter(ctx context.Context, userID string, chatID int64) {
	sub, err := h.store.Mutate(userID, chatID, func(sub *subscriber.Subscriber) bool {
		sub.KeywordFilterActive = !sub.KeywordFilterActive
		return true
	})
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	var state, icon string
	if sub.KeywordFilterActive {
		state = "on (only posts matching your keywords)"
		icon = "🔎"
	} else {
		state = "off (all posts)"
		icon = "📢"
	}

	h.reply(ctx, chatID, fmt.Sprintf("%s Keyword filtering is now *%s*\\.\n%s",
		icon,
		telegram.EscapeMarkdownV2(state),
		telegram.EscapeMarkdownV2("(Notifications must also be enabled via /enablenotifications to receive posts.)")))
}

func (h *Handler) handleSetNotifications(ctx context.Context, userID string, chatID int64, enable bool) {
	if _, err := h.store.Mutate(userID, chatID, func(sub *subscriber.Subscriber) bool {
		sub.Enabled = enable
		return true
	}); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if enable {
		h.reply(ctx, chatID, "🔔 All notifications are now *enabled*\\.")
	} else {
		h.reply(ctx, chatID, "🔕 All notifications are now *disabled*\\.")
	}
}

func (h *Handler) handleStatus(ctx context.Context, userID string, chatID int64) {
	sub, err := h.store.Mutate(userID, chatID, nil)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	var b strings.Builder
	b.WriteString(telegram.EscapeMarkdownV2("ℹ️ Your subscription status:") + "\n")

	if sub.Enabled {
		b.WriteString("🔔 " + telegram.EscapeMarkdownV2("Notifications: ") + "*on*\n")
	} else {
		b.WriteString("🔕 " + telegram.EscapeMarkdownV2("Notifications: ") + "*off*\n")
	}

	if sub.KeywordFilterActive {
		b.WriteString("🔎 " + telegram.EscapeMarkdownV2("Keyword filter: ") + "*on*\n")
	} else {
		b.WriteString("📢 " + telegram.EscapeMarkdownV2("Keyword filter: ") + "*off*\n")
	}

	b.WriteString("\n")
	if len(sub.Keywords) == 0 {
		b.WriteString(telegram.EscapeMarkdownV2("📜 Keywords: none yet."))
		if sub.KeywordFilterActive {
			b.WriteString("\n\n⚠️ " + telegram.EscapeMarkdownV2(
				"Keyword filtering is on but you have no keywords, so you will not receive any posts. "+
					"Add keywords or turn filtering off with /togglefilter."))
		}
	} else {
		b.WriteString(telegram.EscapeMarkdownV2("📜 Your keywords (matched case-insensitively):") + "\n")
		for i, kw := range sub.Keywords {
			fmt.Fprintf(&b, "  %d\\. %s\n", i+1, telegram.EscapeMarkdownV2(kw))
		}
	}

	h.reply(ctx, chatID, strings.TrimRight(b.String(), "\n"))
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text, telegram.ParseModeMarkdownV2); err != nil {
		slog.Warn("Failed to send command reply", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) replyPlain(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendMessage(ctx, chatID, text, telegram.ParseModePlain); err != nil {
		slog.Warn("Failed to send command reply", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	slog.Error("Command failed", "chat_id", chatID, "error", err)
	h.replyPlain(ctx, chatID, "Something went wrong, please try again later.")
}
