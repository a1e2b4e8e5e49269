package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarpov/rss-courier/app/telegram"
)

// Notifier delivers best-effort operational messages to a fixed admin chat.
// With no admin chat configured everything goes to the log only; a failed
// notification is itself only logged, never escalated.
type Notifier struct {
	sender      Sender
	adminChatID int64
}

func NewNotifier(sender Sender, adminChatID int64) *Notifier {
	return &Notifier{
		sender:      sender,
		adminChatID: adminChatID,
	}
}

func (n *Notifier) Notify(ctx context.Context, text string) {
	if n.adminChatID == 0 {
		slog.Info("Operator notification (no admin chat configured)", "text", text)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := n.sender.SendMessage(sendCtx, n.adminChatID, text, telegram.ParseModePlain); err != nil {
		slog.Warn("Failed to send operator notification", "error", err)
	}
}
