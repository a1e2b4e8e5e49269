package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akarpov/rss-courier/app/telegram"
)

// Status is the closed set of delivery outcomes the dispatch cycle switches
// on. Only SubscriberDisabled and RecipientMigrated require a subscriber
// state change; Ignored failures are logged and dropped without retry.
type Status int

const (
	Delivered Status = iota
	Ignored
	SubscriberDisabled
	RecipientMigrated
)

func (s Status) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Ignored:
		return "ignored"
	case SubscriberDisabled:
		return "subscriber_disabled"
	case RecipientMigrated:
		return "recipient_migrated"
	default:
		return "unknown"
	}
}

type Result struct {
	Status    Status
	NewChatID int64
}

// Sender is the transport the adapter wraps; satisfied by *telegram.Client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, mode telegram.ParseMode) error
}

// Deliverer sends one feed item to one recipient: a MarkdownV2 send first,
// a plain-text retry if Telegram rejects the formatting, and failure
// classification into Result for everything else. Each send is bounded by
// sendTimeout so a stalled call cannot block the cycle.
type Deliverer struct {
	sender      Sender
	sendTimeout time.Duration
}

func NewDeliverer(sender Sender, sendTimeout time.Duration) *Deliverer {
	return &Deliverer{
		sender:      sender,
		sendTimeout: sendTimeout,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, chatID int64, title, link string) Result {
	formatted := fmt.Sprintf("*%s*\n\n%s", telegram.EscapeMarkdownV2(title), link)

	err := d.send(ctx, chatID, formatted, telegram.ParseModeMarkdownV2)
	if err == nil {
		return Result{Status: Delivered}
	}

	switch {
	case telegram.IsBadMarkup(err):
		slog.Warn("Formatted send rejected, retrying as plain text", "chat_id", chatID, "error", err)

		plain := fmt.Sprintf("%s\n\n%s", title, link)
		if plainErr := d.send(ctx, chatID, plain, telegram.ParseModePlain); plainErr != nil {
			slog.Error("Plain text retry failed, dropping delivery", "chat_id", chatID, "error", plainErr)
			return Result{Status: Ignored}
		}
		return Result{Status: Delivered}

	case isMigrated(err):
		newChatID, _ := telegram.MigratedChatID(err)
		slog.Warn("Chat migrated", "chat_id", chatID, "new_chat_id", newChatID)
		return Result{Status: RecipientMigrated, NewChatID: newChatID}

	case telegram.IsForbidden(err):
		slog.Warn("Recipient unreachable, disabling notifications", "chat_id", chatID, "error", err)
		return Result{Status: SubscriberDisabled}

	default:
		slog.Error("Delivery failed, dropping", "chat_id", chatID, "error", err)
		return Result{Status: Ignored}
	}
}

func (d *Deliverer) send(ctx context.Context, chatID int64, text string, mode telegram.ParseMode) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	return d.sender.SendMessage(sendCtx, chatID, text, mode)
}

func isMigrated(err error) bool {
	_, ok := telegram.MigratedChatID(err)
	return ok
}
