package telegram

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Error is a Telegram Bot API error response.
// https://core.telegram.org/bots/api#making-requests
type Error struct {
	Code            int
	Description     string
	MigrateToChatID int64
	RetryAfter      time.Duration
}

func (e *Error) Error() string {
	return "telegram: " + e.Description
}

// IsBadMarkup reports whether the error is the Bot API rejecting message
// formatting ("can't parse entities"). A plain-text retry may still succeed.
func IsBadMarkup(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Description), "can't parse entities")
}

// MigratedChatID extracts the new chat ID from a "group migrated" error.
func MigratedChatID(err error) (int64, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.MigrateToChatID == 0 {
		return 0, false
	}
	return apiErr.MigrateToChatID, true
}

// IsForbidden reports whether the recipient is unreachable for good: the
// user blocked the bot, deactivated their account, or the chat is gone.
func IsForbidden(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized {
		return true
	}
	return apiErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Description), "chat not found")
}

// RetryAfter extracts the wait hint from a rate-limit error.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.Code != http.StatusTooManyRequests {
		return 0, false
	}
	return apiErr.RetryAfter, true
}
