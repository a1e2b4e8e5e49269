package subscriber

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrDuplicateKeyword is returned when a mutation would leave two entries
// equal under case-insensitive comparison.
var ErrDuplicateKeyword = errors.New("keyword is already present")

// Subscriber holds one user's delivery configuration. The ID is a stable
// identifier (the Telegram user ID as a string); ChatID is the delivery
// recipient and may change over the subscriber's lifetime when Telegram
// migrates a chat.
type Subscriber struct {
	ID                  string
	ChatID              int64
	Keywords            []string
	Enabled             bool
	KeywordFilterActive bool
}

// New creates a subscriber with default settings: notifications on,
// keyword filter on, no keywords.
func New(id string, chatID int64) Subscriber {
	return Subscriber{
		ID:                  id,
		ChatID:              chatID,
		Keywords:            []string{},
		Enabled:             true,
		KeywordFilterActive: true,
	}
}

// ApplyDefaults back-fills fields that older records may lack. hasEnabled and
// hasFilter report whether the stored record carried the corresponding flag;
// absent flags default to true. Pure: the input is not modified.
func ApplyDefaults(sub Subscriber, hasEnabled, hasFilter bool) (Subscriber, bool) {
	modified := false

	if sub.Keywords == nil {
		sub.Keywords = []string{}
		modified = true
	}
	if !hasEnabled {
		sub.Enabled = true
		modified = true
	}
	if !hasFilter {
		sub.KeywordFilterActive = true
		modified = true
	}

	return sub, modified
}

// HasKeyword reports whether the keyword is already present, compared
// case-insensitively.
func (s *Subscriber) HasKeyword(keyword string) bool {
	for _, existing := range s.Keywords {
		if strings.EqualFold(existing, keyword) {
			return true
		}
	}
	return false
}

// AddKeyword adds a keyword and re-sorts the list. Adding a keyword that is
// already present under case-insensitive comparison is a no-op.
func (s *Subscriber) AddKeyword(keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || s.HasKeyword(keyword) {
		return false
	}

	s.Keywords = append(s.Keywords, keyword)
	slices.Sort(s.Keywords)
	return true
}

// RemoveKeyword removes a keyword matched case-insensitively and returns the
// removed entry in its original casing.
func (s *Subscriber) RemoveKeyword(keyword string) (string, bool) {
	for i, existing := range s.Keywords {
		if strings.EqualFold(existing, keyword) {
			s.Keywords = slices.Delete(s.Keywords, i, i+1)
			return existing, true
		}
	}
	return "", false
}

// RemoveKeywordAt removes the keyword at the given zero-based index.
func (s *Subscriber) RemoveKeywordAt(index int) (string, error) {
	if index < 0 || index >= len(s.Keywords) {
		return "", fmt.Errorf("index %d out of range", index+1)
	}

	removed := s.Keywords[index]
	s.Keywords = slices.Delete(s.Keywords, index, index+1)
	return removed, nil
}

// EditKeyword replaces the keyword at the given zero-based index and
// re-sorts the list. Returns the replaced entry. Replacing with a phrase
// that equals another entry case-insensitively returns ErrDuplicateKeyword;
// changing only the casing of the edited entry itself is allowed.
func (s *Subscriber) EditKeyword(index int, keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", fmt.Errorf("keyword must not be empty")
	}
	if index < 0 || index >= len(s.Keywords) {
		return "", fmt.Errorf("index %d out of range", index+1)
	}
	for i, existing := range s.Keywords {
		if i != index && strings.EqualFold(existing, keyword) {
			return "", ErrDuplicateKeyword
		}
	}

	old := s.Keywords[index]
	s.Keywords[index] = keyword
	slices.Sort(s.Keywords)
	return old, nil
}

// Clone returns a deep copy; the keyword slice is not shared.
func (s Subscriber) Clone() Subscriber {
	clone := s
	clone.Keywords = slices.Clone(s.Keywords)
	return clone
}
