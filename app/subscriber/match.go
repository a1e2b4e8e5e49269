package subscriber

import "strings"

// ShouldDeliver decides whether an item with the given title is delivered to
// the subscriber. Pure, no side effects.
//
// Disabled subscribers receive nothing. With the keyword filter off every
// item is delivered. With the filter on, at least one keyword must occur as
// a case-insensitive substring of the title; an empty keyword list matches
// nothing.
func ShouldDeliver(sub Subscriber, title string) bool {
	if !sub.Enabled {
		return false
	}
	if !sub.KeywordFilterActive {
		return true
	}

	_, ok := MatchKeyword(sub.Keywords, title)
	return ok
}

// MatchKeyword returns the first keyword occurring as a case-insensitive
// substring of the title. The returned keyword only matters for logging;
// the boolean result is order-independent.
func MatchKeyword(keywords []string, title string) (string, bool) {
	lowered := strings.ToLower(title)
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
