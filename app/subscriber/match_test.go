package subscriber

import "testing"

func TestShouldDeliver_DisabledReceivesNothing(t *testing.T) {
	sub := New("1", 1)
	sub.Enabled = false
	sub.KeywordFilterActive = false

	if ShouldDeliver(sub, "anything") {
		t.Errorf("Disabled subscriber should never receive items")
	}
}

func TestShouldDeliver_FilterOffDeliversEverything(t *testing.T) {
	sub := New("1", 1)
	sub.KeywordFilterActive = false

	if !ShouldDeliver(sub, "totally unrelated title") {
		t.Errorf("Subscriber with filter off should receive every item")
	}
}

func TestShouldDeliver_FilterOnEmptyKeywordsMatchesNothing(t *testing.T) {
	sub := New("1", 1)

	if ShouldDeliver(sub, "any title at all") {
		t.Errorf("Filter on with no keywords should match nothing")
	}
}

func TestShouldDeliver_KeywordSubstringMatch(t *testing.T) {
	sub := New("1", 1)
	sub.AddKeyword("Router")

	if !ShouldDeliver(sub, "Cheap ROUTER deal today") {
		t.Errorf("Case-insensitive substring match should deliver")
	}
	if ShouldDeliver(sub, "Cheap VPS deal today") {
		t.Errorf("Title without any keyword should not deliver")
	}
}

func TestMatchKeyword_FirstMatchReturned(t *testing.T) {
	keywords := []string{"nas", "router", "vps"}

	matched, ok := MatchKeyword(keywords, "New ROUTER and VPS bundle")
	if !ok {
		t.Fatalf("Expected a match")
	}
	if matched != "router" {
		t.Errorf("Expected first matching keyword 'router', got %q", matched)
	}
}

func TestMatchKeyword_SubstringInsideWord(t *testing.T) {
	matched, ok := MatchKeyword([]string{"rout"}, "new routers announced")
	if !ok {
		t.Errorf("Keyword occurring inside a word should match")
	}
	if matched != "rout" {
		t.Errorf("Expected 'rout', got %q", matched)
	}
}

func TestMatchKeyword_NoMatch(t *testing.T) {
	if _, ok := MatchKeyword([]string{"vps"}, "router sale"); ok {
		t.Errorf("Expected no match")
	}
}
