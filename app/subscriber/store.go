package subscriber

import (
	"fmt"
	"sort"
	"sync"

	"github.com/akarpov/rss-courier/app/database"
)

// Store mediates all access to subscriber records. A single mutex serializes
// the dispatch cycle and the command handlers; neither touches the
// repository directly.
//
// Command handlers persist synchronously via Mutate. The dispatch cycle
// mutates through UpdateChatID/Disable, which only mark records dirty, and
// persists once per cycle via FlushDirty.
type Store struct {
	mu    sync.Mutex
	repo  database.SubscriberRepository
	subs  map[string]Subscriber
	dirty map[string]struct{}
}

func NewStore(repo database.SubscriberRepository) *Store {
	return &Store{
		repo:  repo,
		subs:  make(map[string]Subscriber),
		dirty: make(map[string]struct{}),
	}
}

// Reload replaces the in-memory view with the repository contents, applying
// defaults to records that predate newer fields. Back-filled records are
// marked dirty so the next flush upgrades them in place.
func (s *Store) Reload() error {
	records, err := s.repo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load subscribers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = make(map[string]Subscriber, len(records))
	s.dirty = make(map[string]struct{})
	for _, record := range records {
		sub, backfilled := fromRecord(record)
		s.subs[sub.ID] = sub
		if backfilled {
			s.dirty[sub.ID] = struct{}{}
		}
	}

	return nil
}

// All returns a copy of every subscriber. Iteration order is unspecified.
func (s *Store) All() []Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub.Clone())
	}
	return subs
}

func (s *Store) Get(id string) (Subscriber, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return Subscriber{}, false
	}
	return sub.Clone(), true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

// Mutate runs the command-surface load-mutate-save sequence under the store
// lock: fetch or create the record with defaults applied, refresh the chat
// ID, run fn, and persist if anything changed. fn reports whether it
// modified the record.
func (s *Store) Mutate(id string, chatID int64, fn func(*Subscriber) bool) (Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	changed := false

	if !ok {
		sub = New(id, chatID)
		changed = true
	} else if sub.ChatID != chatID {
		sub.ChatID = chatID
		changed = true
	}

	if fn != nil && fn(&sub) {
		changed = true
	}

	if changed {
		if err := s.repo.Upsert(toRecord(sub)); err != nil {
			return Subscriber{}, fmt.Errorf("failed to save subscriber %s: %w", id, err)
		}
		s.subs[id] = sub
		delete(s.dirty, id)
	}

	return sub.Clone(), nil
}

// UpdateChatID records a chat migration observed during delivery. The change
// is persisted by the next FlushDirty.
func (s *Store) UpdateChatID(id string, newChatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok || sub.ChatID == newChatID {
		return
	}

	sub.ChatID = newChatID
	s.subs[id] = sub
	s.dirty[id] = struct{}{}
}

// Disable turns off notifications for a subscriber whose chat became
// unreachable. The change is persisted by the next FlushDirty.
func (s *Store) Disable(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok || !sub.Enabled {
		return
	}

	sub.Enabled = false
	s.subs[id] = sub
	s.dirty[id] = struct{}{}
}

// FlushDirty persists every record mutated since the last flush. Records are
// written in a stable order; a failed write leaves the record dirty for the
// next attempt.
func (s *Store) FlushDirty() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return nil
	}

	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sub, ok := s.subs[id]
		if !ok {
			delete(s.dirty, id)
			continue
		}
		if err := s.repo.Upsert(toRecord(sub)); err != nil {
			return fmt.Errorf("failed to save subscriber %s: %w", id, err)
		}
		delete(s.dirty, id)
	}

	return nil
}

func fromRecord(record database.SubscriberRecord) (Subscriber, bool) {
	sub := Subscriber{
		ID:       record.ID,
		ChatID:   record.ChatID,
		Keywords: record.Keywords,
	}
	if record.Enabled != nil {
		sub.Enabled = *record.Enabled
	}
	if record.KeywordFilterActive != nil {
		sub.KeywordFilterActive = *record.KeywordFilterActive
	}

	return ApplyDefaults(sub, record.Enabled != nil, record.KeywordFilterActive != nil)
}

func toRecord(sub Subscriber) database.SubscriberRecord {
	enabled := sub.Enabled
	filter := sub.KeywordFilterActive
	return database.SubscriberRecord{
		ID:                  sub.ID,
		ChatID:              sub.ChatID,
		Keywords:            sub.Keywords,
		Enabled:             &enabled,
		KeywordFilterActive: &filter,
	}
}
