package feed

import (
	"fmt"
	"sync"

	"github.com/akarpov/rss-courier/app/database"
)

// Ledger is the process-wide record of permalinks already processed. It is
// loaded once at startup and appended to by the dispatch cycle; entries are
// never removed. A permalink becomes part of the in-memory set only after
// its durable write succeeded.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]struct{}
	repo database.LedgerRepository
}

func NewLedger(repo database.LedgerRepository) *Ledger {
	return &Ledger{
		seen: make(map[string]struct{}),
		repo: repo,
	}
}

func (l *Ledger) Load() error {
	links, err := l.repo.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load processed items: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen = make(map[string]struct{}, len(links))
	for _, link := range links {
		l.seen[link] = struct{}{}
	}

	return nil
}

func (l *Ledger) Contains(link string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[link]
	return ok
}

func (l *Ledger) Add(link string) error {
	if err := l.repo.Add(link); err != nil {
		return fmt.Errorf("failed to persist processed item: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[link] = struct{}{}
	return nil
}

func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.seen)
}
