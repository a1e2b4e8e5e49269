package database

import "fmt"

var _ LedgerRepository = (*LedgerRepositoryImpl)(nil)

type LedgerRepositoryImpl struct {
	db *DB
}

func NewLedgerRepository(db *DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

func (r *LedgerRepositoryImpl) LoadAll() ([]string, error) {
	rows, err := r.db.Query("SELECT link FROM processed_items")
	if err != nil {
		return nil, fmt.Errorf("failed to load processed items: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan processed item row: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processed item rows: %w", err)
	}

	return links, nil
}

func (r *LedgerRepositoryImpl) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM processed_items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get processed item count: %w", err)
	}
	return count, nil
}

func (r *LedgerRepositoryImpl) Add(link string) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO processed_items (link) VALUES (?)", link)
	if err != nil {
		return fmt.Errorf("failed to store processed item: %w", err)
	}
	return nil
}
