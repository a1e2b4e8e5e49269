package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

var _ SubscriberRepository = (*SubscriberRepositoryImpl)(nil)

type SubscriberRepositoryImpl struct {
	db *DB
}

func NewSubscriberRepository(db *DB) *SubscriberRepositoryImpl {
	return &SubscriberRepositoryImpl{db: db}
}

func (r *SubscriberRepositoryImpl) GetAll() ([]SubscriberRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, chat_id, keywords, enabled, keyword_filter_active
		FROM subscribers
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var records []SubscriberRecord
	for rows.Next() {
		record, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return records, nil
}

func (r *SubscriberRepositoryImpl) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscribers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscriber count: %w", err)
	}
	return count, nil
}

func (r *SubscriberRepositoryImpl) Upsert(record SubscriberRecord) error {
	keywords, err := json.Marshal(record.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO subscribers (id, chat_id, keywords, enabled, keyword_filter_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = excluded.chat_id,
			keywords = excluded.keywords,
			enabled = excluded.enabled,
			keyword_filter_active = excluded.keyword_filter_active,
			updated_at = CURRENT_TIMESTAMP
	`, record.ID, record.ChatID, string(keywords), nullableBool(record.Enabled), nullableBool(record.KeywordFilterActive))

	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	return nil
}

func scanSubscriber(rows *sql.Rows) (SubscriberRecord, error) {
	var record SubscriberRecord
	var keywords string
	var enabled, filterActive sql.NullBool

	err := rows.Scan(&record.ID, &record.ChatID, &keywords, &enabled, &filterActive)
	if err != nil {
		return SubscriberRecord{}, fmt.Errorf("failed to scan subscriber row: %w", err)
	}

	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &record.Keywords); err != nil {
			return SubscriberRecord{}, fmt.Errorf("failed to decode keywords for %s: %w", record.ID, err)
		}
	}

	if enabled.Valid {
		record.Enabled = &enabled.Bool
	}
	if filterActive.Valid {
		record.KeywordFilterActive = &filterActive.Bool
	}

	return record, nil
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
