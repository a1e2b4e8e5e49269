package database

// SubscriberRecord is the storage representation of one subscriber. The
// boolean flags are pointers so that records written before a flag existed
// read back as nil and can be back-filled with defaults.
type SubscriberRecord struct {
	ID                  string
	ChatID              int64
	Keywords            []string
	Enabled             *bool
	KeywordFilterActive *bool
}

type SubscriberRepository interface {
	GetAll() ([]SubscriberRecord, error)
	GetCount() (int, error)

	Upsert(record SubscriberRecord) error
}

type LedgerRepository interface {
	LoadAll() ([]string, error)
	GetCount() (int, error)

	Add(link string) error
}
