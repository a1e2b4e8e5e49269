package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw feed data into items, preserving the feed's native order
// (typically newest-first). Entries without a permalink are skipped: the
// permalink is the item's identity and a title alone cannot be deduplicated.
func (p *Parser) Run(data []byte) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		link := cmp.Or(entry.Link, entry.GUID)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title: entry.Title,
			Link:  link,
		})
	}

	return items, nil
}
