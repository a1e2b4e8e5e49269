package api

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type statsResponse struct {
	Subscribers    int    `json:"subscribers"`
	ProcessedItems int    `json:"processed_items"`
	FeedURL        string `json:"feed_url"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

type subscriberResponse struct {
	ID                  string   `json:"id"`
	Keywords            []string `json:"keywords"`
	Enabled             bool     `json:"enabled"`
	KeywordFilterActive bool     `json:"keyword_filter_active"`
}
