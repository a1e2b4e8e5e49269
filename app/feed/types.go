package feed

// Item is one feed entry. Identity is the permalink; everything else is
// transient and only lives for the duration of one dispatch cycle.
type Item struct {
	Title string
	Link  string
}

// Config describes the single feed the service polls.
type Config struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`

	// Intervals in seconds
	PollInterval int `yaml:"poll_interval"`
	InitialDelay int `yaml:"initial_delay"`
	FetchTimeout int `yaml:"fetch_timeout"`
}
