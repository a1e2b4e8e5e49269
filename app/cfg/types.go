package cfg

type Cfg struct {
	// Telegram configuration
	BotToken    string
	AdminChatID int64

	// Feed configuration
	FeedURL      string
	FeedFile     string
	PollInterval int
	InitialDelay int
	FetchTimeout int
	SendPause    int

	// Application configuration
	DBPath       string
	Port         string
	WorkerCount  int
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
