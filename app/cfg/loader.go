package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Telegram configuration
	BotToken    string `long:"bot-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required)" required:"true"`
	AdminChatID int64  `long:"admin-chat-id" env:"ADMIN_CHAT_ID" description:"Chat ID for operator notifications (optional)"`

	// Feed configuration
	FeedURL      string `long:"feed-url" env:"FEED_URL" default:"https://rss.nodeseek.com/" description:"RSS/Atom feed URL to poll"`
	FeedFile     string `long:"feed-file" env:"FEED_FILE" description:"Optional YAML feed definition file overriding feed flags"`
	PollInterval int    `long:"poll-interval" env:"POLL_INTERVAL" default:"300" description:"Feed poll interval in seconds"`
	InitialDelay int    `long:"initial-delay" env:"INITIAL_DELAY" default:"10" description:"Delay before the first feed poll in seconds"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed fetch timeout in seconds"`
	SendPause    int    `long:"send-pause" env:"SEND_PAUSE" default:"1" description:"Pause between successful deliveries in seconds"`

	// Application configuration
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./data/rss-courier.db" description:"Path to the SQLite database file"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers for task processing"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Courier/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BotToken:     raw.BotToken,
		AdminChatID:  raw.AdminChatID,
		FeedURL:      raw.FeedURL,
		FeedFile:     raw.FeedFile,
		PollInterval: raw.PollInterval,
		InitialDelay: raw.InitialDelay,
		FetchTimeout: raw.FetchTimeout,
		SendPause:    raw.SendPause,
		DBPath:       raw.DBPath,
		Port:         raw.Port,
		WorkerCount:  raw.WorkerCount,
		APIAccessKey: raw.APIAccessKey,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
