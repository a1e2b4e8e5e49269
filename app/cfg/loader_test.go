package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		BotToken:     "123:abc",
		AdminChatID:  42,
		FeedURL:      "https://rss.example.com/",
		PollInterval: 300,
		InitialDelay: 10,
		FetchTimeout: 30,
		SendPause:    1,
		DBPath:       "./data/test.db",
		Port:         "8080",
		WorkerCount:  1,
		APIAccessKey: "test-key",
		UserAgent:    "Test Agent",
		Timezone:     "UTC",
		Debug:        true,
		Version:      "test-version",
	}

	if cfg.BotToken != "123:abc" {
		t.Errorf("Expected bot token '123:abc', got '%s'", cfg.BotToken)
	}
	if cfg.AdminChatID != 42 {
		t.Errorf("Expected admin chat ID 42, got %d", cfg.AdminChatID)
	}
	if cfg.FeedURL != "https://rss.example.com/" {
		t.Errorf("Expected feed URL 'https://rss.example.com/', got '%s'", cfg.FeedURL)
	}
	if cfg.PollInterval != 300 {
		t.Errorf("Expected poll interval 300, got %d", cfg.PollInterval)
	}
	if cfg.InitialDelay != 10 {
		t.Errorf("Expected initial delay 10, got %d", cfg.InitialDelay)
	}
	if cfg.DBPath != "./data/test.db" {
		t.Errorf("Expected DB path './data/test.db', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
