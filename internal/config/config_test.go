package config_test

import (
	"testing"
	"time"

	"digestgram/internal/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("TOKEN", "test-token")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Token != "test-token" {
		t.Fatalf("unexpected token: %q", cfg.Token)
	}

	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("unexpected DB path: %q", cfg.DBPath)
	}

	if cfg.PollInterval != time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval)
	}

	if cfg.MaxPollAttempts != 20 {
		t.Fatalf("unexpected max poll attempts: %d", cfg.MaxPollAttempts)
	}

	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected HTTP timeout: %v", cfg.HTTPTimeout)
	}

	if cfg.DigestCronSpec != "0 8 * * *" {
		t.Fatalf("unexpected digest cron spec: %q", cfg.DigestCronSpec)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TOKEN", "test-token")
	t.Setenv("ALLOWED_USERS", "1,2,3")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("MAX_POLL_ATTEMPTS", "5")
	t.Setenv("YANDEX_API_KEY", "key")
	t.Setenv("YANDEX_FOLDER_ID", "folder")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.AllowedUsers) != 3 || cfg.AllowedUsers[2] != 3 {
		t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
	}

	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval)
	}

	if cfg.MaxPollAttempts != 5 {
		t.Fatalf("unexpected max poll attempts: %d", cfg.MaxPollAttempts)
	}

	if cfg.YandexAPIKey != "key" || cfg.YandexFolderID != "folder" {
		t.Fatalf("unexpected Yandex credentials: %q %q", cfg.YandexAPIKey, cfg.YandexFolderID)
	}
}

func TestLoadFailsWithoutToken(t *testing.T) {
	t.Setenv("TOKEN", "")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error without TOKEN")
	}
}
