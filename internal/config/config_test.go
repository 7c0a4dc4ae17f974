package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("telegram:\n  token: abc\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Poll.NewDealsInterval.Std() != 300*time.Second {
		t.Fatalf("new_deals_interval = %v", cfg.Poll.NewDealsInterval.Std())
	}
	if cfg.Poll.PriceAlertsInterval.Std() != 600*time.Second {
		t.Fatalf("price_alerts_interval = %v", cfg.Poll.PriceAlertsInterval.Std())
	}
	if cfg.Poll.RetentionSweepAt != "03:30" || cfg.Poll.RetentionDays != 30 {
		t.Fatalf("retention defaults = %q/%d", cfg.Poll.RetentionSweepAt, cfg.Poll.RetentionDays)
	}
	if cfg.Poll.PageSize != 5 || cfg.Poll.SendRatePerSec != 20 {
		t.Fatalf("paging defaults = %d/%d", cfg.Poll.PageSize, cfg.Poll.SendRatePerSec)
	}
	if cfg.Catalog.BaseURL != "http://localhost:8080" {
		t.Fatalf("base_url = %q", cfg.Catalog.BaseURL)
	}
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte(`
telegram:
  token: abc
  poll_timeout: 30s
poll:
  new_deals_interval: 5m
  price_alerts_interval: 1h
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.PollTimeout.Std() != 30*time.Second {
		t.Fatalf("poll_timeout = %v", cfg.Telegram.PollTimeout.Std())
	}
	if cfg.Poll.NewDealsInterval.Std() != 5*time.Minute {
		t.Fatalf("new_deals_interval = %v", cfg.Poll.NewDealsInterval.Std())
	}
	if cfg.Poll.PriceAlertsInterval.Std() != time.Hour {
		t.Fatalf("price_alerts_interval = %v", cfg.Poll.PriceAlertsInterval.Std())
	}
}

func TestParseInvalidDuration(t *testing.T) {
	if _, err := Parse([]byte("poll:\n  new_deals_interval: soon\n")); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("telegramm:\n  token: abc\n")); err == nil {
		t.Fatal("expected error for misspelled section")
	}
	if _, err := Parse([]byte("poll:\n  new_deal_interval: 5m\n")); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestLoadTokenFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("telegram:\n  token: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing token")
	}
}
