package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseEnv_ClientDefaults(t *testing.T) {
	var c Client
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if c.ChatURL != "http://localhost:3001/api/chat" {
		t.Errorf("ChatURL = %q", c.ChatURL)
	}
	if c.HistoryWindow != 10 {
		t.Errorf("HistoryWindow = %d, want 10", c.HistoryWindow)
	}
	if c.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s", c.RequestTimeout)
	}
	if c.SaveDir != "saves" {
		t.Errorf("SaveDir = %q", c.SaveDir)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseEnv_ClientOverrides(t *testing.T) {
	t.Setenv("KAIWA_CHAT_URL", "https://example.com/chat")
	t.Setenv("KAIWA_HISTORY_WINDOW", "4")
	t.Setenv("KAIWA_REQUEST_TIMEOUT", "5s")
	t.Setenv("KAIWA_TTS_ENABLED", "true")
	t.Setenv("KAIWA_TTS_COMMAND", "say -v Kyoko")

	var c Client
	if err := ParseEnv(&c); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if c.ChatURL != "https://example.com/chat" || c.HistoryWindow != 4 || c.RequestTimeout != 5*time.Second {
		t.Errorf("Client = %+v", c)
	}
	if !c.TTSEnabled || strings.Join(c.TTSCommand, "|") != "say|-v|Kyoko" {
		t.Errorf("TTS = %v %v", c.TTSEnabled, c.TTSCommand)
	}
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("KAIWA_HISTORY_WINDOW", "lots")

	var c Client
	err := ParseEnv(&c)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.HasPrefix(err.Error(), "parse env:") {
		t.Errorf("error = %q, want parse env prefix", err)
	}
}

func TestClientValidate(t *testing.T) {
	base := func() Client {
		var c Client
		if err := ParseEnv(&c); err != nil {
			t.Fatal(err)
		}
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Client)
		want   string
	}{
		{"bad url", func(c *Client) { c.ChatURL = "localhost:3001" }, "KAIWA_CHAT_URL"},
		{"negative window", func(c *Client) { c.HistoryWindow = -1 }, "KAIWA_HISTORY_WINDOW"},
		{"zero timeout", func(c *Client) { c.RequestTimeout = 0 }, "KAIWA_REQUEST_TIMEOUT"},
		{"negative rate", func(c *Client) { c.RateLimit = -1 }, "KAIWA_RATE_LIMIT"},
		{"no burst", func(c *Client) { c.RateBurst = 0 }, "KAIWA_RATE_BURST"},
		{"tts without command", func(c *Client) { c.TTSEnabled = true }, "KAIWA_TTS_COMMAND"},
		{"bad level", func(c *Client) { c.LogLevel = "loud" }, "KAIWA_LOG_LEVEL"},
		{"bad format", func(c *Client) { c.LogFormat = "xml" }, "KAIWA_LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestProxyDefaultsAndValidate(t *testing.T) {
	var p Proxy
	if err := ParseEnv(&p); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if p.Model != "gpt-4o-mini" || p.MaxTokens != 500 || p.Temperature != 0.8 || p.Addr != ":3001" {
		t.Errorf("Proxy = %+v", p)
	}
	// A missing key is allowed.
	p.APIKey = ""
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	p.Temperature = 3
	p.MaxTokens = 0
	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "KAIWA_TEMPERATURE") || !strings.Contains(err.Error(), "KAIWA_MAX_TOKENS") {
		t.Errorf("error = %q, want both problems", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("KAIWA_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KAIWA_TEST_DOTENV", "")
	os.Unsetenv("KAIWA_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("KAIWA_TEST_DOTENV"); got != "from-file" {
		t.Errorf("KAIWA_TEST_DOTENV = %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line logged at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("output = %q, want JSON line", out)
	}

	if _, err := NewLogger(&buf, "info", "xml"); err == nil {
		t.Error("expected bad format error")
	}
	if _, err := NewLogger(&buf, "chatty", "text"); err == nil {
		t.Error("expected bad level error")
	}
}
