// Package config loads kaiwa settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Client configures the game binary.
type Client struct {
	ChatURL        string        `env:"KAIWA_CHAT_URL"        envDefault:"http://localhost:3001/api/chat"`
	HistoryWindow  int           `env:"KAIWA_HISTORY_WINDOW"  envDefault:"10"`
	RequestTimeout time.Duration `env:"KAIWA_REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimit      float64       `env:"KAIWA_RATE_LIMIT"      envDefault:"1"`
	RateBurst      int           `env:"KAIWA_RATE_BURST"      envDefault:"2"`
	TTSEnabled     bool          `env:"KAIWA_TTS_ENABLED"     envDefault:"false"`
	TTSCommand     []string      `env:"KAIWA_TTS_COMMAND"     envSeparator:" "`
	LogLevel       string        `env:"KAIWA_LOG_LEVEL"       envDefault:"info"`
	LogFormat      string        `env:"KAIWA_LOG_FORMAT"      envDefault:"text"`
	LogFile        string        `env:"KAIWA_LOG_FILE"        envDefault:"kaiwa.log"`
	SaveDir        string        `env:"KAIWA_SAVE_DIR"        envDefault:"saves"`
}

// Proxy configures the chat proxy binary.
type Proxy struct {
	APIKey          string        `env:"OPENAI_API_KEY"`
	BaseURL         string        `env:"OPENAI_BASE_URL"         envDefault:"https://api.openai.com/v1"`
	Model           string        `env:"KAIWA_MODEL"             envDefault:"gpt-4o-mini"`
	Temperature     float64       `env:"KAIWA_TEMPERATURE"       envDefault:"0.8"`
	MaxTokens       int           `env:"KAIWA_MAX_TOKENS"        envDefault:"500"`
	Addr            string        `env:"KAIWA_PROXY_ADDR"        envDefault:":3001"`
	UpstreamTimeout time.Duration `env:"KAIWA_UPSTREAM_TIMEOUT"  envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"KAIWA_SHUTDOWN_TIMEOUT"  envDefault:"10s"`
	LogLevel        string        `env:"KAIWA_LOG_LEVEL"         envDefault:"info"`
	LogFormat       string        `env:"KAIWA_LOG_FORMAT"        envDefault:"json"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads the named .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing
// files are not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadClient reads .env and parses the game settings.
func LoadClient() (Client, error) {
	var c Client
	if err := LoadDotEnv(); err != nil {
		return c, err
	}
	if err := ParseEnv(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// LoadProxy reads .env and parses the proxy settings.
func LoadProxy() (Proxy, error) {
	var p Proxy
	if err := LoadDotEnv(); err != nil {
		return p, err
	}
	if err := ParseEnv(&p); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// Validate checks value ranges that env tags cannot express.
func (c Client) Validate() error {
	var errs []error
	if _, err := parseURL(c.ChatURL); err != nil {
		errs = append(errs, fmt.Errorf("KAIWA_CHAT_URL: %w", err))
	}
	if c.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("KAIWA_HISTORY_WINDOW must not be negative, got %d", c.HistoryWindow))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("KAIWA_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("KAIWA_RATE_LIMIT must not be negative, got %g", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("KAIWA_RATE_BURST must be at least 1, got %d", c.RateBurst))
	}
	if c.TTSEnabled && len(c.TTSCommand) == 0 {
		errs = append(errs, errors.New("KAIWA_TTS_COMMAND is required when KAIWA_TTS_ENABLED is set"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := checkFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks value ranges that env tags cannot express. A missing API
// key is not an error here; the proxy answers 500 until one is configured.
func (p Proxy) Validate() error {
	var errs []error
	if _, err := parseURL(p.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("OPENAI_BASE_URL: %w", err))
	}
	if strings.TrimSpace(p.Model) == "" {
		errs = append(errs, errors.New("KAIWA_MODEL must not be empty"))
	}
	if p.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("KAIWA_MAX_TOKENS must be positive, got %d", p.MaxTokens))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("KAIWA_TEMPERATURE must be within [0, 2], got %g", p.Temperature))
	}
	if p.Addr == "" {
		errs = append(errs, errors.New("KAIWA_PROXY_ADDR must not be empty"))
	}
	if p.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("KAIWA_UPSTREAM_TIMEOUT must be positive, got %s", p.UpstreamTimeout))
	}
	if _, err := ParseLevel(p.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := checkFormat(p.LogFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}
