package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultUserAgent is the browser-like User-Agent sent with every fetch.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

var (
	errNonPositive     = errors.New("must be positive")
	errUnknownLanguage = errors.New("unsupported language")
	errTimeoutTooShort = errors.New("must exceed POLL_TIMEOUT")
)

var supportedLanguages = []string{"fa", "en"}

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	BotToken    string `env:"BOT_TOKEN,required"`
	BotLanguage string `env:"BOT_LANGUAGE" envDefault:"fa"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Update polling
	PollTimeout     int           `env:"POLL_TIMEOUT" envDefault:"60"`
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	DispatchWorkers int           `env:"DISPATCH_WORKERS" envDefault:"4"`
	TelegramTimeout time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"5m"`

	// Outgoing HTTP
	WebFetchRPS      float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout  time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"30s"`
	DownloadTimeout  time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"5m"`
	MaxDownloadBytes int64         `env:"MAX_DOWNLOAD_BYTES" envDefault:"52428800"`
	UserAgent        string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`
	TempDir          string        `env:"TEMP_DIR" envDefault:""`

	// Pinterest
	PinterestImageCDN string `env:"PINTEREST_IMAGE_CDN" envDefault:"i.pinimg.com"`
	PinterestVideoCDN string `env:"PINTEREST_VIDEO_CDN" envDefault:"v.pinimg.com"`

	// YouTube
	YouTubeEnabled bool `env:"YOUTUBE_ENABLED" envDefault:"true"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.BotLanguage = strings.ToLower(strings.TrimSpace(cfg.BotLanguage))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the bot cannot run with.
func (c *Config) Validate() error {
	if c.DispatchWorkers <= 0 {
		return fmt.Errorf("DISPATCH_WORKERS %w", errNonPositive)
	}

	if c.WebFetchTimeout <= 0 {
		return fmt.Errorf("WEB_FETCH_TIMEOUT %w", errNonPositive)
	}

	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT %w", errNonPositive)
	}

	if c.MaxDownloadBytes <= 0 {
		return fmt.Errorf("MAX_DOWNLOAD_BYTES %w", errNonPositive)
	}

	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT %w", errNonPositive)
	}

	if c.TelegramTimeout <= time.Duration(c.PollTimeout)*time.Second {
		return fmt.Errorf("TELEGRAM_TIMEOUT %w", errTimeoutTooShort)
	}

	for _, lang := range supportedLanguages {
		if c.BotLanguage == lang {
			return nil
		}
	}

	return fmt.Errorf("BOT_LANGUAGE %q: %w", c.BotLanguage, errUnknownLanguage)
}
