package config

import "time"

// FetchConfig holds settings for the shared web fetcher.
type FetchConfig struct {
	RPS       float64
	Timeout   time.Duration
	UserAgent string
}

// DownloadConfig holds settings for asset downloads.
type DownloadConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	TempDir  string
}

// PollingConfig holds Telegram update polling settings.
type PollingConfig struct {
	Timeout  int
	Interval time.Duration
	Workers  int
}

func (c *Config) Fetch() FetchConfig {
	return FetchConfig{
		RPS:       c.WebFetchRPS,
		Timeout:   c.WebFetchTimeout,
		UserAgent: c.UserAgent,
	}
}

func (c *Config) Download() DownloadConfig {
	return DownloadConfig{
		Timeout:  c.DownloadTimeout,
		MaxBytes: c.MaxDownloadBytes,
		TempDir:  c.TempDir,
	}
}

func (c *Config) Polling() PollingConfig {
	return PollingConfig{
		Timeout:  c.PollTimeout,
		Interval: c.PollInterval,
		Workers:  c.DispatchWorkers,
	}
}
