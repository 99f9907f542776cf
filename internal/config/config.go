package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all settings read from the environment. Load is called once
// per binary after godotenv has run.
type Config struct {
	TTSRootURL       string
	MP3StoragePath   string
	PollInterval     time.Duration
	Port             string
	BaseURL          string
	RedisAddr        string
	HoarderRootURL   string
	HoarderAPIKey    string
	DatabaseURL      string
	CutoffDate       *time.Time
	PullMax          int
	TTSBatchSize     int
	FeedMaxEpisodes  int
	ArchiveDomains   map[string]bool
}

func Load() (*Config, error) {
	cfg := &Config{
		TTSRootURL:      getenv("TTS_ROOT_URL", "http://localhost:5001"),
		MP3StoragePath:  getenv("MP3_STORAGE_PATH", "audio"),
		Port:            getenv("PORT", "5002"),
		BaseURL:         os.Getenv("BASE_URL"),
		RedisAddr:       getenv("REDIS_ADDR", "127.0.0.1:6379"),
		HoarderRootURL:  strings.TrimSuffix(getenv("HOARDER_ROOT_URL", "http://localhost:3000"), "/"),
		HoarderAPIKey:   os.Getenv("HOARDER_API_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ArchiveDomains:  map[string]bool{},
	}

	if cfg.HoarderAPIKey == "" {
		return nil, fmt.Errorf("HOARDER_API_KEY is not set")
	}

	minutes, err := intEnv("POLL_INTERVAL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = time.Duration(minutes) * time.Minute

	if cfg.TTSBatchSize, err = intEnv("TTS_BATCH_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.FeedMaxEpisodes, err = intEnv("FEED_MAX_EPISODES", 50); err != nil {
		return nil, err
	}
	if cfg.PullMax, err = intEnv("EPISODES_PULL_MAX", 0); err != nil {
		return nil, err
	}

	if raw := os.Getenv("EPISODES_CUTOFF_DATE"); raw != "" {
		cutoff, err := ParseCutoffDate(raw)
		if err != nil {
			return nil, fmt.Errorf("EPISODES_CUTOFF_DATE: %w", err)
		}
		cfg.CutoffDate = &cutoff
	}

	// Comma separated list of domains whose articles are fetched through
	// an archive.ph snapshot instead of directly.
	if raw := os.Getenv("ARCHIVE_PH_DOMAINS"); raw != "" {
		for _, domain := range strings.Split(raw, ",") {
			domain = RemoveWWW(strings.TrimSpace(domain))
			if domain != "" {
				cfg.ArchiveDomains[domain] = true
			}
		}
	}

	return cfg, nil
}

// ParseCutoffDate parses a YYYY-MM-DD date in the local timezone.
func ParseCutoffDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}

// RemoveWWW strips a leading "www." so allowlist matching works for both
// www and bare hostnames.
func RemoveWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
