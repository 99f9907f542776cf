package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("HOARDER_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOARDER_API_KEY", "key")
	for _, key := range []string{"TTS_ROOT_URL", "POLL_INTERVAL_MINUTES", "TTS_BATCH_SIZE", "EPISODES_CUTOFF_DATE", "ARCHIVE_PH_DOMAINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:5001", cfg.TTSRootURL)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, 10, cfg.TTSBatchSize)
	assert.Nil(t, cfg.CutoffDate)
	assert.Empty(t, cfg.ArchiveDomains)
}

func TestLoadParsesArchiveDomains(t *testing.T) {
	t.Setenv("HOARDER_API_KEY", "key")
	t.Setenv("ARCHIVE_PH_DOMAINS", "www.paywalled.com, news.example.org")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.ArchiveDomains["paywalled.com"])
	assert.True(t, cfg.ArchiveDomains["news.example.org"])
}

func TestLoadParsesCutoffDate(t *testing.T) {
	t.Setenv("HOARDER_API_KEY", "key")
	t.Setenv("EPISODES_CUTOFF_DATE", "2025-03-01")

	cfg, err := Load()
	assert.NoError(t, err)
	if assert.NotNil(t, cfg.CutoffDate) {
		assert.Equal(t, 2025, cfg.CutoffDate.Year())
		assert.Equal(t, time.March, cfg.CutoffDate.Month())
	}

	t.Setenv("EPISODES_CUTOFF_DATE", "not-a-date")
	_, err = Load()
	assert.Error(t, err)
}
