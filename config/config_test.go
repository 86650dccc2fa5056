package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "JWT_SECRET", "DATABASE_URL", "ARCHIVE_INTERVAL", "MAX_MESSAGES_PER_DAY"} {
		t.Setenv(key, "")
	}

	cfg, _ := Load()
	assert.Equal(t, "", cfg.HTTPPort, "an explicitly empty variable wins over the default")
	assert.Equal(t, 10*time.Second, cfg.ArchiveInterval)
	assert.Equal(t, 0, cfg.MaxMessagesPerDay)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", " 9090 ")
	t.Setenv("ARCHIVE_INTERVAL", "1m")
	t.Setenv("MAX_MESSAGES_PER_DAY", "100")
	t.Setenv("DATABASE_DRIVER", "sqlite3")

	cfg, _ := Load()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, time.Minute, cfg.ArchiveInterval)
	assert.Equal(t, 100, cfg.MaxMessagesPerDay)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ARCHIVE_INTERVAL", "-5s")
	t.Setenv("MAX_MESSAGES_PER_DAY", "lots")

	cfg, _ := Load()
	assert.Equal(t, 10*time.Second, cfg.ArchiveInterval)
	assert.Equal(t, 0, cfg.MaxMessagesPerDay)
}
