package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill the gaps", func(t *testing.T) {
		// Given: a config file that only sets the port
		path := writeConfig(t, "http-port: \"8080\"\n")

		// When: it is loaded
		conf, err := Load(path)

		// Then: everything else has its default
		require.NoError(t, err)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 360*time.Second, conf.Game.TimeControl)
		assert.Equal(t, 30*time.Second, conf.Matchmaking.TTL)
		assert.Equal(t, 32, conf.Rating.KFactor)
		assert.Equal(t, 100, conf.Rating.Default)
	})

	t.Run("File values win over defaults", func(t *testing.T) {
		path := writeConfig(t, "game:\n  time-control: 60s\nmatchmaking:\n  ttl: 5s\nrating:\n  k-factor: 16\n")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, time.Minute, conf.Game.TimeControl)
		assert.Equal(t, 5*time.Second, conf.Matchmaking.TTL)
		assert.Equal(t, 16, conf.Rating.KFactor)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "redis:\n  host: redis.local\n")
		t.Setenv("REDIS_HOST", "cache")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "cache:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))

		assert.Error(t, err)
	})
}
