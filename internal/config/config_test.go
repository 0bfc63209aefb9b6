package config

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv removes any ambient WHISPERDOG_* variables for the duration of the
// test, so defaults are asserted against a clean environment. t.Setenv
// registers the restore; the unset is what the test needs.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WHISPERDOG_NORMALIZE",
		"WHISPERDOG_TARGET_RMS_DB",
		"WHISPERDOG_INTERVAL_MS",
		"WHISPERDOG_ACTIVITY_THRESHOLD",
		"WHISPERDOG_DOMINANCE_RATIO",
		"WHISPERDOG_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.True(t, cfg.Normalize)
	assert.Equal(t, -20.0, cfg.TargetRMSDB)
	assert.Equal(t, int64(100), cfg.IntervalMS)
	assert.Equal(t, 0.005, cfg.ActivityThreshold)
	assert.Equal(t, 3.0, cfg.DominanceRatio)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WHISPERDOG_NORMALIZE", "false")
	t.Setenv("WHISPERDOG_TARGET_RMS_DB", "-18")
	t.Setenv("WHISPERDOG_INTERVAL_MS", "250")
	t.Setenv("WHISPERDOG_ACTIVITY_THRESHOLD", "0.01")
	t.Setenv("WHISPERDOG_DOMINANCE_RATIO", "4")
	t.Setenv("WHISPERDOG_LOG_LEVEL", "debug")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.False(t, cfg.Normalize)
	assert.Equal(t, -18.0, cfg.TargetRMSDB)
	assert.Equal(t, int64(250), cfg.IntervalMS)
	assert.Equal(t, 0.01, cfg.ActivityThreshold)
	assert.Equal(t, 4.0, cfg.DominanceRatio)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"target too hot", "WHISPERDOG_TARGET_RMS_DB", "-1"},
		{"target too quiet", "WHISPERDOG_TARGET_RMS_DB", "-60"},
		{"interval too short", "WHISPERDOG_INTERVAL_MS", "5"},
		{"interval too long", "WHISPERDOG_INTERVAL_MS", "60000"},
		{"threshold zero", "WHISPERDOG_ACTIVITY_THRESHOLD", "0"},
		{"threshold too high", "WHISPERDOG_ACTIVITY_THRESHOLD", "1.5"},
		{"ratio below one", "WHISPERDOG_DOMINANCE_RATIO", "0.5"},
		{"unknown log level", "WHISPERDOG_LOG_LEVEL", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config:")
		})
	}
}

func TestLoadRejectsUnparseable(t *testing.T) {
	clearEnv(t)
	t.Setenv("WHISPERDOG_INTERVAL_MS", "fast")
	_, err := Load(context.Background())
	require.Error(t, err)
}
