package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should write defaults on first run", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.True(t, cfg.IncludeTomorrow)
		assert.Equal(t, 150, cfg.Speech.Rate)
		assert.InDelta(t, 0.9, cfg.Speech.Volume, 1e-9)
		assert.Equal(t, []string{"birthday", "holiday", "anniversary"}, cfg.Filter.SkipKeywords)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "user_name.txt"), cfg.NameFile)

		info, err := os.Stat(path)
		require.NoError(t, err)
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		}
	})

	t.Run("should let the file override defaults", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
include_tomorrow: false
source: ics
ics:
  - id: work
    url: https://example.com/cal.ics
speech:
  engine: none
  rate: 180
schedule: "0 8 * * 1-5"
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.False(t, cfg.IncludeTomorrow)
		assert.True(t, cfg.IncludeAllDay)
		assert.Equal(t, SourceICS, cfg.Source)
		require.Len(t, cfg.ICS, 1)
		assert.Equal(t, "work", cfg.ICS[0].ID)
		assert.Equal(t, "none", cfg.Speech.Engine)
		assert.Equal(t, 180, cfg.Speech.Rate)
		assert.InDelta(t, 0.9, cfg.Speech.Volume, 1e-9)
		assert.Equal(t, "0 8 * * 1-5", cfg.Schedule)
	})

	t.Run("should let the environment override the file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("speech:\n  rate: 180\n"), 0o600))
		t.Setenv("DAILYBRIEF_SPEECH__RATE", "120")
		t.Setenv("DAILYBRIEF_INCLUDE_TOMORROW", "false")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.Speech.Rate)
		assert.False(t, cfg.IncludeTomorrow)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("speech: [unclosed"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("should reject an empty path", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		Source: "exchange",
		Speech: SpeechConfig{Engine: "Robot", Rate: -1, Volume: 3},
	}

	cfg.Normalize()

	assert.Contains(t, []string{SourceOutlook, SourceICS}, cfg.Source)
	assert.Equal(t, "auto", cfg.Speech.Engine)
	assert.Equal(t, 150, cfg.Speech.Rate)
	assert.InDelta(t, 0.9, cfg.Speech.Volume, 1e-9)
	assert.Equal(t, 100, cfg.Outlook.MaxScan)
	assert.NotNil(t, cfg.ICS)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Oslo"
	cfg.BasicAuth = BasicAuthConfig{Username: "me", Password: "secret"}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Oslo", loaded.Timezone)
	assert.True(t, loaded.BasicAuth.Enabled())
}

func TestValidate(t *testing.T) {
	t.Run("should accept the defaults", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("should reject values normalize cannot repair", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Timezone = "Mars/Olympus_Mons"
		cfg.Listen = "localhost"
		cfg.BasicAuth = BasicAuthConfig{Username: "admin"}

		err := cfg.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Config.Timezone")
		assert.Contains(t, err.Error(), "Config.Listen")
		assert.Contains(t, err.Error(), "Config.BasicAuth.Password")
	})

	t.Run("should fail loading an invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("listen: \"not an address\"\n"), 0o600))

		_, err := Load(path)

		assert.ErrorContains(t, err, "invalid config")
	})
}
