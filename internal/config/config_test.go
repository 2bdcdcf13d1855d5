package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/moodfuse/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, `{"user_name": "Sam", "voice_cooldown_ms": 15000, "gpio_pins": [1,2,3,4,5]}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Sam", cfg.UserName)
	assert.Equal(t, 15000, cfg.VoiceCooldownMS)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.GPIOPins)
	// untouched fields keep defaults
	assert.Equal(t, 5000, cfg.VideoCooldownMS)
	assert.Equal(t, 30000, cfg.BackendTimeoutMS)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestMerge_OverlayWinsWhenSet(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{Broker: "tcp://broker:1883", SampleThreshold: 0.7}

	got := Merge(base, overlay)
	assert.Equal(t, "tcp://broker:1883", got.Broker)
	assert.Equal(t, 0.7, got.SampleThreshold)
	assert.Equal(t, base.VoiceThreshold, got.VoiceThreshold)
	assert.Equal(t, base.HTTPAddr, got.HTTPAddr)
}

func TestMerge_DoesNotAliasBase(t *testing.T) {
	base := DefaultConfig()
	got := Merge(base, &Config{})
	got.GPIOPins[0] = 99
	assert.Equal(t, 5, base.GPIOPins[0])
}

func TestDefaultFusionMatchesLogicDefaults(t *testing.T) {
	assert.Equal(t, logic.DefaultFusionConfig(), DefaultConfig().Fusion())
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.Tick())
	assert.Equal(t, time.Minute, cfg.DecayInterval())
	assert.Equal(t, 5*time.Second, cfg.NudgeDelay())
	assert.Equal(t, time.Minute, cfg.BreathingFollowup())
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat())
	assert.Equal(t, 50*time.Millisecond, cfg.GPIOPoll())
	assert.Equal(t, 30*time.Millisecond, cfg.GPIODebounce())
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	zeroCooldown := DefaultConfig()
	zeroCooldown.VoiceCooldownMS = 0
	require.NoError(t, zeroCooldown.Validate(), "zero cooldown disables it")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick", func(c *Config) { c.TickMS = 0 }},
		{"negative decay", func(c *Config) { c.DecayIntervalMS = -1 }},
		{"zero window", func(c *Config) { c.WindowMS = 0 }},
		{"negative window", func(c *Config) { c.WindowMS = -5000 }},
		{"zero max samples", func(c *Config) { c.MaxWindowSamples = 0 }},
		{"negative voice cooldown", func(c *Config) { c.VoiceCooldownMS = -1 }},
		{"negative video cooldown", func(c *Config) { c.VideoCooldownMS = -1 }},
		{"zero min samples", func(c *Config) { c.VoiceMinSamples = 0 }},
		{"min samples above window cap", func(c *Config) { c.VideoMinSamples = c.MaxWindowSamples + 1 }},
		{"threshold above one", func(c *Config) { c.VoiceThreshold = 1.5 }},
		{"wrong pin count", func(c *Config) { c.GPIOChip = "gpiochip0"; c.GPIOPins = []int{1, 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
