package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// Config holds daemon configuration. Durations are milliseconds.
type Config struct {
	// UserName personalizes nudges and error messages.
	UserName string `json:"user_name,omitempty"`

	// BackendURL is the base URL of the conversational backend.
	// Empty disables chat; user messages still go through crisis triage.
	BackendURL       string `json:"backend_url,omitempty"`
	BackendTimeoutMS int    `json:"backend_timeout_ms,omitempty"`

	// Broker is the MQTT broker address, e.g. tcp://localhost:1883.
	// Empty disables publishing.
	Broker      string `json:"broker,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`

	// HTTPAddr is the status/control server address. Empty disables it.
	HTTPAddr string `json:"http_addr,omitempty"`
	// WSBroker is the MQTT-over-websocket URL the status page subscribes to.
	// "=broker" derives ws://host:9001 from Broker; "off" disables.
	WSBroker string `json:"ws_broker,omitempty"`

	TickMS              int `json:"tick_ms,omitempty"`
	DecayIntervalMS     int `json:"decay_interval_ms,omitempty"`
	NudgeDelayMS        int `json:"nudge_delay_ms,omitempty"`
	BreathingFollowupMS int `json:"breathing_followup_ms,omitempty"`
	HeartbeatMS         int `json:"heartbeat_ms,omitempty"`

	WindowMS         int     `json:"window_ms,omitempty"`
	MaxWindowSamples int     `json:"max_window_samples,omitempty"`
	SampleThreshold  float64 `json:"sample_threshold,omitempty"`
	VoiceThreshold   float64 `json:"voice_threshold,omitempty"`
	VideoThreshold   float64 `json:"video_threshold,omitempty"`
	VoiceMinSamples  int     `json:"voice_min_samples,omitempty"`
	VideoMinSamples  int     `json:"video_min_samples,omitempty"`
	VoiceCooldownMS  int     `json:"voice_cooldown_ms,omitempty"`
	VideoCooldownMS  int     `json:"video_cooldown_ms,omitempty"`

	// GPIOChip is the gpiochip device name. Empty disables the button panel.
	GPIOChip       string `json:"gpio_chip,omitempty"`
	GPIOPins       []int  `json:"gpio_pins,omitempty"`
	GPIOPollMS     int    `json:"gpio_poll_ms,omitempty"`
	GPIODebounceMS int    `json:"gpio_debounce_ms,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UserName:            "Friend",
		BackendTimeoutMS:    30000,
		TopicPrefix:         "moodfuse",
		HTTPAddr:            ":80",
		WSBroker:            "=broker",
		TickMS:              1000,
		DecayIntervalMS:     ms(logic.DefaultDecayInterval),
		NudgeDelayMS:        ms(logic.DefaultNudgeDelay),
		BreathingFollowupMS: ms(logic.DefaultFollowUpDelay),
		HeartbeatMS:         15 * 60 * 1000,
		WindowMS:            ms(logic.DefaultWindow),
		MaxWindowSamples:    logic.DefaultMaxSamples,
		SampleThreshold:     logic.DefaultSampleThreshold,
		VoiceThreshold:      logic.DefaultVoiceThreshold,
		VideoThreshold:      logic.DefaultVideoThreshold,
		VoiceMinSamples:     logic.DefaultVoiceMinSamples,
		VideoMinSamples:     logic.DefaultVideoMinSamples,
		VoiceCooldownMS:     ms(logic.DefaultVoiceCooldown),
		VideoCooldownMS:     ms(logic.DefaultVideoCooldown),
		GPIOPins:            []int{5, 6, 13, 19, 26},
		GPIOPollMS:          50,
		GPIODebounceMS:      30,
		LogLevel:            "info",
	}
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}

func dur(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Load reads configuration from path.
// Returns default config if path is empty or the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence when non-zero; GPIOPins is replaced, not merged.
func Merge(base, overlay *Config) *Config {
	result := *base
	result.GPIOPins = append([]int(nil), base.GPIOPins...)

	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	flt := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}

	str(&result.UserName, overlay.UserName)
	str(&result.BackendURL, overlay.BackendURL)
	num(&result.BackendTimeoutMS, overlay.BackendTimeoutMS)
	str(&result.Broker, overlay.Broker)
	str(&result.TopicPrefix, overlay.TopicPrefix)
	str(&result.HTTPAddr, overlay.HTTPAddr)
	str(&result.WSBroker, overlay.WSBroker)

	num(&result.TickMS, overlay.TickMS)
	num(&result.DecayIntervalMS, overlay.DecayIntervalMS)
	num(&result.NudgeDelayMS, overlay.NudgeDelayMS)
	num(&result.BreathingFollowupMS, overlay.BreathingFollowupMS)
	num(&result.HeartbeatMS, overlay.HeartbeatMS)

	num(&result.WindowMS, overlay.WindowMS)
	num(&result.MaxWindowSamples, overlay.MaxWindowSamples)
	flt(&result.SampleThreshold, overlay.SampleThreshold)
	flt(&result.VoiceThreshold, overlay.VoiceThreshold)
	flt(&result.VideoThreshold, overlay.VideoThreshold)
	num(&result.VoiceMinSamples, overlay.VoiceMinSamples)
	num(&result.VideoMinSamples, overlay.VideoMinSamples)
	num(&result.VoiceCooldownMS, overlay.VoiceCooldownMS)
	num(&result.VideoCooldownMS, overlay.VideoCooldownMS)

	str(&result.GPIOChip, overlay.GPIOChip)
	if len(overlay.GPIOPins) > 0 {
		result.GPIOPins = append([]int(nil), overlay.GPIOPins...)
	}
	num(&result.GPIOPollMS, overlay.GPIOPollMS)
	num(&result.GPIODebounceMS, overlay.GPIODebounceMS)

	str(&result.LogLevel, overlay.LogLevel)
	return &result
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.DecayIntervalMS <= 0 {
		return fmt.Errorf("decay_interval_ms must be positive, got %d", c.DecayIntervalMS)
	}
	if c.WindowMS <= 0 {
		return fmt.Errorf("window_ms must be positive, got %d", c.WindowMS)
	}
	if c.MaxWindowSamples <= 0 {
		return fmt.Errorf("max_window_samples must be positive, got %d", c.MaxWindowSamples)
	}
	for name, v := range map[string]int{
		"voice_cooldown_ms": c.VoiceCooldownMS,
		"video_cooldown_ms": c.VideoCooldownMS,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	for name, v := range map[string]int{
		"voice_min_samples": c.VoiceMinSamples,
		"video_min_samples": c.VideoMinSamples,
	} {
		if v < 1 || v > c.MaxWindowSamples {
			return fmt.Errorf("%s must be in [1,max_window_samples], got %d", name, v)
		}
	}
	for name, v := range map[string]float64{
		"sample_threshold": c.SampleThreshold,
		"voice_threshold":  c.VoiceThreshold,
		"video_threshold":  c.VideoThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if c.GPIOChip != "" && len(c.GPIOPins) != len(logic.ButtonMoods) {
		return fmt.Errorf("gpio_pins needs %d pins, got %d", len(logic.ButtonMoods), len(c.GPIOPins))
	}
	return nil
}

// Fusion returns the smoothing and acceptance rules.
func (c *Config) Fusion() logic.FusionConfig {
	return logic.FusionConfig{
		Window:          dur(c.WindowMS),
		MaxSamples:      c.MaxWindowSamples,
		SampleThreshold: c.SampleThreshold,
		Voice: logic.ModalityConfig{
			MinSamples: c.VoiceMinSamples,
			Threshold:  c.VoiceThreshold,
			Cooldown:   dur(c.VoiceCooldownMS),
		},
		Video: logic.ModalityConfig{
			MinSamples: c.VideoMinSamples,
			Threshold:  c.VideoThreshold,
			Cooldown:   dur(c.VideoCooldownMS),
		},
	}
}

// Tick returns the clock tick interval.
func (c *Config) Tick() time.Duration { return dur(c.TickMS) }

// DecayInterval returns the pet decay interval.
func (c *Config) DecayInterval() time.Duration { return dur(c.DecayIntervalMS) }

// NudgeDelay returns the nudge debounce delay.
func (c *Config) NudgeDelay() time.Duration { return dur(c.NudgeDelayMS) }

// BreathingFollowup returns the delay before the breathing follow-up.
func (c *Config) BreathingFollowup() time.Duration { return dur(c.BreathingFollowupMS) }

// Heartbeat returns the system heartbeat interval.
func (c *Config) Heartbeat() time.Duration { return dur(c.HeartbeatMS) }

// BackendTimeout returns the per-request chat timeout.
func (c *Config) BackendTimeout() time.Duration { return dur(c.BackendTimeoutMS) }

// GPIOPoll returns the button panel poll interval.
func (c *Config) GPIOPoll() time.Duration { return dur(c.GPIOPollMS) }

// GPIODebounce returns the button debounce duration.
func (c *Config) GPIODebounce() time.Duration { return dur(c.GPIODebounceMS) }
