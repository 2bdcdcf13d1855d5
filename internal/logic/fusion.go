package logic

import (
	"fmt"
	"time"
)

// Fusion defaults. Observed deployments disagree on the voice cooldown
// (10s vs 15s), so every value is overridable through FusionConfig.
const (
	DefaultWindow          = 5 * time.Second
	DefaultMaxSamples      = 20
	DefaultSampleThreshold = 0.6
	DefaultVoiceThreshold  = 0.65
	DefaultVideoThreshold  = 0.65
	DefaultVoiceMinSamples = 2
	DefaultVideoMinSamples = 1
	DefaultVoiceCooldown   = 10 * time.Second
	DefaultVideoCooldown   = 5 * time.Second
)

// ModalityConfig holds the acceptance rules for one modality.
type ModalityConfig struct {
	MinSamples int
	Threshold  float64
	Cooldown   time.Duration
}

// FusionConfig configures smoothing for every fused modality.
type FusionConfig struct {
	// Window is the maximum sample age kept in a buffer.
	Window time.Duration
	// MaxSamples bounds the buffer length regardless of age.
	MaxSamples int
	// SampleThreshold drops individual samples below this confidence before buffering.
	SampleThreshold float64
	Voice           ModalityConfig
	Video           ModalityConfig
}

// DefaultFusionConfig returns the default smoothing rules.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		Window:          DefaultWindow,
		MaxSamples:      DefaultMaxSamples,
		SampleThreshold: DefaultSampleThreshold,
		Voice: ModalityConfig{
			MinSamples: DefaultVoiceMinSamples,
			Threshold:  DefaultVoiceThreshold,
			Cooldown:   DefaultVoiceCooldown,
		},
		Video: ModalityConfig{
			MinSamples: DefaultVideoMinSamples,
			Threshold:  DefaultVideoThreshold,
			Cooldown:   DefaultVideoCooldown,
		},
	}
}

// For returns the rules for a fused modality.
func (c FusionConfig) For(m Modality) (ModalityConfig, bool) {
	switch m {
	case ModalityVoice:
		return c.Voice, true
	case ModalityVideo:
		return c.Video, true
	default:
		return ModalityConfig{}, false
	}
}

// CooldownClock is the last time a modality had an entry accepted.
// The zero value has never fired and is always ready.
type CooldownClock struct {
	Last time.Time
}

// Ready reports whether cooldown has elapsed at now.
func (c CooldownClock) Ready(now time.Time, cooldown time.Duration) bool {
	if c.Last.IsZero() {
		return true
	}
	return now.Sub(c.Last) >= cooldown
}

// Mark returns the clock advanced to now.
func (c CooldownClock) Mark(now time.Time) CooldownClock {
	return CooldownClock{Last: now}
}

// Verdict explains what Accept did with a sample.
type Verdict string

const (
	VerdictAccepted      Verdict = "accepted"
	VerdictLowConfidence Verdict = "low_confidence"
	VerdictInsufficient  Verdict = "insufficient_samples"
	VerdictBelowThresh   Verdict = "below_threshold"
	VerdictCoolingDown   Verdict = "cooling_down"
	VerdictUnsupported   Verdict = "unsupported_modality"
)

// Candidate is the outcome of a weighted vote.
type Candidate struct {
	Emotion    Emotion
	Confidence float64
}

// Vote computes a linearly recency-weighted vote over samples in arrival order.
// Sample i of n contributes confidence*(i+1)/n to its label. The winner's
// confidence is its score divided by the total weight, so it stays in [0,1].
// Ties go to the label seen most recently.
func Vote(samples []EmotionSample) (Candidate, bool) {
	n := len(samples)
	if n == 0 {
		return Candidate{}, false
	}

	scores := make(map[Emotion]float64)
	lastSeen := make(map[Emotion]int)
	var totalWeight float64
	for i, s := range samples {
		e, _ := ParseEmotion(s.Label)
		weight := float64(i+1) / float64(n)
		scores[e] += s.Confidence * weight
		lastSeen[e] = i
		totalWeight += weight
	}

	var best Emotion
	bestScore := -1.0
	for e, score := range scores {
		if score > bestScore || (score == bestScore && lastSeen[e] > lastSeen[best]) {
			best = e
			bestScore = score
		}
	}
	return Candidate{Emotion: best, Confidence: bestScore / totalWeight}, true
}

// window is a bounded, age-evicting sample queue.
type window struct {
	samples []EmotionSample
}

func (w *window) push(s EmotionSample, max int) {
	w.samples = append(w.samples, s)
	if max > 0 && len(w.samples) > max {
		w.samples = w.samples[len(w.samples)-max:]
	}
}

func (w *window) evict(now time.Time, age time.Duration) {
	keep := w.samples[:0]
	for _, s := range w.samples {
		if now.Sub(s.Time) <= age {
			keep = append(keep, s)
		}
	}
	w.samples = keep
}

// Fuser owns one smoothing window and one CooldownClock per fused modality.
// Not safe for concurrent use; the session serializes calls.
type Fuser struct {
	cfg     FusionConfig
	windows map[Modality]*window
	clocks  map[Modality]CooldownClock
}

// NewFuser creates a fuser with the given rules.
func NewFuser(cfg FusionConfig) *Fuser {
	return &Fuser{
		cfg: cfg,
		windows: map[Modality]*window{
			ModalityVoice: {},
			ModalityVideo: {},
		},
		clocks: make(map[Modality]CooldownClock),
	}
}

// Config returns the fuser's rules.
func (f *Fuser) Config() FusionConfig {
	return f.cfg
}

// Accept pushes a sample and returns a fused entry when every acceptance rule
// holds. On acceptance the modality's CooldownClock advances to now.
// The sample time is clamped into [now-Window, now].
func (f *Fuser) Accept(m Modality, s EmotionSample, now time.Time) (MoodEntry, Emotion, Verdict) {
	mc, ok := f.cfg.For(m)
	if !ok {
		return MoodEntry{}, "", VerdictUnsupported
	}
	w := f.windows[m]

	if s.Time.After(now) {
		s.Time = now
	} else if oldest := now.Add(-f.cfg.Window); s.Time.Before(oldest) {
		s.Time = oldest
	}

	if s.Confidence < f.cfg.SampleThreshold {
		w.evict(now, f.cfg.Window)
		return MoodEntry{}, "", VerdictLowConfidence
	}

	w.push(s, f.cfg.MaxSamples)
	w.evict(now, f.cfg.Window)

	if len(w.samples) < mc.MinSamples {
		return MoodEntry{}, "", VerdictInsufficient
	}

	c, ok := Vote(w.samples)
	if !ok {
		return MoodEntry{}, "", VerdictInsufficient
	}
	if c.Confidence < mc.Threshold {
		return MoodEntry{}, c.Emotion, VerdictBelowThresh
	}
	if !f.clocks[m].Ready(now, mc.Cooldown) {
		return MoodEntry{}, c.Emotion, VerdictCoolingDown
	}

	info := c.Emotion.Info()
	f.clocks[m] = f.clocks[m].Mark(now)
	return MoodEntry{
		Mood:       info.Mood,
		Value:      info.Value,
		Emoji:      info.Emoji,
		Timestamp:  now,
		Source:     m,
		Confidence: c.Confidence,
		RawText:    fmt.Sprintf("%s: %s", modalityTitle(m), c.Emotion),
	}, c.Emotion, VerdictAccepted
}

// Expire evicts stale samples from every window. A modality that has been
// silent longer than the window ends up empty without emitting anything.
func (f *Fuser) Expire(now time.Time) {
	for _, w := range f.windows {
		w.evict(now, f.cfg.Window)
	}
}

// Reset empties a modality's window.
func (f *Fuser) Reset(m Modality) {
	if w, ok := f.windows[m]; ok {
		w.samples = nil
	}
}

// Buffered returns the number of samples currently held for m.
func (f *Fuser) Buffered(m Modality) int {
	if w, ok := f.windows[m]; ok {
		return len(w.samples)
	}
	return 0
}

// Cooldown returns the modality's clock.
func (f *Fuser) Cooldown(m Modality) CooldownClock {
	return f.clocks[m]
}

func modalityTitle(m Modality) string {
	switch m {
	case ModalityVoice:
		return "Voice"
	case ModalityVideo:
		return "Video"
	default:
		return "Button"
	}
}
