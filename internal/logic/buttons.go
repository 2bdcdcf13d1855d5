package logic

import "time"

// ButtonState is the logical state of a mood button.
type ButtonState string

const (
	ButtonPressed  ButtonState = "PRESSED"
	ButtonReleased ButtonState = "RELEASED"
)

// ButtonMoods maps panel positions to quick-reply moods.
var ButtonMoods = []Mood{MoodHappy, MoodSad, MoodAnxious, MoodFrustrated, MoodNeutral}

// ButtonInput is a single sample of the panel. Pressed[i] is true while
// button i is held down.
type ButtonInput struct {
	Pressed []bool
	Time    time.Time
}

// ChannelState tracks debounce state for a single button.
type ChannelState struct {
	// Current stable (debounced) state
	Stable ButtonState
	// Pending state during debounce
	Pending ButtonState
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// ButtonDebouncer detects debounced presses on the mood-button panel.
type ButtonDebouncer struct {
	debounceDuration time.Duration
	channels         []ChannelState
	baselined        bool
}

// NewButtonDebouncer creates a debouncer for len(ButtonMoods) buttons.
func NewButtonDebouncer(debounceDuration time.Duration) *ButtonDebouncer {
	return &ButtonDebouncer{
		debounceDuration: debounceDuration,
		channels:         make([]ChannelState, len(ButtonMoods)),
	}
}

// Process takes a new panel sample and returns the moods whose buttons were
// pressed. Presses are only reported after every button has a baseline, so
// a button held down at startup does not count.
func (d *ButtonDebouncer) Process(input ButtonInput) []Mood {
	var pressed []Mood
	for i := range d.channels {
		state := ButtonReleased
		if i < len(input.Pressed) && input.Pressed[i] {
			state = ButtonPressed
		}
		if d.processChannel(&d.channels[i], state, input.Time) && d.baselined {
			pressed = append(pressed, ButtonMoods[i])
		}
	}

	if !d.baselined {
		for _, ch := range d.channels {
			if !ch.Baselined {
				return nil
			}
		}
		d.baselined = true
		return nil
	}
	return pressed
}

// processChannel handles debounce logic for a single button.
// Returns true on a debounced released->pressed transition.
func (d *ButtonDebouncer) processChannel(ch *ChannelState, newState ButtonState, now time.Time) bool {
	// First time seeing this button
	if !ch.Baselined {
		if ch.Pending == "" || ch.Pending != newState {
			ch.Pending = newState
			ch.PendingSince = now
			return false
		}
		if now.Sub(ch.PendingSince) >= d.debounceDuration {
			ch.Stable = newState
			ch.Baselined = true
			ch.Pending = ""
		}
		return false
	}

	if newState == ch.Stable {
		ch.Pending = ""
		return false
	}

	if ch.Pending != newState {
		ch.Pending = newState
		ch.PendingSince = now
		return false
	}

	if now.Sub(ch.PendingSince) >= d.debounceDuration {
		old := ch.Stable
		ch.Stable = newState
		ch.Pending = ""
		return old == ButtonReleased && newState == ButtonPressed
	}
	return false
}

// IsBaselined returns whether every button has a baseline.
func (d *ButtonDebouncer) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the stable state of every button.
func (d *ButtonDebouncer) CurrentState() []ButtonState {
	out := make([]ButtonState, len(d.channels))
	for i, ch := range d.channels {
		out[i] = ch.Stable
	}
	return out
}
