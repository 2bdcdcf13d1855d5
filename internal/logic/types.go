// Package logic contains the pure fusion and decision core of the mood companion.
// This package has NO external dependencies (no network, MQTT, GPIO, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Modality identifies an independent emotion-signal source.
type Modality string

const (
	ModalityButton Modality = "button"
	ModalityVoice  Modality = "voice"
	ModalityVideo  Modality = "video"
)

// AllModalities lists every modality in display order.
var AllModalities = []Modality{ModalityButton, ModalityVoice, ModalityVideo}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	switch m {
	case ModalityButton, ModalityVoice, ModalityVideo:
		return true
	default:
		return false
	}
}

// EmotionSample is a single raw classification emitted by a modality adapter.
// It only lives inside a smoothing window.
type EmotionSample struct {
	Label      string
	Confidence float64
	Time       time.Time
}

// MoodEntry is an immutable, normalized record in the mood ledger.
type MoodEntry struct {
	ID         string    `json:"id,omitempty"`
	Mood       Mood      `json:"mood"`
	Value      int       `json:"value"`
	Emoji      string    `json:"emoji"`
	Timestamp  time.Time `json:"timestamp"`
	Source     Modality  `json:"source"`
	Confidence float64   `json:"confidence,omitempty"` // zero for button choices
	RawText    string    `json:"text,omitempty"`
}

// EventType identifies an outbound event for rendering and analytics.
type EventType string

const (
	EventMoodEntry       EventType = "MOOD_ENTRY"
	EventTrendChanged    EventType = "TREND_CHANGED"
	EventCrisisDetected  EventType = "CRISIS_DETECTED"
	EventCrisisChanged   EventType = "CRISIS_CHANGED"
	EventCrisisDismissed EventType = "CRISIS_DISMISSED"
	EventNudgeScheduled  EventType = "NUDGE_SCHEDULED"
	EventNudgeCancelled  EventType = "NUDGE_CANCELLED"
	EventMessage         EventType = "MESSAGE"
	EventPetStats        EventType = "PET_STATS"
	EventPetStateChanged EventType = "PET_STATE_CHANGED"
	EventPetFeedback     EventType = "PET_FEEDBACK"
	EventModalityChanged EventType = "MODALITY_CHANGED"
)

// Event represents a state change to be published.
// Only the fields relevant to Type are set.
type Event struct {
	Timestamp time.Time
	Type      EventType

	Entry    *MoodEntry
	Trend    Trend
	Crisis   *CrisisState
	Message  *Message
	Pet      *PetSnapshot
	Modality Modality
	Detail   string
}

// PetSnapshot is a point-in-time view of the companion.
type PetSnapshot struct {
	Stats PetStats `json:"stats"`
	State PetState `json:"state"`
	Title string   `json:"title"`
}

// EventCounts tracks the number of notable events since startup.
type EventCounts struct {
	ButtonEntries    int
	VoiceEntries     int
	VideoEntries     int
	CrisisDetections int
	NudgesSent       int
	PetActions       int
}

// CountEntry increments the counter for the entry's source.
func (c *EventCounts) CountEntry(source Modality) {
	switch source {
	case ModalityButton:
		c.ButtonEntries++
	case ModalityVoice:
		c.VoiceEntries++
	case ModalityVideo:
		c.VideoEntries++
	}
}
