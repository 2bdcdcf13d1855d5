// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// DefaultTopicPrefix is the topic root when none is configured.
const DefaultTopicPrefix = "moodfuse"

// Topics are the MQTT topics the daemon publishes to.
type Topics struct {
	Events string // session events
	System string // lifecycle events
}

// TopicsFor derives the topics under prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a session event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Mood MoodPayload `json:"mood"`
}

// MoodPayload contains the session event details. Only the fields relevant
// to the event are present.
type MoodPayload struct {
	Timestamp string             `json:"timestamp"`
	Event     string             `json:"event"`
	Entry     *logic.MoodEntry   `json:"entry,omitempty"`
	Trend     string             `json:"trend,omitempty"`
	Crisis    *logic.CrisisState `json:"crisis,omitempty"`
	Message   *logic.Message     `json:"message,omitempty"`
	Pet       *PetPayload        `json:"pet,omitempty"`
	Modality  string             `json:"modality,omitempty"`
	Detail    string             `json:"detail,omitempty"`
}

// PetPayload is the companion's stats with the art to show.
type PetPayload struct {
	logic.PetSnapshot
	Visual string `json:"visual"`
}

// FormatPayload creates the JSON payload for a session event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := MoodPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Entry:     event.Entry,
		Trend:     string(event.Trend),
		Crisis:    event.Crisis,
		Message:   event.Message,
		Modality:  string(event.Modality),
		Detail:    event.Detail,
	}
	if event.Pet != nil {
		p.Pet = &PetPayload{PetSnapshot: *event.Pet, Visual: event.Pet.State.Visual()}
	}
	return json.Marshal(Payload{Mood: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(logic.Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected is always false.
func (NopPublisher) IsConnected() bool { return false }
