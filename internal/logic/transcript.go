package logic

import (
	"strings"
	"time"
)

// MessageKind tags a transcript message.
type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindReply     MessageKind = "reply"
	KindAck       MessageKind = "ack"
	KindNudge     MessageKind = "nudge"
	KindBreathing MessageKind = "breathing"
	KindFollowUp  MessageKind = "follow_up"
	KindError     MessageKind = "error"
)

// Message is one line of the conversation.
type Message struct {
	Kind         MessageKind   `json:"kind"`
	Text         string        `json:"text"`
	Timestamp    time.Time     `json:"timestamp"`
	Source       Modality      `json:"source,omitempty"`        // acknowledgments only
	CrisisLevel  CrisisLevel   `json:"crisis_level,omitempty"`  // user messages only
	Model        string        `json:"model,omitempty"`         // backend replies only
	ResponseTime time.Duration `json:"response_time,omitempty"` // backend replies only
	Breathing    bool          `json:"breathing_option,omitempty"`
}

// Outbound reports whether the message was sent to the user.
func (m Message) Outbound() bool {
	return m.Kind != KindUser
}

// Transcript is the session's ordered message stream.
type Transcript struct {
	messages []Message
}

// Append adds a message.
func (t *Transcript) Append(m Message) {
	t.messages = append(t.messages, m)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Tail returns a copy of the last n messages.
func (t *Transcript) Tail(n int) []Message {
	if n <= 0 || len(t.messages) == 0 {
		return nil
	}
	if n > len(t.messages) {
		n = len(t.messages)
	}
	out := make([]Message, n)
	copy(out, t.messages[len(t.messages)-n:])
	return out
}

// LastOutbound returns the most recent outbound message, or nil.
func (t *Transcript) LastOutbound() *Message {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Outbound() {
			m := t.messages[i]
			return &m
		}
	}
	return nil
}

// UserMessages counts messages sent by the user.
func (t *Transcript) UserMessages() int {
	n := 0
	for _, m := range t.messages {
		if m.Kind == KindUser {
			n++
		}
	}
	return n
}

// WantsBreathing reports whether a user message asks for the breathing exercise.
func WantsBreathing(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "breathing") ||
		strings.Contains(lower, "breathe") ||
		strings.Contains(lower, "calm down")
}

// Breathing exercise texts.
const (
	BreathingText = "Let's take a moment to breathe together. 🧘\n\n" +
		"Inhale deeply for 4 seconds... Hold for 4... Exhale for 4... Hold for 4.\n\n" +
		"Repeat this cycle 3 times. I'll wait here for you."
	FollowUpText = "How are you feeling now? Sometimes just a minute of breathing can make a difference. 💚"
)
