package logic

import (
	"strings"
	"testing"
)

func TestEveryEmotionMapsOntoScale(t *testing.T) {
	moods := make(map[Mood]bool)
	for _, m := range AllMoods {
		moods[m] = true
	}
	for _, e := range AllEmotions {
		info := e.Info()
		if !moods[info.Mood] {
			t.Errorf("%s: unknown mood %q", e, info.Mood)
		}
		if info.Value < MinMoodValue || info.Value > MaxMoodValue {
			t.Errorf("%s: value %d out of range", e, info.Value)
		}
		if info.Emoji == "" {
			t.Errorf("%s: missing emoji", e)
		}
	}
}

func TestEmotionTable(t *testing.T) {
	tests := []struct {
		emotion Emotion
		mood    Mood
		value   int
	}{
		{EmotionHappy, MoodHappy, 5},
		{EmotionExcited, MoodHappy, 5},
		{EmotionPositive, MoodHappy, 4},
		{EmotionSurprised, MoodNeutral, 4},
		{EmotionNeutral, MoodNeutral, 3},
		{EmotionSad, MoodSad, 2},
		{EmotionNegative, MoodSad, 2},
		{EmotionAngry, MoodFrustrated, 2},
		{EmotionDisgusted, MoodFrustrated, 2},
		{EmotionFearful, MoodAnxious, 2},
		{EmotionAnxious, MoodAnxious, 3},
	}
	if len(tests) != len(AllEmotions) {
		t.Fatalf("table covers %d of %d emotions", len(tests), len(AllEmotions))
	}
	for _, tt := range tests {
		info := tt.emotion.Info()
		if info.Mood != tt.mood || info.Value != tt.value {
			t.Errorf("%s: got %s/%d, want %s/%d", tt.emotion, info.Mood, info.Value, tt.mood, tt.value)
		}
	}
}

func TestParseEmotion(t *testing.T) {
	if e, ok := ParseEmotion(" Happy "); !ok || e != EmotionHappy {
		t.Errorf("got %s %v, want happy true", e, ok)
	}
	if e, ok := ParseEmotion("contempt"); ok || e != EmotionNeutral {
		t.Errorf("got %s %v, want neutral false", e, ok)
	}
}

func TestParseMood(t *testing.T) {
	for _, m := range AllMoods {
		got, err := ParseMood(strings.ToUpper(string(m)))
		if err != nil || got != m {
			t.Errorf("ParseMood(%s): got %s, %v", m, got, err)
		}
	}
	if _, err := ParseMood("elated"); err == nil {
		t.Error("expected error for unknown mood")
	}
}

func TestChoiceInfoMatchesMood(t *testing.T) {
	for _, m := range AllMoods {
		if got := ChoiceInfo(m).Mood; got != m {
			t.Errorf("ChoiceInfo(%s).Mood = %s", m, got)
		}
	}
}

func TestEntryEmojiDrivesPetClass(t *testing.T) {
	tests := []struct {
		emotion Emotion
		want    PetClass
	}{
		{EmotionExcited, PetClassExcited},
		{EmotionHappy, PetClassHappy},
		{EmotionPositive, PetClassHappy},
		{EmotionSad, PetClassSad},
		{EmotionNegative, PetClassSad},
		{EmotionAngry, PetClassFrustrated},
		{EmotionDisgusted, PetClassFrustrated},
		{EmotionFearful, PetClassAnxious},
		{EmotionAnxious, PetClassAnxious},
		{EmotionSurprised, PetClassNeutral},
		{EmotionNeutral, PetClassNeutral},
	}
	for _, tt := range tests {
		if got := PetClassForEmoji(tt.emotion.Info().Emoji); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.emotion, got, tt.want)
		}
	}
	for _, m := range AllMoods {
		want := PetClass(m)
		if got := PetClassForEmoji(ChoiceInfo(m).Emoji); got != want {
			t.Errorf("choice %s: got %s, want %s", m, got, want)
		}
	}
}

func TestAcknowledgment(t *testing.T) {
	low := MoodEntry{Mood: MoodSad, Value: 2}
	high := MoodEntry{Mood: MoodHappy, Value: 5}

	if got := Acknowledgment(ModalityButton, "", low); !strings.Contains(got, "I'm here for you") {
		t.Errorf("low button ack: %q", got)
	}
	if got := Acknowledgment(ModalityButton, "", high); !strings.Contains(got, "good to hear") {
		t.Errorf("high button ack: %q", got)
	}
	if got := Acknowledgment(ModalityVoice, EmotionFearful, low); !strings.Contains(got, "anxious") {
		t.Errorf("voice ack: %q", got)
	}
	if got := Acknowledgment(ModalityVideo, EmotionHappy, high); !strings.Contains(got, "smile") {
		t.Errorf("video ack: %q", got)
	}
}

func TestWantsBreathing(t *testing.T) {
	for _, text := range []string{"Can we do a breathing exercise?", "help me BREATHE", "I need to calm down"} {
		if !WantsBreathing(text) {
			t.Errorf("WantsBreathing(%q) = false", text)
		}
	}
	if WantsBreathing("I feel fine") {
		t.Error("unexpected breathing request")
	}
}

func TestTranscript(t *testing.T) {
	var tr Transcript
	if tr.LastOutbound() != nil {
		t.Error("empty transcript has no outbound message")
	}
	tr.Append(Message{Kind: KindUser, Text: "hi", Timestamp: t0})
	tr.Append(Message{Kind: KindReply, Text: "hello", Timestamp: t0})
	tr.Append(Message{Kind: KindUser, Text: "again", Timestamp: t0})

	last := tr.LastOutbound()
	if last == nil || last.Kind != KindReply {
		t.Fatalf("last outbound: got %+v", last)
	}
	if tr.UserMessages() != 2 {
		t.Errorf("user messages: got %d, want 2", tr.UserMessages())
	}
	if got := tr.Tail(2); len(got) != 2 || got[1].Text != "again" {
		t.Errorf("tail: got %+v", got)
	}
}
