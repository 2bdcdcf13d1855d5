package logic

import (
	"fmt"
	"strings"
)

// Mood is the canonical mood label stored in the ledger.
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodSad        Mood = "sad"
	MoodAnxious    Mood = "anxious"
	MoodFrustrated Mood = "frustrated"
	MoodNeutral    Mood = "neutral"
)

// AllMoods lists the canonical moods in quick-reply order.
var AllMoods = []Mood{MoodHappy, MoodSad, MoodAnxious, MoodFrustrated, MoodNeutral}

// ParseMood converts a string into a canonical mood.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMoods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// Emotion is a raw label produced by a voice or video classifier.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionExcited   Emotion = "excited"
	EmotionPositive  Emotion = "positive"
	EmotionSurprised Emotion = "surprised"
	EmotionNeutral   Emotion = "neutral"
	EmotionSad       Emotion = "sad"
	EmotionNegative  Emotion = "negative"
	EmotionAngry     Emotion = "angry"
	EmotionDisgusted Emotion = "disgusted"
	EmotionFearful   Emotion = "fearful"
	EmotionAnxious   Emotion = "anxious"
)

// AllEmotions lists every raw label the canonical table knows about.
var AllEmotions = []Emotion{
	EmotionHappy, EmotionExcited, EmotionPositive, EmotionSurprised, EmotionNeutral,
	EmotionSad, EmotionNegative, EmotionAngry, EmotionDisgusted, EmotionFearful, EmotionAnxious,
}

// ParseEmotion normalizes a raw classifier label. Unknown labels map to
// EmotionNeutral and ok is false.
func ParseEmotion(raw string) (e Emotion, ok bool) {
	e = Emotion(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllEmotions {
		if e == known {
			return e, true
		}
	}
	return EmotionNeutral, false
}

// EmotionInfo is the canonical-scale rendering of an emotion.
type EmotionInfo struct {
	Mood  Mood
	Value int
	Emoji string
}

// Info maps the emotion onto the canonical mood scale.
func (e Emotion) Info() EmotionInfo {
	switch e {
	case EmotionHappy:
		return EmotionInfo{MoodHappy, 5, "😊"}
	case EmotionExcited:
		return EmotionInfo{MoodHappy, 5, "🤩"}
	case EmotionPositive:
		return EmotionInfo{MoodHappy, 4, "🙂"}
	case EmotionSurprised:
		return EmotionInfo{MoodNeutral, 4, "😲"}
	case EmotionSad:
		return EmotionInfo{MoodSad, 2, "😔"}
	case EmotionNegative:
		return EmotionInfo{MoodSad, 2, "😞"}
	case EmotionAngry:
		return EmotionInfo{MoodFrustrated, 2, "😡"}
	case EmotionDisgusted:
		return EmotionInfo{MoodFrustrated, 2, "😣"}
	case EmotionFearful:
		return EmotionInfo{MoodAnxious, 2, "😰"}
	case EmotionAnxious:
		return EmotionInfo{MoodAnxious, 3, "😰"}
	default:
		return EmotionInfo{MoodNeutral, 3, "😐"}
	}
}

// ChoiceInfo is the quick-reply mapping used by buttons.
func ChoiceInfo(m Mood) EmotionInfo {
	switch m {
	case MoodHappy:
		return EmotionInfo{MoodHappy, 5, "😊"}
	case MoodSad:
		return EmotionInfo{MoodSad, 2, "😔"}
	case MoodAnxious:
		return EmotionInfo{MoodAnxious, 3, "😰"}
	case MoodFrustrated:
		return EmotionInfo{MoodFrustrated, 2, "😡"}
	default:
		return EmotionInfo{MoodNeutral, 3, "😐"}
	}
}

// PetClass is the mood class driving the companion's stat reset.
type PetClass string

const (
	PetClassExcited    PetClass = "excited"
	PetClassHappy      PetClass = "happy"
	PetClassSad        PetClass = "sad"
	PetClassAnxious    PetClass = "anxious"
	PetClassFrustrated PetClass = "frustrated"
	PetClassNeutral    PetClass = "neutral"
)

// AllPetClasses lists every pet class.
var AllPetClasses = []PetClass{
	PetClassExcited, PetClassHappy, PetClassSad, PetClassAnxious, PetClassFrustrated, PetClassNeutral,
}

// PetClassForEmoji groups entry emoji into pet classes.
func PetClassForEmoji(emoji string) PetClass {
	switch emoji {
	case "😁", "😄", "🤩", "😍":
		return PetClassExcited
	case "😊", "🙂", "😌", "☺️":
		return PetClassHappy
	case "😢", "😭", "😞", "☹️", "🙁", "😔":
		return PetClassSad
	case "😰", "😨", "😟", "😥", "😓":
		return PetClassAnxious
	case "😤", "😠", "😡", "🤬", "😖", "😣":
		return PetClassFrustrated
	default:
		return PetClassNeutral
	}
}

// Acknowledgment returns the contextual reply shown when a modality produces an entry.
func Acknowledgment(source Modality, e Emotion, entry MoodEntry) string {
	switch source {
	case ModalityVoice:
		switch e {
		case EmotionHappy, EmotionExcited, EmotionPositive:
			return "I can hear the positivity in your voice! What's making you feel good today?"
		case EmotionSad, EmotionNegative:
			return "I sense some sadness in your tone. I'm here to listen. Want to talk about it?"
		case EmotionAngry, EmotionDisgusted:
			return "I hear frustration in your voice. Let's work through what's bothering you."
		case EmotionAnxious, EmotionFearful:
			return "Your voice suggests you might be feeling anxious. Take a deep breath with me."
		default:
			return "Thanks for sharing. How are things really going?"
		}
	case ModalityVideo:
		switch entry.Mood {
		case MoodHappy:
			return "I can see a smile! What's bringing you joy right now?"
		case MoodSad:
			return "You look a little down. I'm here if you want to talk."
		case MoodFrustrated:
			return "You seem frustrated. Want to tell me what's going on?"
		case MoodAnxious:
			return "You look a bit tense. Let's slow down and breathe together."
		default:
			return "Thanks for checking in. How are you feeling, really?"
		}
	default:
		if entry.Value <= 2 {
			return fmt.Sprintf("I see you're feeling %s. I'm here for you. Want to talk about it?", entry.Mood)
		}
		return fmt.Sprintf("I see you're feeling %s. That's good to hear! What's contributing to this feeling?", entry.Mood)
	}
}
