package logic

import (
	"strings"
	"time"
)

// CrisisLevel is a keyword-triggered severity tier.
type CrisisLevel string

const (
	CrisisNone     CrisisLevel = "none"
	CrisisMild     CrisisLevel = "mild"
	CrisisModerate CrisisLevel = "moderate"
	CrisisSevere   CrisisLevel = "severe"
)

// Rank orders levels: none < mild < moderate < severe.
func (l CrisisLevel) Rank() int {
	switch l {
	case CrisisMild:
		return 1
	case CrisisModerate:
		return 2
	case CrisisSevere:
		return 3
	default:
		return 0
	}
}

type crisisTier struct {
	level    CrisisLevel
	keywords []string
}

// crisisTiers is checked in order; the first tier with any match wins.
var crisisTiers = []crisisTier{
	{CrisisSevere, []string{"suicide", "kill myself", "end my life", "want to die"}},
	{CrisisModerate, []string{"self harm", "hurt myself", "no point", "give up"}},
	{CrisisMild, []string{"hopeless", "worthless", "can't go on", "too much"}},
}

// Scan classifies a whole message by case-insensitive substring match.
// It needs no network or adapter and never fails.
func Scan(text string) CrisisLevel {
	lower := strings.ToLower(text)
	// Curly apostrophes from mobile keyboards.
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, tier := range crisisTiers {
		for _, k := range tier.keywords {
			if strings.Contains(lower, k) {
				return tier.level
			}
		}
	}
	return CrisisNone
}

// CrisisState is the session's current severity. Its rank only decreases
// through Dismiss.
type CrisisState struct {
	Level      CrisisLevel `json:"level"`
	DetectedAt time.Time   `json:"detected_at,omitempty"`
	Trigger    string      `json:"trigger,omitempty"`
}

// NewCrisisState returns a state at CrisisNone.
func NewCrisisState() CrisisState {
	return CrisisState{Level: CrisisNone}
}

// Observe records a detection and raises the level if the new rank is higher.
// It reports whether the level changed.
func (s *CrisisState) Observe(level CrisisLevel, text string, now time.Time) bool {
	if level.Rank() <= s.Level.Rank() {
		return false
	}
	s.Level = level
	s.DetectedAt = now
	s.Trigger = text
	return true
}

// RaiseFromBackend applies a backend crisis flag: none becomes moderate,
// anything else is kept.
func (s *CrisisState) RaiseFromBackend(text string, now time.Time) bool {
	if s.Level != CrisisNone {
		return false
	}
	return s.Observe(CrisisModerate, text, now)
}

// Dismiss resets to none after the user confirms they are safe.
func (s *CrisisState) Dismiss() bool {
	if s.Level == CrisisNone {
		return false
	}
	*s = NewCrisisState()
	return true
}
