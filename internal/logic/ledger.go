package logic

import (
	"errors"
	"fmt"
)

// Ledger tail sizes.
const (
	TrendWindow  = 5  // entries considered by the trend
	BackendTail  = 10 // entries sent to the conversational backend
	DisplayTail  = 50 // entries exposed for display
	MinMoodValue = 1
	MaxMoodValue = 5
)

// ErrValueOutOfRange is returned when an entry's value is outside [1,5].
var ErrValueOutOfRange = errors.New("mood value out of range")

// Ledger is an append-only, time-ordered log of mood entries.
// Entries are never mutated, reordered, or removed.
type Ledger struct {
	entries []MoodEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds an entry to the end of the ledger.
func (l *Ledger) Append(e MoodEntry) error {
	if e.Value < MinMoodValue || e.Value > MaxMoodValue {
		return fmt.Errorf("%w: %d", ErrValueOutOfRange, e.Value)
	}
	l.entries = append(l.entries, e)
	return nil
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Tail returns a copy of the last n entries (fewer if the ledger is shorter).
func (l *Ledger) Tail(n int) []MoodEntry {
	return tail(l.entries, n)
}

// Entries returns a copy of the full history.
func (l *Ledger) Entries() []MoodEntry {
	return tail(l.entries, len(l.entries))
}

// Last returns the most recent entry.
func (l *Ledger) Last() (MoodEntry, bool) {
	if len(l.entries) == 0 {
		return MoodEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Trend classifies the ledger's tail.
func (l *Ledger) Trend() Trend {
	return TrendOf(l.entries)
}

// Stats summarizes the full history.
func (l *Ledger) Stats() LedgerStats {
	s := LedgerStats{Count: len(l.entries), ByMood: make(map[Mood]int)}
	if s.Count == 0 {
		return s
	}
	total := 0
	for _, e := range l.entries {
		total += e.Value
		s.ByMood[e.Mood]++
	}
	s.Average = float64(total) / float64(s.Count)
	return s
}

// LedgerStats is a dashboard summary of the ledger.
type LedgerStats struct {
	Count   int
	Average float64
	ByMood  map[Mood]int
}

func tail(entries []MoodEntry, n int) []MoodEntry {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]MoodEntry, n)
	copy(out, entries[len(entries)-n:])
	return out
}

// Trend is a short-window classification of recent mood.
type Trend string

const (
	TrendVeryPositive Trend = "very-positive"
	TrendPositive     Trend = "positive"
	TrendNeutral      Trend = "neutral"
	TrendNegative     Trend = "negative"
)

// TrendOf averages the value of the last TrendWindow entries. It depends on
// nothing but that tail; an empty history is neutral.
func TrendOf(entries []MoodEntry) Trend {
	recent := entries
	if len(recent) > TrendWindow {
		recent = recent[len(recent)-TrendWindow:]
	}
	if len(recent) == 0 {
		return TrendNeutral
	}
	sum := 0
	for _, e := range recent {
		sum += e.Value
	}
	avg := float64(sum) / float64(len(recent))
	switch {
	case avg >= 4.5:
		return TrendVeryPositive
	case avg >= 3.5:
		return TrendPositive
	case avg <= 2.5:
		return TrendNegative
	default:
		return TrendNeutral
	}
}
