package logic

import (
	"fmt"
	"time"
)

// Nudge defaults.
const (
	DefaultNudgeDelay    = 5 * time.Second
	NudgeRunLength       = 3
	NudgeMaxMoodValue    = 2
	DefaultFollowUpDelay = 60 * time.Second
)

// NudgeAction describes what a scheduler call did.
type NudgeAction int

const (
	NudgeNone NudgeAction = iota
	NudgeScheduled
	NudgeCancelled
	NudgeFired
)

func (a NudgeAction) String() string {
	switch a {
	case NudgeScheduled:
		return "scheduled"
	case NudgeCancelled:
		return "cancelled"
	case NudgeFired:
		return "fired"
	default:
		return "none"
	}
}

// NudgeCondition holds when the last NudgeRunLength entries all have a value
// of at most NudgeMaxMoodValue and the latest outbound message is neither a
// nudge nor a breathing offer.
func NudgeCondition(recent []MoodEntry, lastOutbound *Message) bool {
	if len(recent) < NudgeRunLength {
		return false
	}
	for _, e := range recent[len(recent)-NudgeRunLength:] {
		if e.Value > NudgeMaxMoodValue {
			return false
		}
	}
	if lastOutbound != nil && (lastOutbound.Kind == KindNudge || lastOutbound.Kind == KindBreathing) {
		return false
	}
	return true
}

// NudgeScheduler debounces a single proactive intervention.
// At most one nudge is pending at a time.
type NudgeScheduler struct {
	delay time.Duration
	task  ScheduledTask
}

// NewNudgeScheduler creates a scheduler that fires delay after arming.
func NewNudgeScheduler(delay time.Duration) *NudgeScheduler {
	return &NudgeScheduler{delay: delay}
}

// Evaluate re-checks the condition after a ledger or message change.
// A false condition cancels a pending nudge; a true one arms if idle.
func (n *NudgeScheduler) Evaluate(now time.Time, cond bool) NudgeAction {
	if n.task.Pending() {
		if !cond {
			n.task.Cancel()
			return NudgeCancelled
		}
		return NudgeNone
	}
	if cond {
		n.task.Arm(now, n.delay)
		return NudgeScheduled
	}
	return NudgeNone
}

// Interrupt cancels a pending nudge because a new user message arrived.
// Re-arming waits for the next Evaluate.
func (n *NudgeScheduler) Interrupt() NudgeAction {
	if n.task.Cancel() {
		return NudgeCancelled
	}
	return NudgeNone
}

// Poll fires the pending nudge once its delay has elapsed.
func (n *NudgeScheduler) Poll(now time.Time) NudgeAction {
	if n.task.Fire(now) {
		return NudgeFired
	}
	return NudgeNone
}

// Pending reports whether a nudge is armed.
func (n *NudgeScheduler) Pending() bool {
	return n.task.Pending()
}

// Due returns the pending deadline.
func (n *NudgeScheduler) Due() time.Time {
	return n.task.Due()
}

// Cancel drops any pending nudge (teardown).
func (n *NudgeScheduler) Cancel() bool {
	return n.task.Cancel()
}

// NudgeText is the proactive wellness message.
func NudgeText(userName string) string {
	if userName == "" {
		userName = "Friend"
	}
	return fmt.Sprintf("%s, I've noticed you've been feeling down. Remember, it's okay to not be okay. Would you like to try a breathing exercise? 🧘", userName)
}
