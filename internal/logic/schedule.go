package logic

import "time"

// ScheduledTask is a single cancellable deadline on a logical clock.
// Callers poll Fire with the current time; nothing runs in the background.
type ScheduledTask struct {
	due   time.Time
	armed bool
}

// Arm schedules the task at now+delay, replacing any pending deadline.
func (t *ScheduledTask) Arm(now time.Time, delay time.Duration) {
	t.due = now.Add(delay)
	t.armed = true
}

// Cancel drops a pending deadline. It reports whether one was pending.
func (t *ScheduledTask) Cancel() bool {
	was := t.armed
	t.armed = false
	t.due = time.Time{}
	return was
}

// Pending reports whether the task is armed.
func (t *ScheduledTask) Pending() bool {
	return t.armed
}

// Due returns the pending deadline, or the zero time.
func (t *ScheduledTask) Due() time.Time {
	return t.due
}

// Fire returns true exactly once, when the task is armed and now has reached
// the deadline. Firing disarms the task.
func (t *ScheduledTask) Fire(now time.Time) bool {
	if !t.armed || now.Before(t.due) {
		return false
	}
	t.Cancel()
	return true
}
