package gpio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader(Pressed(), Pressed(1), Pressed(0, 4))

	want := []Buttons{Pressed(), Pressed(1), Pressed(0, 4)}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		for j := range w {
			if got[j] != w[j] {
				t.Errorf("sample %d button %d: got %v, want %v", i, j, got[j], w[j])
			}
		}
	}

	// Exhausted: last sample repeats.
	got, _ := f.Read()
	if !got[0] || !got[4] {
		t.Errorf("expected last sample to repeat, got %v", got)
	}
}

func TestFakeReaderReturnsCopy(t *testing.T) {
	f := NewFakeReader(Pressed(2))
	got, _ := f.Read()
	got[2] = false
	again, _ := f.Read()
	if !again[2] {
		t.Error("caller mutated scripted sample")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader(Pressed())
	f.ReadError = errors.New("simulated error")
	if _, err := f.Read(); err == nil {
		t.Error("expected error")
	}

	if _, err := NewFakeReader().Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader(Pressed(), Pressed(3))
	f.Read()
	f.Read()
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed {
		t.Error("should not be closed after Reset()")
	}
	got, _ := f.Read()
	if got[3] {
		t.Error("expected first sample after Reset()")
	}
}

func TestStateString(t *testing.T) {
	got := StateString(Pressed(1))
	want := "happy=RELEASED sad=PRESSED anxious=RELEASED frustrated=RELEASED neutral=RELEASED"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWatchReportsDebouncedPresses(t *testing.T) {
	// released x2 (baseline), sad pressed x2, released
	f := NewFakeReader(Pressed(), Pressed(), Pressed(1), Pressed(1), Pressed())

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	presses := make(chan logic.Mood, 4)
	readies := make(chan struct{}, 4)
	done := make(chan error)
	go func() {
		done <- Watch(ctx, f, 30*time.Millisecond, tick, func(m logic.Mood) { presses <- m }, func() { readies <- struct{}{} })
	}()

	for i := 0; i < 5; i++ {
		tick <- start.Add(time.Duration(i) * 50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	close(presses)
	var got []logic.Mood
	for m := range presses {
		got = append(got, m)
	}
	if len(got) != 1 || got[0] != logic.MoodSad {
		t.Errorf("presses: got %v, want [sad]", got)
	}
	if n := len(readies); n != 1 {
		t.Errorf("ready calls: got %d, want 1", n)
	}
}
