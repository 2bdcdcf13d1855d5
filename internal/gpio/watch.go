package gpio

import (
	"context"
	"time"

	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
)

// Watch samples r on every tick, debounces using the tick time, and calls
// press for each debounced button press. ready, if non-nil, is called once
// when every button has a settled baseline. It returns when ctx is done.
// Read errors are logged and the sample is skipped.
func Watch(ctx context.Context, r Reader, debounce time.Duration, tick <-chan time.Time, press func(logic.Mood), ready func()) error {
	d := logic.NewButtonDebouncer(debounce)
	baselined := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick:
			b, err := r.Read()
			if err != nil {
				log.Warn("gpio read error", "error", err)
				continue
			}
			for _, m := range d.Process(logic.ButtonInput{Pressed: b, Time: now}) {
				log.Info("button pressed", "mood", m)
				press(m)
			}
			if !baselined && d.IsBaselined() {
				baselined = true
				log.Info("button panel baselined", "state", StateString(b))
				if ready != nil {
					ready()
				}
			}
		}
	}
}

// StateString renders a panel state as "happy=RELEASED sad=PRESSED ...".
func StateString(b Buttons) string {
	out := ""
	for i, m := range logic.ButtonMoods {
		state := logic.ButtonReleased
		if i < len(b) && b[i] {
			state = logic.ButtonPressed
		}
		if i > 0 {
			out += " "
		}
		out += string(m) + "=" + string(state)
	}
	return out
}
