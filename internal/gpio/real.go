//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the panel from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	raw   []int
}

// NewRealReader requests pins (BCM offsets, panel order) on the named chip.
func NewRealReader(chipName string, pins []int) (*RealReader, error) {
	if len(pins) != NumButtons {
		return nil, fmt.Errorf("gpio: need %d pins, got %d", NumButtons, len(pins))
	}
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	// Buttons short the line to ground, so hold it high while released.
	lines, err := chip.RequestLines(pins, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pins %v: %w", pins, err)
	}

	return &RealReader{
		chip:  chip,
		lines: lines,
		raw:   make([]int, len(pins)),
	}, nil
}

// Read returns the logical state of every button.
// Inverts raw GPIO: raw inactive (0) = pressed.
func (r *RealReader) Read() (Buttons, error) {
	if err := r.lines.Values(r.raw); err != nil {
		return nil, fmt.Errorf("read button pins: %w", err)
	}
	b := make(Buttons, len(r.raw))
	for i, v := range r.raw {
		b[i] = v == 0
	}
	return b, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
