// Package gpio reads the physical mood-button panel.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// NumButtons is the size of the panel: happy, sad, anxious, frustrated, neutral.
const NumButtons = 5

// Buttons holds one pressed flag per panel position.
type Buttons []bool

// Reader reads the button panel.
type Reader interface {
	// Read returns the logical state of every button.
	// Buttons are wired active-low: raw 0 = pressed.
	Read() (Buttons, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the gpiochip on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// DefaultPins are the BCM pins in panel order.
var DefaultPins = []int{5, 6, 13, 19, 26}
