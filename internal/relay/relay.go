// Package relay abstracts the physical relay outputs behind a small
// capability interface. The platform variant is selected once at
// startup from settings.target_sys; every variant drives all outputs
// to the safe off level when constructed, which is what the engine's
// init path relies on for a known-off state after boot.
package relay

import "log"

// Error codes returned by Set. Non-zero codes accumulate numerically
// in the caller; a hardware fault never stops a run, the engine must
// still finish its override checks and state cleanup.
const (
	CodeOK    = 0
	CodeFault = 1
)

// Controller drives one installation's relay outputs.
type Controller interface {
	// Set drives the output for zone to the given logic level.
	Set(level int, zone string) int
	// Cleanup releases all outputs to the safe off state. It must be
	// invoked exactly once before process exit, regardless of how the
	// run terminated.
	Cleanup()
}

// Pins maps output names to GPIO pin numbers. The shared gate pin is
// carried under the reserved name "gate".
type Pins map[string]int

const GatePin = "gate"

// OffLevel returns the logic level that disengages a relay for the
// configured trigger polarity.
func OffLevel(trigger int) int {
	if trigger == 0 {
		return 1
	}
	return 0
}

// New selects the platform variant by target system tag.
func New(targetSys string, pins Pins, trigger int) Controller {
	switch targetSys {
	case "RasPi":
		log.Printf("relay: initializing relays on Raspberry Pi")
		return newRasPi(pins, trigger)
	case "CHIP":
		log.Printf("relay: initializing relays on CHIP")
		return newCHIP(pins, trigger)
	default:
		log.Printf("relay: initializing relays on NONE, prototype mode")
		return NewPrototype(pins, trigger)
	}
}
