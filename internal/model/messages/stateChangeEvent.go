package messages

import "time"

// RelayState indicates whether a zone's relay is engaged.
type RelayState string

const (
	StateOff RelayState = "off"
	StateOn  RelayState = "on"
)

// StateChangeEvent is published when a zone or schedule changes state,
// so an external monitor can follow live progress.
type StateChangeEvent struct {
	Zone      string        `json:"zone,omitempty"`
	Schedule  string        `json:"schedule,omitempty"`
	NewState  RelayState    `json:"new_state"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
