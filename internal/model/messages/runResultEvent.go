package messages

import "time"

// RunResultEvent reports the outcome of a control invocation.
type RunResultEvent struct {
	Zone      string    `json:"zone,omitempty"`
	Schedule  string    `json:"schedule,omitempty"`
	ErrorCode int       `json:"error_code"`
	Timestamp time.Time `json:"timestamp"`
}
