// Package events is the engine's side-effect sink: one line per state
// transition or error condition. The append-only event log file is the
// record the web UI tails; optional sinks mirror the same stream to
// InfluxDB and MQTT for external monitors.
package events

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/greenside-labs/irrigator/internal/model"
)

// Sink receives one human-readable line per event.
type Sink interface {
	Event(msg string)
	Close()
}

// StatePublisher receives structured zone/schedule transitions and run
// outcomes, for sinks that can carry more than a line of text.
type StatePublisher interface {
	PublishState(evt model.StateChangeEvent)
	PublishResult(evt model.RunResultEvent)
}

const DefaultLogPath = "events.log"

// Logger appends timestamped lines to the event log file and mirrors
// them to the process log.
type Logger struct {
	f *os.File
}

func NewLogger(path string) (*Logger, error) {
	if path == "" {
		path = DefaultLogPath
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	return &Logger{f: f}, nil
}

func (l *Logger) Event(msg string) {
	log.Printf("event: %s", msg)
	line := fmt.Sprintf("%s %s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
	if _, err := l.f.WriteString(line); err != nil {
		log.Printf("event: log write: %v", err)
	}
}

func (l *Logger) Close() {
	if err := l.f.Close(); err != nil {
		log.Printf("event: log close: %v", err)
	}
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Event(msg string) {
	for _, s := range m {
		s.Event(msg)
	}
}

func (m Multi) Close() {
	for _, s := range m {
		s.Close()
	}
}
