package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/greenside-labs/irrigator/internal/events"
	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/model/messages"
	"github.com/greenside-labs/irrigator/internal/override"
	"github.com/greenside-labs/irrigator/internal/relay"
)

// Engine error codes. Relay faults accumulate numerically on top of
// these; the override sentinel is distinct from every hardware code.
const (
	CodeOK               = 0
	CodeNotFound         = 1
	CodeWeatherCancelled = 1
	CodeWeatherFetch     = 6
	CodeOverrideAbort    = 42
)

// Runner drives a single zone for a requested duration while staying
// responsive to the externally-set override flag.
type Runner struct {
	relays   relay.Controller
	watcher  *override.Watcher
	sink     events.Sink
	statePub events.StatePublisher // optional
	trigger  int
}

func NewRunner(relays relay.Controller, watcher *override.Watcher, sink events.Sink, trigger int) *Runner {
	return &Runner{relays: relays, watcher: watcher, sink: sink, trigger: trigger}
}

// SetStatePublisher attaches an optional structured-event publisher.
func (r *Runner) SetStatePublisher(p events.StatePublisher) {
	r.statePub = p
}

// Run engages the zone's relay, holds it for duration while polling
// the override flag, then disengages it. The relay is always
// disengaged before Run returns, even when the hold is cut short.
// Relay faults accumulate into the returned code; a run that ends with
// the override flag still set returns the sentinel CodeOverrideAbort
// instead.
func (r *Runner) Run(ctx context.Context, zone string, duration time.Duration) int {
	code := 0

	r.sink.Event(fmt.Sprintf("Turning on zone %s for %s.", zone, duration))
	code += r.relays.Set(r.trigger, zone)
	r.publishState(zone, model.StateOn, duration)

	r.watcher.Wait(ctx, duration)

	r.sink.Event(fmt.Sprintf("Turning off zone %s.", zone))
	code += r.relays.Set(relay.OffLevel(r.trigger), zone)
	r.publishState(zone, model.StateOff, 0)

	// The final check decides: if the override is still set after the
	// relay is off, the run counts as aborted regardless of any
	// hardware codes collected along the way.
	if r.watcher.Engaged() {
		code = CodeOverrideAbort
	}
	return code
}

func (r *Runner) publishState(zone string, state messages.RelayState, duration time.Duration) {
	if r.statePub == nil {
		return
	}
	r.statePub.PublishState(model.StateChangeEvent{
		Zone:      zone,
		NewState:  state,
		Duration:  duration,
		Timestamp: time.Now(),
	})
}
