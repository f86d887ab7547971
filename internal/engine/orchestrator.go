package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/greenside-labs/irrigator/internal/events"
	"github.com/greenside-labs/irrigator/internal/gate"
	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/override"
	"github.com/greenside-labs/irrigator/internal/relay"
	"github.com/greenside-labs/irrigator/internal/store"
)

// Options are the caller's requested actions, straight from the CLI.
type Options struct {
	Zone     string
	Duration int // minutes, manual mode only
	Schedule string
	Force    bool
	Init     bool
}

// RelayFactory builds the platform relay controller once the config
// document is loaded.
type RelayFactory func(targetSys string, pins relay.Pins, trigger int) relay.Controller

// Orchestrator is the top-level decision tree: it selects among
// initialize, schedule run, manual run, weather-cancelled and
// no-action, and guarantees relay cleanup plus a final persisted state
// with the control flags cleared on every path.
type Orchestrator struct {
	store    *store.Store
	wxStore  *store.WeatherStore
	sink     events.Sink
	statePub events.StatePublisher

	newRelays    RelayFactory
	pollInterval time.Duration
	zoneUnit     time.Duration
}

func New(st *store.Store, wx *store.WeatherStore, sink events.Sink) *Orchestrator {
	return &Orchestrator{
		store:        st,
		wxStore:      wx,
		sink:         sink,
		newRelays:    relay.New,
		pollInterval: override.DefaultInterval,
		zoneUnit:     time.Minute,
	}
}

// SetRelayFactory replaces the platform selection, used to inject a
// fake capability.
func (o *Orchestrator) SetRelayFactory(f RelayFactory) {
	o.newRelays = f
}

// SetStatePublisher attaches an optional structured-event publisher
// passed through to the zone runner.
func (o *Orchestrator) SetStatePublisher(p events.StatePublisher) {
	o.statePub = p
}

// Run executes one control invocation and returns the process exit
// code: 0 success or no-action, 1 not-found or weather-cancelled, 42
// manual-override abort, other nonzero accumulated hardware faults.
func (o *Orchestrator) Run(ctx context.Context, opts Options) int {
	o.sink.Event("***** Control Script Starting *****")

	doc, err := o.store.Load()
	if err != nil {
		o.sink.Event(fmt.Sprintf("Cannot load config: %v", err))
		return CodeNotFound
	}
	trigger := doc.Settings.RelayTrigger

	doc.Controls.Active = true
	o.persist(doc)

	relays := o.newRelays(doc.Settings.TargetSys, pinsFrom(doc), trigger)

	code := CodeOK
	wx, werr := o.wxStore.Load(doc.WxData)
	if werr != nil {
		// Degrades to a permissive zero-rain snapshot. The decision
		// branches below each assign their own code, so this one only
		// survives until the decision is made.
		code = CodeWeatherFetch
		o.sink.Event("Weather fetch failed for some reason. Bad API response? Network issue?")
	} else {
		o.logWeather(doc.WxData, wx)
	}

	verdict := gate.Evaluate(wx, doc.WxData)
	if opts.Force {
		o.sink.Event("Force run selected. Ignoring weather.")
		if verdict.Cancel {
			o.sink.Event("Weather checks tripped but bypassed by force: " + verdict.String())
		}
	}

	watcher := override.NewWatcherInterval(o.store, o.pollInterval)
	runner := NewRunner(relays, watcher, o.sink, trigger)
	runner.SetStatePublisher(o.statePub)
	exec := NewExecutor(o.store, runner, o.sink)
	exec.zoneUnit = o.zoneUnit

	switch {
	case opts.Init:
		o.sink.Event("Initialize relays selected.")
		code = CodeOK

	case opts.Schedule != "" && !verdict.Blocked(opts.Force):
		o.sink.Event("Schedule run selected with schedule: " + opts.Schedule)
		doc, code = exec.Run(ctx, doc, opts.Schedule)

	case opts.Zone != "" && !verdict.Blocked(opts.Force):
		o.sink.Event("Manual run selected.")
		if zone, ok := doc.ZoneMap[opts.Zone]; ok {
			zone.Active = true
			doc.ZoneMap[opts.Zone] = zone
			o.persist(doc)

			code = runner.Run(ctx, opts.Zone, time.Duration(opts.Duration)*o.zoneUnit)

			if fresh, err := o.store.Load(); err == nil {
				doc = fresh
			}
			if z, ok := doc.ZoneMap[opts.Zone]; ok {
				z.Active = false
				doc.ZoneMap[opts.Zone] = z
				o.persist(doc)
			}
		} else {
			o.sink.Event(fmt.Sprintf("%s not found in config file. Exiting.", opts.Zone))
			code = CodeNotFound
		}

	case verdict.Cancel:
		o.sink.Event("Irrigation cancelled due to weather status exceeding limits: " + verdict.String())
		code = CodeWeatherCancelled

	default:
		o.sink.Event("No action.")
		code = CodeOK
	}

	relays.Cleanup()

	// Final persist: the control flags are cleared unconditionally,
	// the override always counts as consumed.
	if fresh, err := o.store.Load(); err == nil {
		doc = fresh
	}
	doc.Controls.Active = false
	doc.Controls.ManualOverride = false
	o.persist(doc)

	if o.statePub != nil {
		o.statePub.PublishResult(model.RunResultEvent{
			Zone:      opts.Zone,
			Schedule:  opts.Schedule,
			ErrorCode: code,
			Timestamp: time.Now(),
		})
	}

	o.sink.Event("Exiting with errorcode = " + strconv.Itoa(code))
	o.sink.Event("***** Control Script Ended *****")
	return code
}

func (o *Orchestrator) persist(doc *model.Document) {
	if err := o.store.Save(doc); err != nil {
		o.sink.Event(fmt.Sprintf("Failed to persist state: %v", err))
	}
}

func (o *Orchestrator) logWeather(cfg model.WxConfig, wx model.WeatherStatus) {
	units := cfg.PrecipUnits()
	line := ""
	if cfg.TempEnable {
		line += fmt.Sprintf("Current Temperature: %.1f%s ", wx.TempCurrent, cfg.Units)
	}
	if cfg.HistoryEnable {
		line += fmt.Sprintf("Precipitation History: %.2f %s ", wx.RainHistoryTotal, units)
	}
	if cfg.ForecastEnable {
		line += fmt.Sprintf("Precipitation Forecast: %.2f %s ", wx.RainForecast, units)
	}
	if line != "" {
		o.sink.Event(line)
	}
}

// pinsFrom collects the relay outputs: one per zone plus the shared
// gate pin.
func pinsFrom(doc *model.Document) relay.Pins {
	pins := make(relay.Pins, len(doc.ZoneMap)+1)
	for name, zone := range doc.ZoneMap {
		pins[name] = zone.GPIOMapping
	}
	pins[relay.GatePin] = doc.Settings.ZoneGate
	return pins
}
