package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/greenside-labs/irrigator/internal/events"
	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/store"
)

// Executor runs a named program: the schedule's zone/duration entries
// in zone-identifier order, one zone at a time.
type Executor struct {
	store  *store.Store
	runner *Runner
	sink   events.Sink

	// zoneUnit converts a configured duration count to wall time.
	// Durations are minutes.
	zoneUnit time.Duration
}

func NewExecutor(st *store.Store, runner *Runner, sink events.Sink) *Executor {
	return &Executor{store: st, runner: runner, sink: sink, zoneUnit: time.Minute}
}

// Run executes the named schedule against doc and returns the updated
// document snapshot plus the schedule's error code. The schedule and
// per-zone active flags are persisted around each transition so an
// external monitor can follow progress, and the document is re-read
// after every zone so concurrent external edits are picked up.
//
// Per-zone codes are aggregated by taking the maximum, so an override
// abort or hardware fault on an early zone is never silently dropped.
func (e *Executor) Run(ctx context.Context, doc *model.Document, name string) (*model.Document, int) {
	sched, ok := doc.Schedules[name]
	if !ok {
		e.sink.Event(fmt.Sprintf("%s not found in config file. Exiting now.", name))
		return doc, CodeNotFound
	}

	e.sink.Event(fmt.Sprintf("%s found in config file. Running now.", name))
	setScheduleActive(doc, name, true)
	e.persist(doc)

	code := CodeOK
	for _, zoneID := range sortedZoneIDs(sched.Zones) {
		entry := sched.Zones[zoneID]
		zone, known := doc.ZoneMap[zoneID]
		if !known {
			e.sink.Event(fmt.Sprintf("Zone %s is not in the zone map. Skipping.", zoneID))
			continue
		}
		if !zone.Enabled || entry.Duration == 0 {
			continue
		}

		zone.Active = true
		doc.ZoneMap[zoneID] = zone
		e.persist(doc)

		zoneCode := e.runner.Run(ctx, zoneID, time.Duration(entry.Duration)*e.zoneUnit)
		if zoneCode > code {
			code = zoneCode
		}

		// Re-read before recording the deactivation, in case anything
		// changed externally while the zone was running.
		if fresh, err := e.store.Load(); err == nil {
			doc = fresh
		}
		if z, still := doc.ZoneMap[zoneID]; still {
			z.Active = false
			doc.ZoneMap[zoneID] = z
			e.persist(doc)
		}
	}

	setScheduleActive(doc, name, false)
	e.persist(doc)
	return doc, code
}

func (e *Executor) persist(doc *model.Document) {
	if err := e.store.Save(doc); err != nil {
		e.sink.Event(fmt.Sprintf("Failed to persist state: %v", err))
	}
}

func setScheduleActive(doc *model.Document, name string, active bool) {
	if s, ok := doc.Schedules[name]; ok {
		s.StartTime.Active = active
		doc.Schedules[name] = s
	}
}

// sortedZoneIDs fixes the execution order: lexicographic by zone
// identifier, stable and reproducible regardless of map iteration or
// physical relay order.
func sortedZoneIDs(zones map[string]model.ZoneEntry) []string {
	ids := make([]string, 0, len(zones))
	for id := range zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
