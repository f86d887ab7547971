package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/relay"
	"github.com/greenside-labs/irrigator/internal/store"
)

type orchFixture struct {
	orch    *Orchestrator
	fake    *fakeRelay
	sink    *testSink
	store   *store.Store
	wxStore *store.WeatherStore
}

func newOrchFixture(t *testing.T, doc *model.Document) *orchFixture {
	t.Helper()
	dir := t.TempDir()
	s := store.New(filepath.Join(dir, "irrigator.json"))
	require.NoError(t, s.Save(doc))
	wx := store.NewWeatherStore(filepath.Join(dir, "wx_status.json"))

	fake := &fakeRelay{}
	sink := &testSink{}
	orch := New(s, wx, sink)
	orch.SetRelayFactory(func(targetSys string, pins relay.Pins, trigger int) relay.Controller {
		return fake
	})
	orch.pollInterval = 5 * time.Millisecond
	orch.zoneUnit = 10 * time.Millisecond

	return &orchFixture{orch: orch, fake: fake, sink: sink, store: s, wxStore: wx}
}

func (f *orchFixture) saveWeather(t *testing.T, st model.WeatherStatus) {
	t.Helper()
	require.NoError(t, f.wxStore.Save(st))
}

func (f *orchFixture) finalDoc(t *testing.T) *model.Document {
	t.Helper()
	doc, err := f.store.Load()
	require.NoError(t, err)
	return doc
}

func clearWeather() model.WeatherStatus {
	return model.WeatherStatus{TempCurrent: 70}
}

func singleZoneDocument() *model.Document {
	return &model.Document{
		ZoneMap: map[string]model.Zone{
			"frontlawn": {GPIOMapping: 17, Enabled: true},
		},
		Schedules: map[string]model.Schedule{
			"morning": {Zones: map[string]model.ZoneEntry{"frontlawn": {Duration: 5}}},
		},
		Settings: model.Settings{RelayTrigger: 0, TargetSys: "Prototype", ZoneGate: 22},
		WxData: model.WxConfig{
			Units:         "F",
			Precip:        1.0,
			MinTemp:       32,
			MaxTemp:       100,
			HistoryEnable: true,
		},
	}
}

func TestScheduleRunEndToEnd(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Schedule: "morning"})

	assert.Equal(t, CodeOK, code)
	assert.Equal(t, []relayCall{
		{level: 0, zone: "frontlawn"},
		{level: 1, zone: "frontlawn"},
	}, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())

	doc := f.finalDoc(t)
	assert.False(t, doc.Controls.Active)
	assert.False(t, doc.Controls.ManualOverride)
}

func TestScheduleRunWeatherCancelled(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, model.WeatherStatus{TempCurrent: 70, RainHistoryTotal: 1.5})

	code := f.orch.Run(context.Background(), Options{Schedule: "morning"})

	assert.Equal(t, CodeWeatherCancelled, code)
	assert.Empty(t, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())
	assert.True(t, f.sink.contains("history"))

	doc := f.finalDoc(t)
	assert.False(t, doc.Controls.Active)
	assert.False(t, doc.Controls.ManualOverride)
}

func TestForceBypassesWeatherCancel(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, model.WeatherStatus{TempCurrent: 70, RainHistoryTotal: 1.5})

	code := f.orch.Run(context.Background(), Options{Schedule: "morning", Force: true})

	assert.Equal(t, CodeOK, code)
	assert.Len(t, f.fake.snapshot(), 2)
	assert.Equal(t, 1, f.fake.cleanupCount())
}

func TestManualRun(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Zone: "frontlawn", Duration: 2})

	assert.Equal(t, CodeOK, code)
	assert.Equal(t, []relayCall{
		{level: 0, zone: "frontlawn"},
		{level: 1, zone: "frontlawn"},
	}, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())
}

func TestManualRunUnknownZone(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Zone: "nosuchzone", Duration: 2})

	assert.Equal(t, CodeNotFound, code)
	assert.Empty(t, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())

	doc := f.finalDoc(t)
	assert.False(t, doc.Controls.Active)
}

func TestInitRun(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Init: true})

	assert.Equal(t, CodeOK, code)
	assert.Empty(t, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())
}

func TestNoActionRun(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{})

	assert.Equal(t, CodeOK, code)
	assert.Empty(t, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())
	assert.True(t, f.sink.contains("No action."))
}

func TestScheduleNotFoundEndToEnd(t *testing.T) {
	f := newOrchFixture(t, singleZoneDocument())
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Schedule: "evening"})

	assert.Equal(t, CodeNotFound, code)
	assert.Empty(t, f.fake.snapshot())
	assert.Equal(t, 1, f.fake.cleanupCount())
}

func TestMissingWeatherSnapshotIsPermissive(t *testing.T) {
	// No wx_status.json on disk: the gate runs against the permissive
	// default and irrigation proceeds.
	f := newOrchFixture(t, singleZoneDocument())

	code := f.orch.Run(context.Background(), Options{Schedule: "morning"})

	assert.Equal(t, CodeOK, code)
	assert.Len(t, f.fake.snapshot(), 2)
}

func TestOverrideAbortClearsFlag(t *testing.T) {
	doc := singleZoneDocument()
	doc.Controls.ManualOverride = true
	f := newOrchFixture(t, doc)
	f.saveWeather(t, clearWeather())

	code := f.orch.Run(context.Background(), Options{Zone: "frontlawn", Duration: 5})

	assert.Equal(t, CodeOverrideAbort, code)
	// Relay was engaged and disengaged despite the immediate abort.
	assert.Len(t, f.fake.snapshot(), 2)
	assert.Equal(t, 1, f.fake.cleanupCount())

	// The override always counts as consumed.
	final := f.finalDoc(t)
	assert.False(t, final.Controls.ManualOverride)
	assert.False(t, final.Controls.Active)
}
