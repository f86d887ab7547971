package engine

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/relay"
	"github.com/greenside-labs/irrigator/internal/store"
)

// relayCall records one Set invocation on the fake capability.
type relayCall struct {
	level int
	zone  string
}

type fakeRelay struct {
	mu       sync.Mutex
	calls    []relayCall
	cleanups int
	setCode  int // returned by every Set
}

func (f *fakeRelay) Set(level int, zone string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, relayCall{level: level, zone: zone})
	return f.setCode
}

func (f *fakeRelay) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
}

func (f *fakeRelay) snapshot() []relayCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]relayCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRelay) cleanupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleanups
}

// testSink collects event lines for assertions.
type testSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *testSink) Event(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
}

func (s *testSink) Close() {}

func (s *testSink) contains(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func testDocument() *model.Document {
	return &model.Document{
		ZoneMap: map[string]model.Zone{
			"frontlawn": {GPIOMapping: 17, Enabled: true},
			"backlawn":  {GPIOMapping: 27, Enabled: true},
			"sidebeds":  {GPIOMapping: 23, Enabled: false},
			"drip":      {GPIOMapping: 24, Enabled: true},
		},
		Schedules: map[string]model.Schedule{
			"morning": {
				Zones: map[string]model.ZoneEntry{
					"frontlawn": {Duration: 2},
					"backlawn":  {Duration: 1},
					"sidebeds":  {Duration: 3}, // disabled zone, must be skipped
					"drip":      {Duration: 0}, // zero duration, must be skipped
				},
			},
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

func newTestStore(t *testing.T, doc *model.Document) *store.Store {
	t.Helper()
	s := store.New(filepath.Join(t.TempDir(), "irrigator.json"))
	require.NoError(t, s.Save(doc))
	return s
}

func setManualOverride(t *testing.T, s *store.Store, v bool) {
	t.Helper()
	doc, err := s.Load()
	require.NoError(t, err)
	doc.Controls.ManualOverride = v
	require.NoError(t, s.Save(doc))
}

var _ relay.Controller = (*fakeRelay)(nil)
