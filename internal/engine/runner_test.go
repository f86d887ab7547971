package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/greenside-labs/irrigator/internal/override"
)

func newTestRunner(t *testing.T, fake *fakeRelay) *Runner {
	t.Helper()
	s := newTestStore(t, testDocument())
	watcher := override.NewWatcherInterval(s, 5*time.Millisecond)
	return NewRunner(fake, watcher, &testSink{}, 0)
}

func TestRunnerHoldsFullDuration(t *testing.T) {
	fake := &fakeRelay{}
	r := newTestRunner(t, fake)

	start := time.Now()
	code := r.Run(context.Background(), "frontlawn", 60*time.Millisecond)

	assert.Equal(t, CodeOK, code)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)

	// Relay trigger is 0: on at level 0, off at level 1.
	calls := fake.snapshot()
	assert.Equal(t, []relayCall{{level: 0, zone: "frontlawn"}, {level: 1, zone: "frontlawn"}}, calls)
}

func TestRunnerAbortsOnOverride(t *testing.T) {
	fake := &fakeRelay{}
	s := newTestStore(t, testDocument())
	watcher := override.NewWatcherInterval(s, 5*time.Millisecond)
	r := NewRunner(fake, watcher, &testSink{}, 0)

	go func() {
		time.Sleep(30 * time.Millisecond)
		doc, err := s.Load()
		if err != nil {
			return
		}
		doc.Controls.ManualOverride = true
		_ = s.Save(doc)
	}()

	start := time.Now()
	code := r.Run(context.Background(), "frontlawn", 10*time.Second)

	assert.Equal(t, CodeOverrideAbort, code)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The relay must be observably disengaged before Run returns.
	calls := fake.snapshot()
	assert.Len(t, calls, 2)
	assert.Equal(t, relayCall{level: 1, zone: "frontlawn"}, calls[1])
}

func TestRunnerAccumulatesHardwareFaults(t *testing.T) {
	fake := &fakeRelay{setCode: 1}
	r := newTestRunner(t, fake)

	code := r.Run(context.Background(), "frontlawn", 20*time.Millisecond)
	assert.Equal(t, 2, code) // one fault engaging, one disengaging
}

func TestRunnerOverrideOutranksHardwareFaults(t *testing.T) {
	fake := &fakeRelay{setCode: 1}
	s := newTestStore(t, testDocument())
	setManualOverride(t, s, true)
	watcher := override.NewWatcherInterval(s, 5*time.Millisecond)
	r := NewRunner(fake, watcher, &testSink{}, 0)

	code := r.Run(context.Background(), "frontlawn", 10*time.Second)
	assert.Equal(t, CodeOverrideAbort, code)
	assert.Len(t, fake.snapshot(), 2)
}
