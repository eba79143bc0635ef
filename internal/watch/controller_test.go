package watch

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

// fakeSource drives the controller with synthetic events.
type fakeSource struct {
	ready  chan struct{}
	events chan string
	errs   chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ready:  make(chan struct{}),
		events: make(chan string),
		errs:   make(chan error),
	}
}

func (s *fakeSource) Ready() <-chan struct{} { return s.ready }
func (s *fakeSource) Events() <-chan string  { return s.events }
func (s *fakeSource) Errors() <-chan error   { return s.errs }
func (s *fakeSource) Close() error           { return nil }

// runRecorder records every run invocation and can hold runs open until
// released.
type runRecorder struct {
	mu      sync.Mutex
	calls   [][]string
	firsts  []bool
	started chan struct{}
	release chan struct{}
	result  bool
}

func newRunRecorder() *runRecorder {
	return &runRecorder{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		result:  true,
	}
}

func (r *runRecorder) fn(_ context.Context, changed []string, first bool) bool {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.firsts = append(r.firsts, first)
	r.mu.Unlock()

	r.started <- struct{}{}
	<-r.release

	return r.result
}

func (r *runRecorder) releaseOne() { r.release <- struct{}{} }

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

func (r *runRecorder) call(i int) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls[i], r.firsts[i]
}

// waitStart fails the test when no run starts within the deadline.
func (r *runRecorder) waitStart(t *testing.T) {
	t.Helper()

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a run to start")
	}
}

// idleCounter counts idle transitions.
type idleCounter struct {
	mu sync.Mutex
	n  int
	c  chan struct{}
}

func newIdleCounter() *idleCounter {
	return &idleCounter{c: make(chan struct{}, 16)}
}

func (i *idleCounter) hit() {
	i.mu.Lock()
	i.n++
	i.mu.Unlock()

	i.c <- struct{}{}
}

func (i *idleCounter) wait(t *testing.T) {
	t.Helper()

	select {
	case <-i.c:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for idle")
	}
}

// startController runs the controller loop in the background with a short
// settle delay.
func startController(t *testing.T, source Source, rec *runRecorder, idle *idleCounter, settle time.Duration) context.CancelFunc {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	opts := Options{
		Settle: settle,
		Logger: slog.New(slog.DiscardHandler),
	}
	if idle != nil {
		opts.OnIdle = idle.hit
	}

	c := NewController(source, rec.fn, opts)

	go func() { _ = c.Run(ctx) }()

	return cancel
}

// ---------------------------------------------------------------------------
// First run
// ---------------------------------------------------------------------------

func TestController_ReadyTriggersFirstRun(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 50*time.Millisecond)
	defer cancel()

	close(source.ready)

	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	require.Equal(t, 1, rec.count())

	changed, first := rec.call(0)
	assert.Empty(t, changed, "first run must not carry a change summary")
	assert.True(t, first)
}

// ---------------------------------------------------------------------------
// Debounce coalescing
// ---------------------------------------------------------------------------

func TestController_BurstCoalescesIntoOneRun(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 100*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	// Burst of events well within the settle delay.
	for i := 0; i < 10; i++ {
		source.events <- "src/app.js"
		source.events <- "src/style.css"
	}

	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	require.Equal(t, 2, rec.count(), "a burst must coalesce into exactly one rerun")

	changed, first := rec.call(1)
	assert.False(t, first)
	assert.Equal(t, []string{"src/app.js", "src/style.css"}, changed, "paths are deduplicated and sorted")
}

func TestController_EventsResetSettleTimer(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 300*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	// Keep feeding events at a rate faster than the settle delay; no run
	// may start while the stream is active.
	for i := 0; i < 5; i++ {
		source.events <- "a.js"
		time.Sleep(50 * time.Millisecond)
	}

	assert.Equal(t, 1, rec.count(), "no rerun before the burst settles")

	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)
	assert.Equal(t, 2, rec.count())
}

// ---------------------------------------------------------------------------
// Changes during a run
// ---------------------------------------------------------------------------

func TestController_ChangeDuringRunTriggersExactlyOneFollowUp(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 50*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)

	// The first run is still in flight; these changes must not schedule a
	// timer, only mark the follow-up.
	source.events <- "src/index.html"
	source.events <- "src/index.html"
	source.events <- "src/data.json"

	rec.releaseOne()

	// The follow-up starts without waiting for the settle delay.
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	require.Equal(t, 2, rec.count(), "changes during a run yield exactly one follow-up run")

	changed, first := rec.call(1)
	assert.False(t, first)
	assert.Equal(t, []string{"src/data.json", "src/index.html"}, changed)
}

func TestController_RunsNeverOverlap(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 20*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)

	// Feed changes and give any (incorrect) timer time to fire while the
	// run is held open.
	source.events <- "x.js"
	time.Sleep(100 * time.Millisecond)
	source.events <- "y.js"
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, rec.count(), "no second run may start while one is in flight")

	rec.releaseOne()
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	assert.Equal(t, 2, rec.count())
}

// ---------------------------------------------------------------------------
// Failure resilience
// ---------------------------------------------------------------------------

func TestController_FailedRunKeepsLoopAlive(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	rec.result = false

	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 50*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	// The loop must still react to the next change after a failed run.
	source.events <- "broken.js"

	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	assert.Equal(t, 2, rec.count())
}

// ---------------------------------------------------------------------------
// Idle and state bookkeeping
// ---------------------------------------------------------------------------

func TestController_IdleAfterEveryCompletedRun(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 50*time.Millisecond)
	defer cancel()

	close(source.ready)
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	source.events <- "a.yaml"
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	idle.mu.Lock()
	defer idle.mu.Unlock()
	assert.Equal(t, 2, idle.n)
}

func TestController_EventsBeforeReadyAreIgnored(t *testing.T) {
	source := newFakeSource()
	rec := newRunRecorder()
	idle := newIdleCounter()

	cancel := startController(t, source, rec, idle, 50*time.Millisecond)
	defer cancel()

	// Events before the ready signal must not schedule anything.
	source.events <- "early.js"
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	close(source.ready)
	rec.waitStart(t)
	rec.releaseOne()
	idle.wait(t)

	changed, first := rec.call(0)
	assert.True(t, first)
	assert.Empty(t, changed, "pre-ready events do not leak into the first run")
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInitializing, "initializing"},
		{StateIdle, "idle"},
		{StateDebouncing, "debouncing"},
		{StateRunning, "running"},
		{StateRunningPending, "running-pending"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
