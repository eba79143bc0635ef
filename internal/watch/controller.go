package watch

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// State enumerates the controller's lifecycle phases. Keeping the phase
// explicit makes illegal combinations (a second run starting while one is
// in flight, a timer pending during a run) unrepresentable.
type State int

// Controller states.
const (
	// StateInitializing: the source has not reported ready yet.
	StateInitializing State = iota

	// StateIdle: waiting for the next change event.
	StateIdle

	// StateDebouncing: a rerun timer is pending, no run in flight.
	StateDebouncing

	// StateRunning: a run is in flight and no change has arrived since
	// it started.
	StateRunning

	// StateRunningPending: a run is in flight and at least one change
	// arrived during it; exactly one follow-up run happens afterwards.
	StateRunningPending
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateRunning:
		return "running"
	case StateRunningPending:
		return "running-pending"
	default:
		return "unknown"
	}
}

// DefaultSettle is the quiet period after the last change event before a
// rerun is scheduled.
const DefaultSettle = time.Second

// RunFunc executes one full pipeline run. changed holds the deduplicated
// paths accumulated since the previous run (empty on the first run) and
// first is true only for the initial run triggered by the source becoming
// ready. The return value is the run's pass/fail and is reported for
// logging only; a failed run never stops the loop.
type RunFunc func(ctx context.Context, changed []string, first bool) bool

// Options configures a Controller.
type Options struct {
	// Settle is the debounce delay applied after each change event.
	Settle time.Duration

	// OnIdle, when set, is called every time the controller returns to
	// the idle state (after each completed run with no pending changes).
	OnIdle func()

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Controller owns the watch state machine. All state lives on a single
// event loop goroutine; runs execute on their own goroutine but report
// back through a channel, so no locking is needed.
type Controller struct {
	source Source
	run    RunFunc
	opts   Options

	state   State
	first   bool
	changes map[string]struct{}

	timer   *time.Timer
	timerC  <-chan time.Time
	runDone chan bool
}

// NewController creates a controller over source that invokes run on each
// rerun.
func NewController(source Source, run RunFunc, opts Options) *Controller {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Controller{
		source:  source,
		run:     run,
		opts:    opts,
		state:   StateInitializing,
		first:   true,
		changes: make(map[string]struct{}),
		runDone: make(chan bool, 1),
	}
}

// State returns the current state. Only meaningful from the goroutine
// driving Run; exposed for logging and tests that drive the loop
// synchronously.
func (c *Controller) State() State { return c.state }

// Run drives the event loop until ctx is cancelled. A run already in
// flight when cancellation happens still completes; the loop never
// terminates on its own otherwise.
func (c *Controller) Run(ctx context.Context) error {
	defer c.stopTimer()

	// The ready channel is closed once; nil it out after the first
	// receive so the select does not spin on it.
	readyC := c.source.Ready()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-readyC:
			readyC = nil

			c.onReady()

		case path, ok := <-c.source.Events():
			if !ok {
				return nil
			}

			c.onChange(path)

		case err, ok := <-c.source.Errors():
			if !ok {
				return nil
			}

			c.opts.Logger.Error("watch error", slog.String("error", err.Error()))

		case <-c.timerC:
			c.onTimer(ctx)

		case ok := <-c.runDone:
			c.onRunDone(ok)
		}
	}
}

// onReady fires once when the source finished its initial scan: schedule
// an immediate first run even though no changes exist yet.
func (c *Controller) onReady() {
	if c.state != StateInitializing {
		return
	}

	c.opts.Logger.Debug("watch ready")
	c.state = StateDebouncing
	c.schedule(0)
}

// onChange accumulates a changed path and, unless a run is in flight,
// restarts the settle timer. During a run no timer is scheduled; the
// change only marks the need for exactly one follow-up run.
func (c *Controller) onChange(path string) {
	if c.state == StateInitializing {
		return
	}

	c.changes[path] = struct{}{}

	switch c.state {
	case StateRunning, StateRunningPending:
		c.state = StateRunningPending
	default:
		c.state = StateDebouncing
		c.schedule(c.opts.Settle)
	}
}

// onTimer starts a run: snapshot and clear the change set, then execute
// the pipeline off the event loop.
func (c *Controller) onTimer(ctx context.Context) {
	if c.state != StateDebouncing {
		return
	}

	changed := c.snapshotChanges()
	first := c.first
	c.state = StateRunning

	c.opts.Logger.Debug("run starting",
		slog.Int("changed", len(changed)),
		slog.Bool("first", first),
	)

	go func() {
		c.runDone <- c.run(ctx, changed, first)
	}()
}

// onRunDone finishes a run: either schedule the follow-up run for changes
// that arrived mid-run, or settle into idle.
func (c *Controller) onRunDone(ok bool) {
	c.first = false

	c.opts.Logger.Debug("run finished", slog.Bool("ok", ok))

	if c.state == StateRunningPending {
		c.state = StateDebouncing
		c.schedule(0)

		return
	}

	c.state = StateIdle

	if c.opts.OnIdle != nil {
		c.opts.OnIdle()
	}
}

// snapshotChanges returns the sorted accumulated paths and resets the set.
func (c *Controller) snapshotChanges() []string {
	changed := make([]string, 0, len(c.changes))
	for p := range c.changes {
		changed = append(changed, p)
	}

	sort.Strings(changed)

	c.changes = make(map[string]struct{})

	return changed
}

// schedule arms the rerun timer, replacing any outstanding one so at most
// a single timer is ever pending.
func (c *Controller) schedule(d time.Duration) {
	c.stopTimer()

	c.timer = time.NewTimer(d)
	c.timerC = c.timer.C
}

// stopTimer cancels the pending timer, if any.
func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.timerC = nil
	}
}
