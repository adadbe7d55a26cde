package controller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/gridstate"
	"github.com/roach88/gridprefs/internal/profile"
	"github.com/roach88/gridprefs/internal/schedule"
	"github.com/roach88/gridprefs/internal/settings"
)

// Controller mediates every mutation of one live grid.
//
// Thread-safety model:
//   - all exported methods are safe from any goroutine
//   - profile pipelines run only on the worker goroutine started by New
//   - nativeMu serializes every native write sequence (pipeline, debounced
//     option commit, column edit, reset), so writes never interleave
type Controller struct {
	store    *settings.Store
	state    *gridstate.Provider
	logger   *slog.Logger
	clock    *Clock
	runIDs   RunIDGenerator
	sched    schedule.Scheduler
	now      func() time.Time
	debounce time.Duration

	mail    *mailbox
	done    chan struct{}
	stopped chan struct{}
	closing sync.Once

	inFlight   atomic.Bool
	executions atomic.Int64

	toolbarEdits *debouncer
	optionEdits  *debouncer

	nativeMu sync.Mutex

	mu            sync.Mutex
	handle        grid.Handle
	baselineDefs  []grid.ColumnDef
	baselineState grid.StateSnapshot
	columns       map[string]convert.ColumnSettings
	extra         profile.Settings
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithDebounce sets the quiescence window of the toolbar and grid-option
// channels. Default: DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithScheduler sets the scheduler used by the debouncers.
func WithScheduler(s schedule.Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// WithRunIDGenerator sets the run id generator. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *Controller) {
		c.runIDs = g
	}
}

// WithClock sets the execution sequence clock.
func WithClock(clock *Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithNow sets the wall clock used for lastModified stamps.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a Controller over store and starts its worker. Call Close to
// stop it.
func New(store *settings.Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		logger:   slog.Default(),
		clock:    NewClock(),
		runIDs:   UUIDv7Generator{},
		sched:    schedule.System{},
		now:      time.Now,
		debounce: DefaultDebounce,
		mail:     newMailbox(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		columns:  map[string]convert.ColumnSettings{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = gridstate.New(gridstate.WithLogger(c.logger))
	c.toolbarEdits = newDebouncer(c.sched, c.debounce, c.commitToolbar)
	c.optionEdits = newDebouncer(c.sched, c.debounce, c.commitGridOptions)

	go c.run()
	return c
}

// Close stops the worker. A request still waiting in the mailbox returns
// ErrClosed; a pipeline waiting for a render frame is released. Pending
// debounced edits are dropped.
func (c *Controller) Close() {
	c.closing.Do(func() {
		c.toolbarEdits.Cancel()
		c.optionEdits.Cancel()
		close(c.done)
		for _, r := range c.mail.Close() {
			r.reply(nil, ErrClosed)
		}
	})
	<-c.stopped
}

// Store returns the settings store.
func (c *Controller) Store() *settings.Store {
	return c.store
}

// SetGridApi binds a grid handle, or unbinds with nil. The handle's column
// definitions and structural state at bind time become the baseline used by
// column resets and ResetToDefaults.
func (c *Controller) SetGridApi(h grid.Handle) {
	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	var defs []grid.ColumnDef
	var snap grid.StateSnapshot
	if h != nil {
		if s := h.Surface(); s.ColumnDefs != nil {
			var err error
			if defs, err = safeColumnDefs(s.ColumnDefs); err != nil {
				c.logger.Warn("column definitions read failed, column resets have no baseline",
					"step", StepBind, "error", err)
			}
		}
		snap = c.state.Extract(h)
	}

	c.mu.Lock()
	c.handle = h
	c.baselineDefs = defs
	c.baselineState = snap
	c.mu.Unlock()

	if h == nil {
		c.logger.Info("grid unbound")
		return
	}
	c.logger.Info("grid bound", "columns", len(defs), "missing", h.Surface().Missing())
}

func (c *Controller) bound() (grid.Handle, []grid.ColumnDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle, c.baselineDefs
}

// UpdateToolbarSettings buffers a toolbar edit. Only the last value inside
// the debounce window reaches the Store.
func (c *Controller) UpdateToolbarSettings(bag grid.OptionBag) {
	c.toolbarEdits.Push(bag)
}

// UpdateGridOptions buffers a grid-option edit. The committed value is
// merged into the Store and written, diffed, to the grid.
func (c *Controller) UpdateGridOptions(bag grid.OptionBag) {
	c.optionEdits.Push(bag)
}

// FlushPending commits buffered edits immediately.
func (c *Controller) FlushPending() {
	c.toolbarEdits.Flush()
	c.optionEdits.Flush()
}

// HasPendingEdits reports whether a debounced edit is buffered.
func (c *Controller) HasPendingEdits() bool {
	return c.toolbarEdits.Waiting() || c.optionEdits.Waiting()
}

func (c *Controller) commitToolbar(bag grid.OptionBag) {
	changed, err := c.store.UpdateSettings(settings.Toolbar, bag)
	if err != nil {
		c.logger.Error("toolbar commit failed", "error", err)
		return
	}
	c.logger.Debug("toolbar committed", "changed", changed)
}

func (c *Controller) commitGridOptions(bag grid.OptionBag) {
	if _, err := c.store.UpdateSettings(settings.GridOptions, bag); err != nil {
		c.logger.Error("grid options commit failed", "error", err)
		return
	}

	c.nativeMu.Lock()
	defer c.nativeMu.Unlock()

	h, _ := c.bound()
	if h == nil {
		return
	}
	s := h.Surface()
	rep := &ApplyReport{Bound: true}
	c.writeOptions(rep, s, bag)
	if rep.Writes > 0 {
		c.refresh(rep, s, false)
	}
}

// OnToolbarSettingsChange subscribes to toolbar changes.
func (c *Controller) OnToolbarSettingsChange(fn settings.Listener) func() {
	unsub, _ := c.store.Subscribe(settings.Toolbar, fn)
	return unsub
}

// OnGridOptionsChange subscribes to grid-option changes.
func (c *Controller) OnGridOptionsChange(fn settings.Listener) func() {
	unsub, _ := c.store.Subscribe(settings.GridOptions, fn)
	return unsub
}

// ApplyProfileSettings posts p and waits for its pipeline to finish.
//
// An idle worker claims p immediately, so p always runs. While another
// request is claimed or running, p waits in the single-slot mailbox; a later
// call replaces it and this call returns ErrSuperseded. If ctx ends before
// the worker takes p, p is withdrawn and ctx.Err() is returned. A pipeline
// that has started always runs to completion.
func (c *Controller) ApplyProfileSettings(ctx context.Context, p profile.Settings) (*ApplyReport, error) {
	req := newRequest(p.Clone())
	displaced, ok := c.mail.Put(req)
	if !ok {
		return nil, ErrClosed
	}
	if displaced != nil {
		c.logger.Debug("pending apply superseded")
		displaced.reply(nil, ErrSuperseded)
	}

	select {
	case res := <-req.done:
		return res.report, res.err
	case <-ctx.Done():
		if c.mail.Remove(req) {
			return nil, ctx.Err()
		}
		res := <-req.done
		return res.report, res.err
	}
}

// InFlight reports whether a pipeline is executing.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

// HasPendingApply reports whether a request waits behind the running pipeline.
func (c *Controller) HasPendingApply() bool {
	return c.mail.Pending()
}

// Executions returns how many pipelines have run.
func (c *Controller) Executions() int64 {
	return c.executions.Load()
}

// run is the worker loop. It is the only goroutine that executes pipelines.
func (c *Controller) run() {
	defer close(c.stopped)
	for {
		if req, ok := c.mail.Take(); ok {
			rep := c.execute(req)
			req.reply(rep, nil)
			continue
		}
		select {
		case <-c.done:
			return
		case <-c.mail.Wait():
		}
	}
}
