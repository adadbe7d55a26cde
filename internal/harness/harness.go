package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/gridprefs/internal/controller"
	"github.com/roach88/gridprefs/internal/convert"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/grid/memgrid"
	"github.com/roach88/gridprefs/internal/gridstate"
	"github.com/roach88/gridprefs/internal/profile"
	"github.com/roach88/gridprefs/internal/settings"
	"github.com/roach88/gridprefs/internal/testutil"
)

// Epoch is the fixed wall clock every scenario runs at.
var Epoch = testutil.Epoch

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	grid     *memgrid.Grid
	store    *settings.Store
	ctrl     *controller.Controller
	sched    *testutil.ManualScheduler
	logger   *slog.Logger

	mu            sync.Mutex
	notifications map[settings.Category]int

	collected json.RawMessage
}

// Run executes a scenario against a fresh store, grid and controller and
// evaluates its assertions.
//
// The returned error reports harness failures (unreadable profile files and
// the like). Failed expectations and assertions are recorded on the Result.
func Run(s *Scenario) (*Result, error) {
	h, err := newHarness(s)
	if err != nil {
		return nil, err
	}
	defer h.ctrl.Close()

	result := NewResult()
	for i, step := range s.Steps {
		if err := h.execute(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	h.mu.Lock()
	for cat, n := range h.notifications {
		result.Notifications[string(cat)] = n
	}
	h.mu.Unlock()

	for _, w := range h.grid.DataWrites() {
		result.writes = append(result.writes, w.String())
	}
	state, err := h.stateDocument()
	if err != nil {
		return nil, err
	}
	result.State = state

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := []memgrid.Option{
		memgrid.WithColumns(s.Grid.Columns...),
		memgrid.WithOptions(grid.OptionBag(s.Grid.Options)),
		memgrid.Without(s.Grid.Without...),
	}
	for _, key := range s.Grid.FailingOptions {
		opts = append(opts, memgrid.WithFailingOption(key, fmt.Errorf("option %s rejected", key)))
	}

	h := &Harness{
		scenario:      s,
		grid:          memgrid.New(opts...),
		store:         settings.New(settings.WithLogger(logger)),
		sched:         testutil.NewManualScheduler(),
		logger:        logger,
		notifications: map[settings.Category]int{},
	}
	for _, cat := range settings.Categories {
		if _, err := h.store.Subscribe(cat, func(settings.Change) {
			h.mu.Lock()
			h.notifications[cat]++
			h.mu.Unlock()
		}); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", cat, err)
		}
	}

	h.ctrl = controller.New(h.store,
		controller.WithLogger(logger),
		controller.WithScheduler(h.sched),
		controller.WithRunIDGenerator(testutil.NewSequentialRunIDs(s.RunIDPrefix)),
		controller.WithNow(testutil.NewDeterministicClockAt(Epoch, 0).Now),
	)
	if !s.Grid.Unbound {
		h.ctrl.SetGridApi(h.grid)
	}
	return h, nil
}

// execute runs one step and appends its trace event.
func (h *Harness) execute(i int, step Step, result *Result) error {
	before := len(h.grid.Writes())
	ev := TraceEvent{Step: i, Op: step.Op, Writes: []string{}}

	var (
		rep *controller.ApplyReport
		err error
	)
	switch step.Op {
	case OpApplyProfile:
		p, loadErr := h.profileFor(step)
		if loadErr != nil {
			return loadErr
		}
		rep, err = h.ctrl.ApplyProfileSettings(context.Background(), p)
	case OpUpdateToolbar:
		h.ctrl.UpdateToolbarSettings(grid.OptionBag(step.Values))
	case OpUpdateGridOptions:
		h.ctrl.UpdateGridOptions(grid.OptionBag(step.Values))
	case OpAdvance:
		d, _ := time.ParseDuration(step.Duration)
		h.sched.Advance(d)
	case OpFlush:
		h.ctrl.FlushPending()
	case OpEditColumn:
		_, err = h.ctrl.EditColumn(step.Column, *step.Action)
	case OpResetColumn:
		err = h.ctrl.ResetColumn(step.Column)
	case OpResetDefaults:
		rep = h.ctrl.ResetToDefaults()
	case OpCollect:
		doc, mErr := json.Marshal(h.ctrl.CollectCurrentSettings())
		if mErr != nil {
			return fmt.Errorf("encode collected profile: %w", mErr)
		}
		h.collected = doc
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if rep != nil {
		ev.RunID = rep.RunID
		result.Reports[i] = rep
	}
	ev.Errors = errorCodes(err, rep)

	data := 0
	for _, w := range h.grid.Writes()[before:] {
		ev.Writes = append(ev.Writes, w.String())
		if !w.IsRefresh() {
			data++
		}
	}
	result.Trace = append(result.Trace, ev)

	h.logger.Debug("step executed", "step", i, "op", step.Op, "writes", len(ev.Writes))
	checkExpect(i, step.Expect, ev.Errors, data, result)
	return nil
}

func (h *Harness) profileFor(step Step) (profile.Settings, error) {
	if step.ProfileFile != "" {
		path := step.ProfileFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(h.scenario.dir, path)
		}
		return profile.LoadFile(path)
	}
	doc, err := json.Marshal(step.Profile)
	if err != nil {
		return profile.Settings{}, fmt.Errorf("encode inline profile: %w", err)
	}
	return profile.Decode(doc, profile.JSON)
}

func checkExpect(i int, exp *StepExpect, codes []string, writes int, result *Result) {
	if exp == nil {
		return
	}
	switch {
	case exp.Error == "" && len(codes) > 0:
		result.AddError(fmt.Sprintf("step %d: expected success, got errors %v", i, codes))
	case exp.Error != "" && !contains(codes, exp.Error):
		result.AddError(fmt.Sprintf("step %d: expected error %s, got %v", i, exp.Error, codes))
	}
	if exp.Writes != nil && *exp.Writes != writes {
		result.AddError(fmt.Sprintf("step %d: expected %d writes, got %d", i, *exp.Writes, writes))
	}
}

// errorCodes flattens a step error and any report errors into codes.
func errorCodes(err error, rep *controller.ApplyReport) []string {
	var codes []string
	if err != nil {
		var ae *controller.ApplyError
		var ve convert.ValidationErrors
		switch {
		case errors.As(err, &ae):
			codes = append(codes, string(ae.Code))
		case errors.As(err, &ve):
			for _, v := range ve {
				codes = append(codes, v.Code)
			}
		case errors.Is(err, controller.ErrSuperseded):
			codes = append(codes, "SUPERSEDED")
		default:
			codes = append(codes, "ERROR")
		}
	}
	if rep != nil {
		for _, e := range rep.Errors {
			codes = append(codes, string(e.Code))
		}
	}
	return codes
}

// stateDocument renders the final grid and store state as JSON.
func (h *Harness) stateDocument() ([]byte, error) {
	doc := map[string]any{
		"options": h.grid.Options(),
		"columns": h.grid.Resolve(nil),
		"state":   gridstate.New(gridstate.WithLogger(h.logger)).Extract(h.grid),
		"store": map[string]any{
			"toolbar":     h.store.Get(settings.Toolbar),
			"gridOptions": h.store.Get(settings.GridOptions),
		},
	}
	if h.collected != nil {
		doc["collected"] = h.collected
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode final state: %w", err)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
