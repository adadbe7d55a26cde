// Package watch re-applies a profile file whenever it changes on disk.
//
// The watcher observes the file's directory rather than the file itself so
// that editors which save through rename-and-replace keep triggering events.
// Bursts of events are collapsed into one load after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/controller"
	"github.com/roach88/gridprefs/internal/profile"
)

// DefaultQuiet is how long the file must stay unchanged before it is loaded.
const DefaultQuiet = 100 * time.Millisecond

// Applier receives decoded profiles.
type Applier interface {
	ApplyProfileSettings(ctx context.Context, p profile.Settings) (*controller.ApplyReport, error)
}

// Result is the outcome of one reload.
type Result struct {
	Report *controller.ApplyReport
	// Unchanged is set when the file decoded to the profile applied last.
	Unchanged bool
	Err       error
}

// Watcher reloads one profile file.
type Watcher struct {
	path    string
	applier Applier
	logger  *slog.Logger
	quiet   time.Duration
	initial bool
	results func(Result)

	lastHash string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithQuiet sets the quiet period used to collapse event bursts.
func WithQuiet(d time.Duration) Option {
	return func(w *Watcher) { w.quiet = d }
}

// WithInitialApply makes Run load and apply the file once before waiting
// for changes.
func WithInitialApply() Option {
	return func(w *Watcher) { w.initial = true }
}

// OnResult registers a callback invoked after every reload attempt.
// It runs on the watcher goroutine.
func OnResult(fn func(Result)) Option {
	return func(w *Watcher) { w.results = fn }
}

// New returns a watcher for the profile file at path.
func New(path string, a Applier, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if _, err := profile.EncodingFor(abs); err != nil {
		return nil, err
	}
	w := &Watcher{
		path:    abs,
		applier: a,
		logger:  slog.Default(),
		quiet:   DefaultQuiet,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx ends. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching profile", "path", w.path)

	if w.initial {
		w.reload(ctx)
	}

	timer := time.NewTimer(w.quiet)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("profile event", "op", ev.Op.String())
			timer.Reset(w.quiet)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// reload loads the file and hands it to the applier. Decode failures are
// reported and the previous profile stays in effect.
func (w *Watcher) reload(ctx context.Context) {
	p, err := profile.LoadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("profile missing", "path", w.path)
		} else {
			w.logger.Warn("profile reload failed", "path", w.path, "error", err)
		}
		w.emit(Result{Err: err})
		return
	}

	hash, err := canon.Hash(canon.DomainProfile, p)
	if err == nil && hash == w.lastHash {
		w.logger.Debug("profile unchanged", "path", w.path)
		w.emit(Result{Unchanged: true})
		return
	}

	rep, err := w.applier.ApplyProfileSettings(ctx, p)
	switch {
	case err != nil:
		w.logger.Warn("profile apply failed", "path", w.path, "error", err)
	default:
		w.lastHash = hash
		w.logger.Info("profile applied", "path", w.path, "run_id", rep.RunID, "writes", rep.Writes)
	}
	w.emit(Result{Report: rep, Err: err})
}

func (w *Watcher) emit(r Result) {
	if w.results != nil {
		w.results(r)
	}
}
