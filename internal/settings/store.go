// Package settings holds categorized option bags with change detection and
// per-category subscriptions.
//
// Writes go through a content-diff gate: a merge happens, and listeners hear
// about it, only when at least one incoming key differs canonically from the
// stored value. This keeps unrelated re-renders from producing notification
// storms.
package settings

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/gridprefs/internal/canon"
	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/profile"
)

// Source says which operation produced a Change.
type Source string

// Change sources.
const (
	SourceUpdate  Source = "update"
	SourceReplace Source = "replace"
	SourceProfile Source = "profile"
	SourceReset   Source = "reset"
)

// Change is delivered to listeners of one category.
type Change struct {
	Category Category
	Values   grid.OptionBag
	Changed  []string
	Source   Source
}

// Listener receives changes for a category.
type Listener func(Change)

type subscription struct {
	id int
	fn Listener
}

// Store is a categorized settings holder. Safe for concurrent use.
// Listeners run on the caller's goroutine after the store lock is released.
type Store struct {
	mu        sync.RWMutex
	bags      map[Category]grid.OptionBag
	gridState grid.StateSnapshot
	defaults  map[Category]grid.OptionBag
	listeners map[Category][]subscription
	nextID    int
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults overrides the defaults of the given categories.
func WithDefaults(defaults map[Category]grid.OptionBag) Option {
	return func(s *Store) {
		for c, bag := range defaults {
			s.defaults[c] = bag.Clone()
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store holding the defaults.
func New(opts ...Option) *Store {
	s := &Store{
		defaults:  BuiltinDefaults(),
		listeners: map[Category][]subscription{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bags = s.cloneDefaults()
	return s
}

func (s *Store) cloneDefaults() map[Category]grid.OptionBag {
	out := make(map[Category]grid.OptionBag, len(Categories))
	for _, c := range Categories {
		out[c] = s.defaults[c].Clone()
	}
	return out
}

// Get returns a copy of the category bag. Unknown categories yield nil.
func (s *Store) Get(c Category) grid.OptionBag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bag, ok := s.bags[c]
	if !ok {
		return nil
	}
	return bag.Clone()
}

// Defaults returns a copy of the category's default bag.
func (s *Store) Defaults(c Category) grid.OptionBag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults[c].Clone()
}

// GridState returns a copy of the stored structural grid state.
func (s *Store) GridState() grid.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gridState.Clone()
}

// Snapshot returns a copy of every category.
func (s *Store) Snapshot() map[Category]grid.OptionBag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Category]grid.OptionBag, len(s.bags))
	for c, bag := range s.bags {
		out[c] = bag.Clone()
	}
	return out
}

// UpdateSettings merges partial into the category iff some key differs from
// the stored value. It reports whether a merge happened.
func (s *Store) UpdateSettings(c Category, partial grid.OptionBag) (bool, error) {
	return s.update(c, partial, SourceUpdate)
}

func (s *Store) update(c Category, partial grid.OptionBag, source Source) (bool, error) {
	s.mu.Lock()
	cur, ok := s.bags[c]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	var changed []string
	for k, v := range partial {
		if old, exists := cur[k]; !exists || !canon.Equal(old, v) {
			changed = append(changed, k)
		}
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := cur.Clone()
	for k, v := range partial {
		next[k] = v
	}
	s.bags[c] = next
	slices.Sort(changed)
	listeners := slices.Clone(s.listeners[c])
	s.mu.Unlock()

	s.notify(listeners, Change{Category: c, Values: next.Clone(), Changed: changed, Source: source})
	return true, nil
}

// UpdateAllToolbarSettings replaces the toolbar bag wholesale and always
// notifies. It is the one path that drops unknown toolbar keys.
func (s *Store) UpdateAllToolbarSettings(bag grid.OptionBag) {
	next := bag.Clone()

	s.mu.Lock()
	prev := s.bags[Toolbar]
	s.bags[Toolbar] = next
	listeners := slices.Clone(s.listeners[Toolbar])
	s.mu.Unlock()

	changed := map[string]bool{}
	for k, v := range next {
		if old, ok := prev[k]; !ok || !canon.Equal(old, v) {
			changed[k] = true
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			changed[k] = true
		}
	}
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	s.notify(listeners, Change{Category: Toolbar, Values: next.Clone(), Changed: keys, Source: SourceReplace})
}

// ApplyProfileSettings merges the profile's toolbar and grid options through
// the diff gate and replaces the stored grid state wholesale.
func (s *Store) ApplyProfileSettings(p profile.Settings) (toolbarChanged, optionsChanged bool) {
	toolbarChanged, _ = s.update(Toolbar, p.Toolbar, SourceProfile)
	optionsChanged, _ = s.update(GridOptions, p.Custom.GridOptions, SourceProfile)
	s.SetGridState(p.Grid)
	return toolbarChanged, optionsChanged
}

// SetGridState replaces the stored structural grid state.
func (s *Store) SetGridState(snap grid.StateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gridState = snap.Clone()
}

// ResetToDefaults restores every category and clears the grid state. Every
// category with at least one listener is notified.
func (s *Store) ResetToDefaults() {
	s.mu.Lock()
	s.bags = s.cloneDefaults()
	s.gridState = grid.StateSnapshot{}
	type pending struct {
		listeners []subscription
		change    Change
	}
	var queue []pending
	for _, c := range Categories {
		ls := s.listeners[c]
		if len(ls) == 0 {
			continue
		}
		bag := s.bags[c]
		keys := make([]string, 0, len(bag))
		for k := range bag {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		queue = append(queue, pending{
			listeners: slices.Clone(ls),
			change:    Change{Category: c, Values: bag.Clone(), Changed: keys, Source: SourceReset},
		})
	}
	s.mu.Unlock()

	for _, p := range queue {
		s.notify(p.listeners, p.change)
	}
}

// Subscribe registers fn for changes to c and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (s *Store) Subscribe(c Category, fn Listener) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bags[c]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	s.nextID++
	id := s.nextID
	s.listeners[c] = append(s.listeners[c], subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners[c] = slices.DeleteFunc(s.listeners[c], func(sub subscription) bool { return sub.id == id })
	}, nil
}

// ListenerCount returns the number of listeners on c.
func (s *Store) ListenerCount(c Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners[c])
}

// notify calls each listener, isolating panics so one listener cannot
// starve its siblings.
func (s *Store) notify(listeners []subscription, change Change) {
	for _, sub := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("settings listener panicked",
						"category", string(change.Category),
						"error", fmt.Sprint(r))
				}
			}()
			sub.fn(change)
		}()
	}
}
