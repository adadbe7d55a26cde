package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/testutil"
)

func newTestDebouncer() (*debouncer, *testutil.ManualScheduler, *[]grid.OptionBag) {
	sched := testutil.NewManualScheduler()
	var commits []grid.OptionBag
	d := newDebouncer(sched, DefaultDebounce, func(b grid.OptionBag) { commits = append(commits, b) })
	return d, sched, &commits
}

func TestDebouncer_WindowRestartsOnPush(t *testing.T) {
	d, sched, commits := newTestDebouncer()

	d.Push(grid.OptionBag{"v": 1})
	sched.Advance(100 * time.Millisecond)
	d.Push(grid.OptionBag{"v": 2})
	sched.Advance(100 * time.Millisecond)
	assert.Empty(t, *commits)

	sched.Advance(50 * time.Millisecond)
	require.Len(t, *commits, 1)
	assert.Equal(t, grid.OptionBag{"v": 2}, (*commits)[0])
}

func TestDebouncer_PushCopiesValue(t *testing.T) {
	d, sched, commits := newTestDebouncer()
	bag := grid.OptionBag{"v": 1}
	d.Push(bag)
	bag["v"] = 99

	sched.Advance(DefaultDebounce)
	require.Len(t, *commits, 1)
	assert.Equal(t, 1, (*commits)[0]["v"])
}

func TestDebouncer_Flush(t *testing.T) {
	d, sched, commits := newTestDebouncer()
	assert.False(t, d.Flush())

	d.Push(grid.OptionBag{"v": 1})
	assert.True(t, d.Waiting())
	assert.True(t, d.Flush())
	assert.False(t, d.Waiting())
	require.Len(t, *commits, 1)

	assert.Zero(t, sched.Advance(time.Second))
	assert.Len(t, *commits, 1)
}

func TestDebouncer_Cancel(t *testing.T) {
	d, sched, commits := newTestDebouncer()
	d.Push(grid.OptionBag{"v": 1})
	d.Cancel()

	sched.Advance(time.Second)
	assert.Empty(t, *commits)
	assert.False(t, d.Waiting())
}

func TestDebouncer_StaleCallbackIgnored(t *testing.T) {
	d, _, commits := newTestDebouncer()
	d.Push(grid.OptionBag{"v": 1})
	d.Push(grid.OptionBag{"v": 2})

	// A timer from the first push that fires late must not commit.
	d.fire(1)
	assert.Empty(t, *commits)
	d.fire(2)
	require.Len(t, *commits, 1)
}
