package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualScheduler_RunsDueTasksInOrder(t *testing.T) {
	s := NewManualScheduler()
	var order []string
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "c") })

	assert.Equal(t, 0, s.Advance(9*time.Millisecond))
	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 3, s.Advance(11*time.Millisecond))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 20*time.Millisecond, s.Now())
	assert.Zero(t, s.Pending())
}

func TestManualScheduler_Cancel(t *testing.T) {
	s := NewManualScheduler()
	ran := false
	task := s.AfterFunc(time.Millisecond, func() { ran = true })

	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
	assert.Equal(t, 0, s.Advance(time.Second))
	assert.False(t, ran)
}

func TestManualScheduler_CancelAfterFire(t *testing.T) {
	s := NewManualScheduler()
	task := s.AfterFunc(0, func() {})
	s.Advance(0)
	assert.False(t, task.Cancel())
}

func TestManualScheduler_CallbackMaySchedule(t *testing.T) {
	s := NewManualScheduler()
	fired := 0
	s.AfterFunc(time.Millisecond, func() {
		fired++
		s.AfterFunc(time.Millisecond, func() { fired++ })
	})

	s.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	s.Advance(time.Millisecond)
	assert.Equal(t, 2, fired)
}
