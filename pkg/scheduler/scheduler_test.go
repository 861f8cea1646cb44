package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	wait = time.Second
	tick = 5 * time.Millisecond
)

func TestScheduleRuns(t *testing.T) {
	s := New()
	defer s.Close()

	var ran atomic.Bool
	s.Schedule("conn:1", "sync", 10*time.Millisecond, func() { ran.Store(true) })

	assert.True(t, s.Pending("conn:1", "sync"))
	assert.Eventually(t, ran.Load, wait, tick)
	assert.Eventually(t, func() bool { return !s.Pending("conn:1", "sync") }, wait, tick)
}

func TestCancelPreventsRun(t *testing.T) {
	s := New()
	defer s.Close()

	var ran atomic.Bool
	s.Schedule("room:A", "cleanup", 20*time.Millisecond, func() { ran.Store(true) })

	assert.True(t, s.Cancel("room:A", "cleanup"))
	assert.False(t, s.Cancel("room:A", "cleanup"))
	assert.Never(t, ran.Load, 100*time.Millisecond, tick)
}

func TestScheduleReplacesPending(t *testing.T) {
	s := New()
	defer s.Close()

	var calls atomic.Int32
	var last atomic.Int32
	s.Schedule("conn:1", "sync", 20*time.Millisecond, func() { calls.Add(1); last.Store(1) })
	s.Schedule("conn:1", "sync", 20*time.Millisecond, func() { calls.Add(1); last.Store(2) })

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, wait, tick)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 100*time.Millisecond, tick)
	assert.Equal(t, int32(2), last.Load())
}

func TestCancelOwner(t *testing.T) {
	s := New()
	defer s.Close()

	var other atomic.Bool
	s.Schedule("conn:1", "a", 20*time.Millisecond, func() { t.Error("cancelled task ran") })
	s.Schedule("conn:1", "b", 20*time.Millisecond, func() { t.Error("cancelled task ran") })
	s.Schedule("conn:2", "a", 20*time.Millisecond, func() { other.Store(true) })

	assert.Equal(t, 2, s.CancelOwner("conn:1"))
	assert.Eventually(t, other.Load, wait, tick)
}

func TestCloseRejectsNewTasks(t *testing.T) {
	s := New()
	s.Close()

	var ran atomic.Bool
	s.Schedule("conn:1", "sync", time.Millisecond, func() { ran.Store(true) })

	assert.False(t, s.Pending("conn:1", "sync"))
	assert.Never(t, ran.Load, 50*time.Millisecond, tick)
}
