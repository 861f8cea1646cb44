package scheduler

import (
	"sync"
	"time"
)

type taskKey struct {
	owner string
	name  string
}

type task struct {
	timer *time.Timer
}

// Scheduler runs delayed callbacks identified by an owner and a name.
// Scheduling a task under a key that is already pending replaces it, and all
// tasks of an owner can be cancelled at once.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[taskKey]*task
	closed bool
}

func New() *Scheduler {
	return &Scheduler{
		tasks: make(map[taskKey]*task),
	}
}

// Schedule runs fn after delay unless the task is cancelled or replaced
// first. It is a no-op after Close.
func (s *Scheduler) Schedule(owner, name string, delay time.Duration, fn func()) {
	k := taskKey{owner: owner, name: name}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if prev, ok := s.tasks[k]; ok {
		prev.timer.Stop()
	}

	t := &task{}
	// the callback blocks on s.mu until t is registered below
	t.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.tasks[k] != t {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, k)
		s.mu.Unlock()

		fn()
	})
	s.tasks[k] = t
}

// Cancel stops a pending task and reports whether there was one.
func (s *Scheduler) Cancel(owner, name string) bool {
	k := taskKey{owner: owner, name: name}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[k]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, k)

	return true
}

// CancelOwner stops every pending task of owner and returns how many there
// were.
func (s *Scheduler) CancelOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, t := range s.tasks {
		if k.owner != owner {
			continue
		}
		t.timer.Stop()
		delete(s.tasks, k)
		n++
	}

	return n
}

func (s *Scheduler) Pending(owner, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[taskKey{owner: owner, name: name}]
	return ok
}

// Close cancels everything and rejects further scheduling.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for k, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, k)
	}
}
