package refresh

import (
	"sync"
	"time"

	"kitchen_console/internal/clock"
)

// ScheduledTask runs a function on a fixed interval until stopped. It has a
// single owner which is responsible for calling Stop; nothing else holds a
// reference to the underlying timer.
//
// Each run schedules the next one before executing, measured from the
// previous deadline rather than from when the callback ran, so timer latency
// does not accumulate. Deadlines that have already passed are skipped.
type ScheduledTask struct {
	clock    clock.Clock
	interval time.Duration
	run      func()

	mu         sync.Mutex
	timer      *clock.Timer
	running    bool
	generation uint64
	deadline   time.Time
}

func NewScheduledTask(clk clock.Clock, interval time.Duration, run func()) *ScheduledTask {
	return &ScheduledTask{
		clock:    clk,
		interval: interval,
		run:      run,
	}
}

// Start arms the first run one interval from now. Starting a running task
// does nothing.
func (t *ScheduledTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.generation++
	t.deadline = t.clock.Now().Add(t.interval)
	t.timer = t.clock.AfterFunc(t.interval, t.fireFunc(t.generation))
}

// Stop cancels the pending run. A run already in progress finishes but does
// not schedule another.
func (t *ScheduledTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *ScheduledTask) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *ScheduledTask) fireFunc(generation uint64) func() {
	return func() { t.fire(generation) }
}

// rescheduleLocked arms the run after the one now firing.
func (t *ScheduledTask) rescheduleLocked(generation uint64) {
	now := t.clock.Now()
	t.deadline = t.deadline.Add(t.interval)
	for !t.deadline.After(now) {
		t.deadline = t.deadline.Add(t.interval)
	}
	t.timer = t.clock.AfterFunc(t.deadline.Sub(now), t.fireFunc(generation))
}

// fire ignores callbacks from a timer that was stopped after it had already
// been handed to the runtime.
func (t *ScheduledTask) fire(generation uint64) {
	t.mu.Lock()
	if !t.running || generation != t.generation {
		t.mu.Unlock()
		return
	}
	t.rescheduleLocked(generation)
	t.mu.Unlock()

	t.run()
}
