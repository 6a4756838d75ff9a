// Package clock provides cooperative timers whose ticks run on their owner's event loop.
package clock

import (
	"sync"
	"time"
)

// Cancel stops a timer. It is safe to call more than once.
type Cancel func()

type Scheduler interface {
	// Every calls fn once per interval until cancelled. Each call creates an independent timer.
	Every(interval time.Duration, fn func()) Cancel
}

// Poster hands a function to an event loop for serialized execution.
type Poster interface {
	Post(fn func())
}

// LoopScheduler drives tickers whose ticks are posted to a loop instead of running on the
// ticker goroutine.
type LoopScheduler struct {
	loop Poster
}

func NewLoopScheduler(loop Poster) *LoopScheduler {
	return &LoopScheduler{loop: loop}
}

func (that *LoopScheduler) Every(interval time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	// stopped is only touched on the loop, so a tick queued before cancel never runs after it.
	stopped := false

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				that.loop.Post(func() {
					if !stopped {
						fn()
					}
				})
			}
		}
	}()

	var once sync.Once

	return func() {
		stopped = true

		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Manual is a Scheduler for tests: ticks happen only when Fire is called.
type Manual struct {
	mu     sync.Mutex
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	interval time.Duration
	fn       func()
}

func NewManual() *Manual {
	return &Manual{timers: make(map[int]*manualTimer)}
}

func (that *Manual) Every(interval time.Duration, fn func()) Cancel {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := that.nextID
	that.nextID++
	that.timers[id] = &manualTimer{interval: interval, fn: fn}

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		delete(that.timers, id)
	}
}

// Fire runs one tick of every live timer.
func (that *Manual) Fire() {
	that.mu.Lock()
	ids := make([]int, 0, len(that.timers))
	for id := range that.timers {
		ids = append(ids, id)
	}
	that.mu.Unlock()

	for _, id := range ids {
		that.mu.Lock()
		timer, ok := that.timers[id]
		that.mu.Unlock()

		// an earlier tick in this round may have cancelled it
		if ok {
			timer.fn()
		}
	}
}

// FireN runs n ticks, stopping early when no timer is left.
func (that *Manual) FireN(n int) {
	for i := 0; i < n && that.Active() > 0; i++ {
		that.Fire()
	}
}

// Active reports how many timers are running.
func (that *Manual) Active() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.timers)
}
