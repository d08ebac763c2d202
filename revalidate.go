package tinystore

import (
	"sync"
	"time"
)

// DefaultRevalidateInterval is the revalidation period used when neither the
// store nor the registry configures one.
const DefaultRevalidateInterval = 5 * time.Minute

// revalidator fires tick every interval until stopped.
// restart pushes the next tick a full interval away.
type revalidator struct {
	interval time.Duration
	tick     func()

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	gen     uint64
}

func newRevalidator(interval time.Duration, tick func()) *revalidator {
	return &revalidator{
		interval: interval,
		tick:     tick,
	}
}

func (r *revalidator) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	r.armLocked()
}

func (r *revalidator) restart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.armLocked()
}

func (r *revalidator) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *revalidator) armLocked() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.gen++
	gen := r.gen
	r.timer = time.AfterFunc(r.interval, func() {
		r.fire(gen)
	})
}

// fire ignores ticks from timers replaced by restart or stop
func (r *revalidator) fire(gen uint64) {
	r.mu.Lock()
	if !r.running || gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.armLocked()
	r.mu.Unlock()

	r.tick()
}
