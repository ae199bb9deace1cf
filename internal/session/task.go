package session

import (
	"context"
	"sync"
	"time"
)

// Task is a scheduled unit of work owned by a session.
type Task interface {
	Start()
	Reset()
	Cancel()
}

// IdleTimer fires fn once after d without a Reset.
type IdleTimer struct {
	d  time.Duration
	fn func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewIdleTimer(d time.Duration, fn func()) *IdleTimer {
	return &IdleTimer{d: d, fn: fn}
}

func (t *IdleTimer) Start() {
	t.Reset()
}

// Reset restarts the countdown. A fire already in flight for an older
// countdown is ignored.
func (t *IdleTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.d, func() {
		t.mu.Lock()
		current := gen == t.gen && t.timer != nil
		if current {
			t.timer = nil
		}
		t.mu.Unlock()
		if current {
			t.fn()
		}
	})
}

func (t *IdleTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// PeriodicTask runs fn immediately on Start and then every interval until
// cancelled. Runs within one schedule never overlap.
type PeriodicTask struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	last   chan struct{}
}

func NewPeriodicTask(interval time.Duration, fn func(ctx context.Context)) *PeriodicTask {
	return &PeriodicTask{interval: interval, fn: fn}
}

func (p *PeriodicTask) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	p.startLocked()
}

func (p *PeriodicTask) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.last = done

	go func() {
		defer close(done)
		p.fn(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.fn(ctx)
			}
		}
	}()
}

// Reset restarts the schedule, running fn again immediately.
func (p *PeriodicTask) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.startLocked()
}

// Cancel stops the schedule. A run in progress sees its context cancelled;
// use Wait to block until it returns.
func (p *PeriodicTask) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Wait blocks until the most recently cancelled or running schedule exits.
func (p *PeriodicTask) Wait() {
	p.mu.Lock()
	done := p.last
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *PeriodicTask) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
}
