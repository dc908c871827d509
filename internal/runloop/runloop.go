// Package runloop provides the single logical execution context that all
// session and dispatcher state mutation runs on. Transport processes run
// in parallel at the OS level; their exit notifications are posted back
// onto the loop, so the state they touch never needs a lock.
package runloop

import "sync"

// Loop is a task queue drained by exactly one goroutine.
type Loop struct {
	tasks chan func()

	mu      sync.Mutex
	stopped bool
	quit    chan struct{}
}

// New creates a loop. Run must be called for posted tasks to execute.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), 128),
		quit:  make(chan struct{}),
	}
}

// Post enqueues fn for execution on the loop goroutine. Tasks run in the
// order they were posted. Posting after Stop is a no-op.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
		return
	default:
	}
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Do posts fn and blocks until it has run. Must not be called from the
// loop goroutine itself. Returns false if the loop is stopped.
func (l *Loop) Do(fn func()) bool {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return true
	case <-l.quit:
		return false
	}
}

// Run drains tasks until Stop is called. It blocks the calling goroutine,
// which becomes the loop's execution context.
func (l *Loop) Run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			// Drain anything already queued so late completions still land.
			for {
				select {
				case fn := <-l.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Stop terminates Run after draining already-queued tasks. Idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.quit)
}
