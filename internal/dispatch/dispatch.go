// Package dispatch owns the registry of in-flight transport requests and
// the single-callback guarantee: every request's callback fires at most
// once, on the run loop, no matter what the underlying process does.
package dispatch

import (
	"github.com/google/uuid"

	"github.com/youruser/aide/internal/config"
	"github.com/youruser/aide/internal/logging"
	"github.com/youruser/aide/internal/prompt"
	"github.com/youruser/aide/internal/transport"
)

var log = logging.Get()

// Callback receives a request's outcome: exactly one of response or err.
type Callback func(response string, err error)

// processHandle is the slice of transport.Handle the dispatcher needs.
type processHandle interface {
	Kill() error
}

// spawnFunc launches one transport process. Swapped out in tests.
type spawnFunc func(argv []string, stdin []byte, onExit transport.ExitFunc) (processHandle, error)

func defaultSpawn(argv []string, stdin []byte, onExit transport.ExitFunc) (processHandle, error) {
	return transport.Spawn(argv, stdin, onExit)
}

// inflight is the bookkeeping for one outstanding request.
type inflight struct {
	id        string
	kind      transport.Kind
	handle    processHandle
	completed bool
}

// Dispatcher selects a transport per request and tracks every request
// until its single completion or cancellation.
//
// All methods must be called from the run loop goroutine; completion
// callbacks are posted back onto it, so no locking is needed around the
// registry.
type Dispatcher struct {
	cfg    *config.Config
	post   func(func())
	spawn  spawnFunc
	active map[string]*inflight
}

// New creates a dispatcher. post marshals a function onto the single
// execution context that owns all dispatcher and session state.
func New(cfg *config.Config, post func(func())) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		post:   post,
		spawn:  defaultSpawn,
		active: make(map[string]*inflight),
	}
}

// Request resolves a transport, builds the payload, and launches the
// process. On success it returns the new request id; cb will later fire
// exactly once with the outcome. On synchronous rejection (no transport
// available, payload failure, spawn failure) cb is invoked inline with
// the error and Request returns "".
func (d *Dispatcher) Request(text string, ctx prompt.Context, cb Callback) string {
	kind, err := transport.Resolve(d.cfg)
	if err != nil {
		log.Info("dispatch rejected: %v", err)
		cb("", err)
		return ""
	}

	t := transport.ForKind(kind)
	req := prompt.Request{System: d.cfg.SystemPrompt, Text: text, Context: ctx}

	payload, err := t.Payload(d.cfg, req)
	if err != nil {
		cb("", err)
		return ""
	}

	fl := &inflight{id: uuid.NewString(), kind: kind}

	// The guard: drops duplicate or post-cancellation completions and
	// always delivers on the run loop, regardless of which goroutine the
	// process exit arrived on.
	complete := func(response string, err error) {
		d.post(func() {
			if fl.completed {
				return
			}
			if _, registered := d.active[fl.id]; !registered {
				return
			}
			fl.completed = true
			delete(d.active, fl.id)
			cb(response, err)
		})
	}

	argv := t.Command(d.cfg)
	log.Exec(string(kind), argv)

	handle, err := d.spawn(argv, payload, func(code int, stdout, stderr []byte) {
		response, ierr := t.Interpret(code, stdout, stderr)
		complete(response, ierr)
	})
	if err != nil {
		log.Error("spawn failed (%s): %v", kind, err)
		cb("", err)
		return ""
	}

	fl.handle = handle
	d.active[fl.id] = fl
	log.Debug("dispatched request %s via %s", fl.id, kind)
	return fl.id
}

// Cancel terminates every in-flight request's process and discards its
// bookkeeping without invoking its callback. Returns the number of
// requests cancelled; afterwards ActiveCount is 0.
func (d *Dispatcher) Cancel() int {
	n := len(d.active)
	for id, fl := range d.active {
		if fl.handle != nil {
			if err := fl.handle.Kill(); err != nil {
				log.Error("failed to kill request %s: %v", id, err)
			}
		}
		fl.completed = true
		delete(d.active, id)
	}
	if n > 0 {
		log.Info("cancelled %d in-flight request(s)", n)
	}
	return n
}

// ActiveCount returns the number of in-flight requests. Diagnostic only.
func (d *Dispatcher) ActiveCount() int {
	return len(d.active)
}
