// Package session turns user intent into dispatched requests and keeps
// the bounded conversation state consistent. A Session must only be used
// from the run loop goroutine that also drives its dispatcher.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/youruser/aide/internal/dispatch"
	"github.com/youruser/aide/internal/logging"
	"github.com/youruser/aide/internal/prompt"
)

var log = logging.Get()

// ErrCancelled is attached to entries whose request was cancelled before
// completion.
var ErrCancelled = errors.New("request cancelled")

// EntryState is the lifecycle state of one exchange.
type EntryState string

const (
	StatePending  EntryState = "pending"
	StateLoading  EntryState = "loading"
	StateResolved EntryState = "resolved"
	StateFailed   EntryState = "failed"
)

// terminal reports whether no further transition may leave s.
func (s EntryState) terminal() bool {
	return s == StateResolved || s == StateFailed
}

// Entry is one user/assistant exchange.
type Entry struct {
	UserMessage  string     `json:"user_message"`
	State        EntryState `json:"state"`
	Response     string     `json:"response,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Requester is the dispatcher surface the session consumes.
type Requester interface {
	Request(text string, ctx prompt.Context, cb dispatch.Callback) string
	Cancel() int
}

// ContextProvider supplies the editing-context snapshot for a send.
// Called once per Send.
type ContextProvider func() prompt.Context

// DefaultMaxHistory is the conversation entry cap when none is configured.
const DefaultMaxHistory = 50

// recallCap bounds the input-recall buffer.
const recallCap = 50

// Session owns the ordered, bounded conversation entries and the
// input-recall buffer. No other component holds mutable references into
// either.
type Session struct {
	dispatcher Requester
	provider   ContextProvider
	maxHistory int

	entries []*Entry

	input  []string // recall buffer, oldest first
	cursor int      // 1..len(input)+1; len+1 means "editing a fresh line"

	onChange func()
}

// New creates a session over the given dispatcher. provider may be nil
// when the host supplies no editing context. maxHistory <= 0 selects
// DefaultMaxHistory.
func New(dispatcher Requester, provider ContextProvider, maxHistory int) *Session {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Session{
		dispatcher: dispatcher,
		provider:   provider,
		maxHistory: maxHistory,
		cursor:     1,
	}
}

// OnChange registers the render-notification hook, invoked after every
// entry mutation. Fire-and-forget; the session ignores its behavior.
func (s *Session) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Send trims raw and dispatches it with the current editing context.
// Blank input is a no-op. Send never blocks waiting for a response: the
// entry resolves later via the dispatcher's completion, or fails
// immediately on synchronous rejection.
func (s *Session) Send(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}

	s.pushInput(raw)

	entry := &Entry{
		UserMessage: text,
		State:       StatePending,
		Timestamp:   time.Now(),
	}
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxHistory {
		evicted := len(s.entries) - s.maxHistory
		s.entries = append([]*Entry(nil), s.entries[evicted:]...)
	}

	var ctx prompt.Context
	if s.provider != nil {
		ctx = s.provider()
	}

	id := s.dispatcher.Request(text, ctx, func(response string, err error) {
		// Bound to this entry alone. Terminal entries are never mutated;
		// the dispatcher's guard makes a second invocation impossible, but
		// cancellation may have force-failed the entry first.
		if entry.State.terminal() {
			return
		}
		if err != nil {
			entry.State = StateFailed
			entry.ErrorMessage = err.Error()
			log.Info("entry failed: %v", err)
		} else {
			entry.State = StateResolved
			entry.Response = response
		}
		s.notify()
	})

	// A synchronous rejection already ran the callback path above and the
	// entry is Failed; only an accepted dispatch moves it to Loading.
	if id != "" && !entry.State.terminal() {
		entry.State = StateLoading
	}

	s.notify()
}

// CancelActive cancels every in-flight request and force-fails any entry
// still Loading, so the transcript never holds a permanently stuck entry.
// Returns the number of requests cancelled.
func (s *Session) CancelActive() int {
	n := s.dispatcher.Cancel()

	failed := false
	for _, entry := range s.entries {
		if entry.State == StateLoading {
			entry.State = StateFailed
			entry.ErrorMessage = ErrCancelled.Error()
			failed = true
		}
	}
	if failed || n > 0 {
		s.notify()
	}
	return n
}

// Clear empties the conversation entries. The input-recall buffer is
// untouched.
func (s *Session) Clear() {
	if len(s.entries) == 0 {
		return
	}
	s.entries = nil
	s.notify()
}

// History returns a snapshot copy of the entries, never a live reference.
func (s *Session) History() []Entry {
	out := make([]Entry, len(s.entries))
	for i, entry := range s.entries {
		out[i] = *entry
	}
	return out
}
