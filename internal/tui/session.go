package tui

import (
	"errors"
	"time"

	"github.com/pders01/subex/internal/chain"
	"github.com/pders01/subex/internal/timeout"
)

var errWorkerStopped = errors.New(MsgWorkerStopped)

// Session is the runtime state of one run. Nothing in it is persisted.
type Session struct {
	guard *timeout.Guard

	// pendingID is the request whose result is awaited; zero when idle.
	pendingID  uint64
	pendingURL string

	response    *chain.Tree
	responseURL string
	err         error

	// fatal is set once the worker is gone; fetching stays disabled.
	fatal   bool
	polling bool
}

func newSession(wait time.Duration) *Session {
	return &Session{guard: timeout.New(wait)}
}

// Awaiting reports whether a request was sent and its result not yet seen.
func (s *Session) Awaiting() bool {
	return s.pendingID != 0
}

// Waiting reports whether the fetch trigger is held back by the guard.
func (s *Session) Waiting() bool {
	return !s.guard.Passed()
}

func (s *Session) Response() *chain.Tree {
	return s.response
}

func (s *Session) Err() error {
	return s.err
}

func (s *Session) Fatal() bool {
	return s.fatal
}

// begin clears the previous outcome and starts the guard for request id.
func (s *Session) begin(id uint64, url string) {
	s.response = nil
	s.responseURL = ""
	s.err = nil
	s.pendingID = id
	s.pendingURL = url
	s.guard.Start()
}

func (s *Session) succeed(tree *chain.Tree, url string) {
	s.response = tree
	s.responseURL = url
	s.err = nil
	s.settle()
}

func (s *Session) fail(err error) {
	s.err = err
	s.settle()
}

func (s *Session) stop() {
	s.fatal = true
	s.err = errWorkerStopped
	s.settle()
}

func (s *Session) settle() {
	s.pendingID = 0
	s.pendingURL = ""
	s.guard.Reset()
}
