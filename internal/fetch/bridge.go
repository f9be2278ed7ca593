package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pders01/subex/internal/chain"
)

// DefaultQueueSize is the result buffer. Requests are queued without limit.
const DefaultQueueSize = 16

// ErrWorkerStopped means the worker side of the bridge is gone and no
// further requests can be served in this process.
var ErrWorkerStopped = errors.New("worker stopped")

// Request asks the worker to fetch metadata from URL.
type Request struct {
	ID  uint64
	URL string
}

// Result is the outcome of one Request: a tree on success, Err otherwise.
type Result struct {
	ID   uint64
	URL  string
	Tree *chain.Tree
	Err  error
}

// OK reports whether the result carries a tree.
func (r Result) OK() bool {
	return r.Err == nil && r.Tree != nil
}

type PollStatus int

const (
	PollEmpty PollStatus = iota
	PollReady
	PollDisconnected
)

func (s PollStatus) String() string {
	switch s {
	case PollEmpty:
		return "empty"
	case PollReady:
		return "ready"
	case PollDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Bridge connects the UI loop to the worker. Requests go into an unbounded
// queue and results come back on a buffered channel. The UI side never
// blocks.
type Bridge struct {
	mu      sync.Mutex
	pending []Request
	notify  chan struct{}

	results   chan Result
	done      chan struct{}
	closeOnce sync.Once
	nextID    atomic.Uint64
}

// NewBridge returns a bridge whose result buffer holds capacity entries.
func NewBridge(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &Bridge{
		notify:  make(chan struct{}, 1),
		results: make(chan Result, capacity),
		done:    make(chan struct{}),
	}
}

// Send queues url for the worker and returns the request it was assigned.
// It fails only once the worker side is gone.
func (b *Bridge) Send(url string) (Request, error) {
	select {
	case <-b.done:
		return Request{}, ErrWorkerStopped
	default:
	}

	req := Request{ID: b.nextID.Add(1), URL: url}
	b.mu.Lock()
	b.pending = append(b.pending, req)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return req, nil
}

// Pending is the number of requests the worker has not picked up yet.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Poll checks for a result without blocking.
func (b *Bridge) Poll() (Result, PollStatus) {
	select {
	case res, ok := <-b.results:
		if !ok {
			return Result{}, PollDisconnected
		}
		return res, PollReady
	default:
		return Result{}, PollEmpty
	}
}

// Next is the worker's inbound side. It returns the oldest queued request,
// waiting for one until ctx ends. A queued request wins over a done ctx.
func (b *Bridge) Next(ctx context.Context) (Request, error) {
	for {
		if req, ok := b.pop(); ok {
			return req, nil
		}
		select {
		case <-b.notify:
		case <-ctx.Done():
			return Request{}, ctx.Err()
		}
	}
}

func (b *Bridge) pop() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return Request{}, false
	}
	req := b.pending[0]
	b.pending[0] = Request{}
	b.pending = b.pending[1:]
	return req, true
}

// Deliver hands a result to the UI. It blocks only if the UI has stopped
// draining results, and gives up when ctx ends.
func (b *Bridge) Deliver(ctx context.Context, res Result) error {
	select {
	case b.results <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the worker side as gone. It must be called by the goroutine
// that calls Deliver, after its last Deliver.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		close(b.results)
	})
}

// Done is closed once the worker side is gone.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
