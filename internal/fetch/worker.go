package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/subex/internal/chain"
	"github.com/pders01/subex/internal/debuglog"
)

// Fetcher retrieves runtime metadata from an endpoint.
type Fetcher interface {
	FetchMetadata(ctx context.Context, url string) (*chain.Tree, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (*chain.Tree, error)

func (f FetcherFunc) FetchMetadata(ctx context.Context, url string) (*chain.Tree, error) {
	return f(ctx, url)
}

// Worker serves bridge requests one at a time until its context ends.
type Worker struct {
	fetcher Fetcher
	bridge  *Bridge
}

func NewWorker(fetcher Fetcher, bridge *Bridge) *Worker {
	return &Worker{fetcher: fetcher, bridge: bridge}
}

// Run blocks until ctx is cancelled. A failed fetch is reported as a Result
// and the loop carries on with the next request. When Run returns the bridge
// is closed, so the UI sees PollDisconnected.
func (w *Worker) Run(ctx context.Context) error {
	defer w.bridge.Close()
	debuglog.Infof("fetch worker started")

	for {
		// Requests still queued at shutdown are dropped.
		if ctx.Err() != nil {
			debuglog.Infof("fetch worker stopped")
			return nil
		}
		req, err := w.bridge.Next(ctx)
		if err != nil {
			continue
		}
		res := w.handle(ctx, req)
		if err := w.bridge.Deliver(ctx, res); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) (res Result) {
	log := debuglog.WithFields(map[string]interface{}{"request": req.ID, "url": req.URL})
	start := time.Now()
	res = Result{ID: req.ID, URL: req.URL}

	defer func() {
		if r := recover(); r != nil {
			res.Tree = nil
			res.Err = fmt.Errorf("fetching metadata panicked: %v", r)
			log.Errorf("%v", res.Err)
		}
	}()

	log.Debugf("fetching metadata")
	tree, err := w.fetcher.FetchMetadata(ctx, req.URL)
	if err != nil {
		log.Warnf("fetch failed after %s: %v", time.Since(start), err)
		res.Err = err
		return res
	}
	if tree == nil {
		res.Err = errors.New("node returned no metadata")
		return res
	}

	log.Infof("fetched %d pallets in %s", len(tree.Pallets), time.Since(start))
	res.Tree = tree
	return res
}
