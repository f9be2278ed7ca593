package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/subex/internal/debuglog"
	"github.com/pders01/subex/internal/fetch"
	"github.com/pders01/subex/internal/render"
	"github.com/pders01/subex/internal/search"
)

type pollMsg struct{}

type indexedMsg struct {
	docs int
	err  error
}

type searchResultsMsg struct {
	seq     int
	results []*search.Result
	err     error
}

type searchDebounceFireMsg struct {
	seq int
}

// requestMetadata hands the current URL to the worker. It is a no-op while
// the fetch trigger is disabled.
func (a *App) requestMetadata() tea.Cmd {
	if !a.CanFetch() {
		return nil
	}
	endpoint := a.urlInput.Value()

	// Send only fails once the worker is gone.
	req, err := a.bridge.Send(endpoint)
	if err != nil {
		debuglog.Errorf("Fetching disabled: %v", err)
		a.session.stop()
		return nil
	}

	debuglog.WithFields(map[string]interface{}{
		"id":      req.ID,
		"url":     req.URL,
		"timeout": a.session.guard.Duration().String(),
		"queued":  a.bridge.Pending(),
	}).Infof("Requested metadata")

	a.session.begin(req.ID, req.URL)
	a.sections = nil
	a.rows = nil
	a.cursor = 0
	a.viewport.SetContent("")
	a.setStatus("", StatusInfo)
	a.setFocus(FocusTree)

	return tea.Batch(a.schedulePoll(), a.spinner.Tick)
}

// schedulePoll arms one frame tick unless one is already armed.
func (a *App) schedulePoll() tea.Cmd {
	if a.session.polling {
		return nil
	}
	a.session.polling = true
	return tea.Tick(a.config.Fetch.FrameInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

// checkResponse drains whatever the worker has delivered since the last
// frame. Results for requests that are no longer pending are dropped.
func (a *App) checkResponse() tea.Cmd {
	for {
		res, status := a.bridge.Poll()
		switch status {
		case fetch.PollEmpty:
			return nil

		case fetch.PollDisconnected:
			debuglog.Errorf("Result channel closed")
			a.session.stop()
			return nil

		case fetch.PollReady:
			if res.ID != a.session.pendingID {
				debuglog.Debugf("Dropping stale result %d (pending %d)", res.ID, a.session.pendingID)
				continue
			}
			return a.applyResult(res)
		}
	}
}

func (a *App) applyResult(res fetch.Result) tea.Cmd {
	if !res.OK() {
		err := res.Err
		if err == nil {
			err = errors.New(MsgNoMetadata)
		}
		debuglog.Warnf("Fetching %s failed: %v", res.URL, err)
		a.session.fail(err)
		return nil
	}

	a.session.succeed(res.Tree, res.URL)
	a.setSections(render.Outline(res.Tree))
	a.setStatus(MsgLoaded(len(res.Tree.Pallets), res.URL), StatusSuccess)
	debuglog.Infof("Loaded %d pallets from %s", len(res.Tree.Pallets), res.URL)

	return a.indexSections(a.sections)
}

func (a *App) indexSections(sections []*render.Section) tea.Cmd {
	if a.index == nil {
		return nil
	}
	index := a.index
	return func() tea.Msg {
		if err := index.IndexSections(sections); err != nil {
			return indexedMsg{err: err}
		}
		n, err := index.DocCount()
		return indexedMsg{docs: n, err: err}
	}
}

func (a *App) performSearch(query string, seq int) tea.Cmd {
	if a.index == nil {
		return nil
	}
	index := a.index
	return func() tea.Msg {
		results, err := index.Search(query, searchLimit)
		if err != nil {
			return searchResultsMsg{seq: seq, err: wrapErr("search", err)}
		}
		return searchResultsMsg{seq: seq, results: results}
	}
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
