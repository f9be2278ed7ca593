package tui

import (
	"fmt"
	"time"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Short messages shown in the top bar and status line.
const (
	MsgInvalidURL    = "Invalid URL"
	MsgWorkerStopped = "The worker stopped! Please, restart the app"
	MsgFetching      = "Fetching metadata…"
	MsgNoResults     = "No results"
	MsgNoMetadata    = "Fetch metadata to search it"
	MsgNoPresets     = "No endpoint presets"
	MsgLocalNode     = "local node"
)

// MsgWaiting renders the countdown shown while a request is outstanding.
// Partial seconds round up, so it never shows zero while waiting.
func MsgWaiting(remaining time.Duration) string {
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Waiting for response %d seconds", secs)
}

func MsgLoaded(pallets int, url string) string {
	return fmt.Sprintf("Loaded %d pallets from %s", pallets, url)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgIndexed(docs int) string {
	return fmt.Sprintf("idx: %d docs", docs)
}
