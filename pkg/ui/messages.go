// Package ui provides the Bubble Tea TUI for watch mode.
package ui

import (
	"time"

	"github.com/babylon-finance/price-resolver/internal/asset"
)

// Message types for TUI updates

// QuoteMsg is sent when a pair resolves successfully.
type QuoteMsg struct {
	Pair      string
	Price     asset.Price
	Block     uint64
	FetchedAt time.Time
}

// QuoteErrorMsg is sent when a pair fails to resolve.
type QuoteErrorMsg struct {
	Pair string
	Err  error
}

// HeadMsg is sent when a new chain head is received.
type HeadMsg struct {
	Number    uint64
	Timestamp time.Time
}

// ConnectionStatusMsg is sent when node connection status changes.
type ConnectionStatusMsg struct {
	Connected  bool
	UsingHTTP  bool
	Reconnects int
}

// ErrorMsg is sent when an error occurs outside pair resolution.
type ErrorMsg struct {
	Error error
}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step   string // Current step name
	Status string // "connecting", "connected", "done", "failed"
}
