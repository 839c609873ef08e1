// Package infra contains infrastructure adapters for the watch context.
package infra

import (
	"context"

	chainDomain "github.com/babylon-finance/price-resolver/business/chain/domain"
	resolverApp "github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/pkg/ui"
)

// TUIReporter implements Reporter by forwarding events to the Bubble Tea
// program as messages. The program itself is owned by main.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start marks startup progress in the TUI.
func (r *TUIReporter) Start(ctx context.Context) error {
	ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
	ui.Send(ui.StartupMsg{Step: "venues", Status: "done"})
	return nil
}

// ReportQuote sends a resolved pair to the TUI.
func (r *TUIReporter) ReportQuote(pair string, quote *resolverApp.Quote) {
	ui.Send(ui.QuoteMsg{
		Pair:      pair,
		Price:     quote.AsPrice(),
		Block:     quote.Block.Uint64(),
		FetchedAt: quote.FetchedAt,
	})
}

// ReportQuoteError sends a failed resolution to the TUI.
func (r *TUIReporter) ReportQuoteError(pair string, err error) {
	ui.Send(ui.QuoteErrorMsg{Pair: pair, Err: err})
}

// ReportHead sends a new chain head to the TUI.
func (r *TUIReporter) ReportHead(head *chainDomain.Head) {
	ui.Send(ui.HeadMsg{Number: head.Number, Timestamp: head.Timestamp})
}

// ReportConnection sends connection status to the TUI.
func (r *TUIReporter) ReportConnection(state chainDomain.ConnectionState, usingHTTP bool) {
	ui.Send(ui.ConnectionStatusMsg{
		Connected: state == chainDomain.StateConnected,
		UsingHTTP: usingHTTP,
	})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
