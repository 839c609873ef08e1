// Package infra contains infrastructure adapters for the watch context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	chainDomain "github.com/babylon-finance/price-resolver/business/chain/domain"
	resolverApp "github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/internal/apperror"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Price Resolver Started")
	fmt.Fprintln(r.out, "======================")
	return nil
}

// ReportQuote prints one resolved pair.
func (r *ConsoleReporter) ReportQuote(pair string, quote *resolverApp.Quote) {
	price := quote.AsPrice()
	fmt.Fprintf(r.out, "[%s] block #%s  %-16s  %s\n",
		quote.FetchedAt.Format("15:04:05"),
		quote.Block.String(),
		pair,
		price.Rate().StringFixed(8),
	)
}

// ReportQuoteError prints one failed resolution.
func (r *ConsoleReporter) ReportQuoteError(pair string, err error) {
	fmt.Fprintf(r.out, "[%s] %-16s  FAILED (%s): %v\n",
		time.Now().Format("15:04:05"), pair, apperror.GetCode(err), err)
}

// ReportHead prints new chain heads only at debug granularity; the per-pair
// lines already carry the block number.
func (r *ConsoleReporter) ReportHead(head *chainDomain.Head) {}

// ReportConnection prints connection state changes.
func (r *ConsoleReporter) ReportConnection(state chainDomain.ConnectionState, usingHTTP bool) {
	if state == chainDomain.StateConnected {
		return
	}
	fmt.Fprintf(r.out, "[%s] node %s\n", time.Now().Format("15:04:05"), state)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Price Resolver Stopped")
	return nil
}
