// Package app contains application services and port definitions for the watch context.
package app

import (
	"context"

	chainDomain "github.com/babylon-finance/price-resolver/business/chain/domain"
	resolverApp "github.com/babylon-finance/price-resolver/business/resolver/app"
)

// Reporter defines the interface for presenting watch-mode output.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportQuote displays a freshly resolved pair.
	ReportQuote(pair string, quote *resolverApp.Quote)

	// ReportQuoteError displays a failed resolution for a pair.
	ReportQuoteError(pair string, err error)

	// ReportHead displays a new chain head.
	ReportHead(head *chainDomain.Head)

	// ReportConnection displays the node connection state.
	ReportConnection(state chainDomain.ConnectionState, usingHTTP bool)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
