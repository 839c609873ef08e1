// Package app contains application services and port definitions for the watch context.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chainApp "github.com/babylon-finance/price-resolver/business/chain/app"
	chainDomain "github.com/babylon-finance/price-resolver/business/chain/domain"
	resolverApp "github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

// WatcherConfig holds configuration for the watch loop.
type WatcherConfig struct {
	Pairs []resolverApp.PairRequest
}

// Watcher re-resolves the configured pairs on every new chain head and feeds
// the results to a Reporter.
type Watcher struct {
	chain    *chainApp.ChainService
	prices   *resolverApp.PriceService
	reporter Reporter
	config   WatcherConfig
	log      logger.LoggerInterface

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewWatcher creates a new Watcher.
func NewWatcher(
	chain *chainApp.ChainService,
	prices *resolverApp.PriceService,
	reporter Reporter,
	config WatcherConfig,
	log logger.LoggerInterface,
) *Watcher {
	return &Watcher{
		chain:    chain,
		prices:   prices,
		reporter: reporter,
		config:   config,
		log:      log,
	}
}

// Start begins the watch loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	w.log.Info(ctx, "starting watch loop", "pairs", len(w.config.Pairs))

	heads, err := w.chain.SubscribeHeads(ctx)
	if err != nil {
		return err
	}

	if err := w.reporter.Start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true

	go w.run(ctx, heads)

	return nil
}

func (w *Watcher) run(ctx context.Context, heads <-chan *chainDomain.Head) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "watch loop stopping", "reason", ctx.Err())
			return
		case head := <-heads:
			if head != nil {
				w.onNewHead(ctx, head)
			}
		}
	}
}

func (w *Watcher) onNewHead(ctx context.Context, head *chainDomain.Head) {
	w.log.Debug(ctx, "processing head", "number", head.Number, "hash", head.Hash.Hex())

	w.reporter.ReportHead(head)

	status := w.chain.ConnectionStatus()
	w.reporter.ReportConnection(status.State, status.UsingHTTP)

	results, err := w.prices.GetPrices(ctx, w.config.Pairs)
	if err != nil {
		// Batch-level failure (snapshot pin, cancellation): every pair is stale.
		w.log.Error(ctx, "batch resolution failed", "head", head.Number, "error", err)
		for _, pair := range w.config.Pairs {
			w.reporter.ReportQuoteError(PairLabel(pair), err)
		}
		return
	}

	for i, res := range results {
		label := PairLabel(w.config.Pairs[i])
		if res.Err != nil {
			w.log.Warn(ctx, "pair resolution failed",
				"pair", label, "head", head.Number, "code", apperror.GetCode(res.Err))
			w.reporter.ReportQuoteError(label, res.Err)
			continue
		}
		w.reporter.ReportQuote(label, res.Quote)
	}
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	if w.cancel != nil {
		w.cancel()
	}
	return w.reporter.Stop()
}

// PairLabel renders a pair request as "IN-OUT" for display.
func PairLabel(p resolverApp.PairRequest) string {
	return p.TokenIn + "-" + p.TokenOut
}

// ParsePairs converts "IN-OUT" (or "IN/OUT") strings into pair requests.
// Each side is a symbol or 0x-prefixed address.
func ParsePairs(raw []string) ([]resolverApp.PairRequest, error) {
	pairs := make([]resolverApp.PairRequest, 0, len(raw))
	for _, r := range raw {
		pair, err := ParsePair(r)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ParsePair parses one "IN-OUT" or "IN/OUT" pair string.
func ParsePair(raw string) (resolverApp.PairRequest, error) {
	sep := "/"
	if !strings.Contains(raw, sep) {
		sep = "-"
	}
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return resolverApp.PairRequest{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("invalid pair %q, want IN-OUT or IN/OUT", raw)))
	}
	return resolverApp.PairRequest{
		TokenIn:  strings.TrimSpace(parts[0]),
		TokenOut: strings.TrimSpace(parts[1]),
	}, nil
}
