// Package uniswap implements the constant-product venue adapter over
// Uniswap V2 pairs.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

const (
	tracerName = "resolver.uniswap"
	meterName  = "resolver.uniswap"
)

// Ensure Adapter implements VenueAdapter.
var _ app.VenueAdapter = (*Adapter)(nil)

type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	pairMisses   metric.Int64Counter
}

// Adapter quotes spot prices from V2 pair reserves. The reserve ratio is the
// marginal price for an infinitesimal trade; no trade size or fee is applied.
type Adapter struct {
	factory    common.Address
	factoryABI abi.ABI
	pairABI    abi.ABI

	logger logger.LoggerInterface

	// Pair addresses are immutable once deployed, so positive lookups are
	// memoized for the adapter's lifetime. Misses are never memoized: a pair
	// deployed after a miss must be discoverable on the next quote.
	mu    sync.RWMutex
	pairs map[[2]common.Address]common.Address

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates a constant-product adapter against the configured
// factory.
func NewAdapter(cfg config.UniswapConfig, log logger.LoggerInterface) (*Adapter, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	a := &Adapter{
		factory:    cfg.FactoryAddressHex(),
		factoryABI: factoryABI,
		pairABI:    pairABI,
		logger:     log,
		pairs:      make(map[[2]common.Address]common.Address),
		tracer:     otel.Tracer(tracerName),
	}

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return a, nil
}

func (a *Adapter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &adapterMetrics{}

	a.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_quotes_total",
		metric.WithDescription("Total reserve-ratio quote attempts"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_quote_latency_ms",
		metric.WithDescription("Quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	a.metrics.pairMisses, err = meter.Int64Counter(
		"uniswap_pair_misses_total",
		metric.WithDescription("Pair lookups that found no deployed pair"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Family identifies this adapter's venue family.
func (a *Adapter) Family() domain.VenueFamily {
	return domain.FamilyConstantProduct
}

// TryQuote returns the reserve-ratio price of tokenOut per one tokenIn,
// normalized to 18 decimals.
func (a *Adapter) TryQuote(ctx context.Context, view app.StateView, tokenIn, tokenOut *asset.Asset) (*big.Int, bool, error) {
	ctx, span := a.tracer.Start(ctx, "uniswap.try_quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Symbol()),
			attribute.String("token_out", tokenOut.Symbol()),
		),
	)
	defer span.End()

	start := time.Now()
	a.metrics.quotesTotal.Add(ctx, 1)
	defer func() {
		a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	pair, err := a.findPair(ctx, view, tokenIn.Address(), tokenOut.Address())
	if err != nil {
		return nil, false, err
	}
	if pair == (common.Address{}) {
		a.metrics.pairMisses.Add(ctx, 1)
		return nil, false, nil
	}

	reserve0, reserve1, err := a.getReserves(ctx, view, pair)
	if err != nil {
		return nil, false, err
	}

	token0, err := a.getToken0(ctx, view, pair)
	if err != nil {
		return nil, false, err
	}

	reserveIn, reserveOut := reserve0, reserve1
	if token0 != tokenIn.Address() {
		reserveIn, reserveOut = reserve1, reserve0
	}

	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		a.logger.Debug(ctx, "pair has empty reserves",
			"pair", pair.Hex(),
			"token_in", tokenIn.Symbol(),
			"token_out", tokenOut.Symbol(),
		)
		return big.NewInt(0), true, nil
	}

	price, err := asset.DivFixed(
		asset.ScaleTo18(reserveOut, tokenOut.Decimals()),
		asset.ScaleTo18(reserveIn, tokenIn.Decimals()),
	)
	if err != nil {
		return big.NewInt(0), true, nil
	}

	span.SetAttributes(attribute.String("price", price.String()))
	return price, true, nil
}

func (a *Adapter) findPair(ctx context.Context, view app.StateView, tokenA, tokenB common.Address) (common.Address, error) {
	key := [2]common.Address{tokenA, tokenB}

	a.mu.RLock()
	pair, cached := a.pairs[key]
	a.mu.RUnlock()
	if cached {
		return pair, nil
	}

	callData, err := a.factoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPair: %w", err)
	}

	result, err := view.Call(ctx, a.factory, callData)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := a.factoryABI.Unpack("getPair", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode getPair: %w", err)
	}
	pair = outputs[0].(common.Address)

	if pair != (common.Address{}) {
		a.mu.Lock()
		a.pairs[key] = pair
		a.mu.Unlock()
	}

	return pair, nil
}

func (a *Adapter) getReserves(ctx context.Context, view app.StateView, pair common.Address) (*big.Int, *big.Int, error) {
	callData, err := a.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode getReserves: %w", err)
	}

	result, err := view.Call(ctx, pair, callData)
	if err != nil {
		return nil, nil, err
	}

	outputs, err := a.pairABI.Unpack("getReserves", result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode getReserves: %w", err)
	}

	return outputs[0].(*big.Int), outputs[1].(*big.Int), nil
}

func (a *Adapter) getToken0(ctx context.Context, view app.StateView, pair common.Address) (common.Address, error) {
	callData, err := a.pairABI.Pack("token0")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode token0: %w", err)
	}

	result, err := view.Call(ctx, pair, callData)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := a.pairABI.Unpack("token0", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode token0: %w", err)
	}

	return outputs[0].(common.Address), nil
}
