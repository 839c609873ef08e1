// Package curve implements the stable-swap venue adapter over Curve pools.
package curve

import (
	"context"
	"fmt"
	"math/big"
	"strings"
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
	tracerName = "resolver.curve"
	meterName  = "resolver.curve"
)

// Ensure Adapter implements VenueAdapter.
var _ app.VenueAdapter = (*Adapter)(nil)

type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	poolMisses   metric.Int64Counter
}

// Adapter quotes prices from Curve stable-swap pools. It asks get_dy for the
// output of swapping exactly one whole unit of the input coin, which bakes
// the pool's amplified invariant into the answer without reimplementing it.
type Adapter struct {
	registry    common.Address
	registryABI abi.ABI
	poolABI     abi.ABI

	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates a stable-swap adapter against the configured registry.
func NewAdapter(cfg config.CurveConfig, log logger.LoggerInterface) (*Adapter, error) {
	registryABI, err := abi.JSON(strings.NewReader(RegistryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	a := &Adapter{
		registry:    cfg.RegistryAddressHex(),
		registryABI: registryABI,
		poolABI:     poolABI,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
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
		"curve_quotes_total",
		metric.WithDescription("Total stable-swap quote attempts"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"curve_quote_latency_ms",
		metric.WithDescription("Quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	a.metrics.poolMisses, err = meter.Int64Counter(
		"curve_pool_misses_total",
		metric.WithDescription("Registry lookups that found no pool"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Family identifies this adapter's venue family.
func (a *Adapter) Family() domain.VenueFamily {
	return domain.FamilyStableSwap
}

// TryQuote returns the get_dy price of tokenOut per one tokenIn, normalized
// to 18 decimals.
func (a *Adapter) TryQuote(ctx context.Context, view app.StateView, tokenIn, tokenOut *asset.Asset) (*big.Int, bool, error) {
	ctx, span := a.tracer.Start(ctx, "curve.try_quote",
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

	pool, err := a.findPool(ctx, view, tokenIn.Address(), tokenOut.Address())
	if err != nil {
		return nil, false, err
	}
	if pool == (common.Address{}) {
		a.metrics.poolMisses.Add(ctx, 1)
		return nil, false, nil
	}

	i, j, err := a.coinIndices(ctx, view, pool, tokenIn.Address(), tokenOut.Address())
	if err != nil {
		return nil, false, err
	}

	// dx = exactly 1.0 tokenIn in its native precision, so dy is directly
	// the price once normalized.
	dx := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenIn.Decimals())), nil)

	dy, err := a.getDy(ctx, view, pool, i, j, dx)
	if err != nil {
		return nil, false, err
	}
	if dy.Sign() == 0 {
		a.logger.Debug(ctx, "pool returned zero output",
			"pool", pool.Hex(),
			"token_in", tokenIn.Symbol(),
			"token_out", tokenOut.Symbol(),
		)
		return big.NewInt(0), true, nil
	}

	price := asset.ScaleTo18(dy, tokenOut.Decimals())

	span.SetAttributes(
		attribute.String("pool", pool.Hex()),
		attribute.String("price", price.String()),
	)
	return price, true, nil
}

// VirtualPrice reads get_virtual_price from a pool, an 18-decimal value
// already in the engine's convention. The unwrap layer uses it to value LP
// tokens.
func (a *Adapter) VirtualPrice(ctx context.Context, view app.StateView, pool common.Address) (*big.Int, error) {
	callData, err := a.poolABI.Pack("get_virtual_price")
	if err != nil {
		return nil, fmt.Errorf("failed to encode get_virtual_price: %w", err)
	}

	result, err := view.Call(ctx, pool, callData)
	if err != nil {
		return nil, err
	}

	outputs, err := a.poolABI.Unpack("get_virtual_price", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode get_virtual_price: %w", err)
	}

	return outputs[0].(*big.Int), nil
}

func (a *Adapter) findPool(ctx context.Context, view app.StateView, from, to common.Address) (common.Address, error) {
	callData, err := a.registryABI.Pack("find_pool_for_coins", from, to)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode find_pool_for_coins: %w", err)
	}

	result, err := view.Call(ctx, a.registry, callData)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := a.registryABI.Unpack("find_pool_for_coins", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode find_pool_for_coins: %w", err)
	}

	return outputs[0].(common.Address), nil
}

func (a *Adapter) coinIndices(ctx context.Context, view app.StateView, pool, from, to common.Address) (*big.Int, *big.Int, error) {
	callData, err := a.registryABI.Pack("get_coin_indices", pool, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode get_coin_indices: %w", err)
	}

	result, err := view.Call(ctx, a.registry, callData)
	if err != nil {
		return nil, nil, err
	}

	outputs, err := a.registryABI.Unpack("get_coin_indices", result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode get_coin_indices: %w", err)
	}

	return outputs[0].(*big.Int), outputs[1].(*big.Int), nil
}

func (a *Adapter) getDy(ctx context.Context, view app.StateView, pool common.Address, i, j, dx *big.Int) (*big.Int, error) {
	callData, err := a.poolABI.Pack("get_dy", i, j, dx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode get_dy: %w", err)
	}

	result, err := view.Call(ctx, pool, callData)
	if err != nil {
		return nil, err
	}

	outputs, err := a.poolABI.Unpack("get_dy", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode get_dy: %w", err)
	}

	return outputs[0].(*big.Int), nil
}
