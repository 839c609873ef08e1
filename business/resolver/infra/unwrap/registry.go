// Package unwrap resolves wrapped assets (lending receipts, vault shares,
// pool LP tokens) to their underlying asset and a live conversion rate.
package unwrap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

const (
	tracerName = "resolver.unwrap"
	meterName  = "resolver.unwrap"
)

// RateSourceABI covers the three live-rate reads, one per on-chain kind.
const RateSourceABI = `[
	{
		"constant": true,
		"inputs": [],
		"name": "exchangeRateStored",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "pricePerShare",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"stateMutability": "view",
		"type": "function",
		"name": "get_virtual_price",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`

// Ensure Registry implements UnwrapSource.
var _ app.UnwrapSource = (*Registry)(nil)

type link struct {
	underlying *asset.Asset
	kind       domain.RateKind
	source     common.Address // contract queried for the live rate
}

type registryMetrics struct {
	ratesTotal metric.Int64Counter
	rateErrors metric.Int64Counter
}

// Registry holds the static wrapped-to-underlying link set and fetches live
// conversion rates on demand. Every rate it returns is 18-decimal
// underlying-per-wrapped; the opposite direction is derived arithmetically by
// the caller.
type Registry struct {
	links   map[asset.AssetID]link
	rateABI abi.ABI
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *registryMetrics
}

// NewRegistry builds the link set from configuration. Both sides of every
// link must be registered assets, and following links from any wrapped asset
// must terminate in a base asset within the configured chain.
func NewRegistry(cfg config.UnwrapConfig, assets *asset.Registry, chainID uint64, log logger.LoggerInterface) (*Registry, error) {
	rateABI, err := abi.JSON(strings.NewReader(RateSourceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate source ABI: %w", err)
	}

	r := &Registry{
		links:   make(map[asset.AssetID]link, len(cfg.Links)),
		rateABI: rateABI,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	for _, l := range cfg.Links {
		wrapped, ok := assets.GetToken(chainID, common.HexToAddress(l.Wrapped))
		if !ok {
			return nil, fmt.Errorf("unwrap link wrapped asset %s is not registered", l.Wrapped)
		}
		underlying, ok := assets.GetToken(chainID, common.HexToAddress(l.Underlying))
		if !ok {
			return nil, fmt.Errorf("unwrap link underlying asset %s is not registered", l.Underlying)
		}

		kind, err := domain.ParseRateKind(l.Kind)
		if err != nil {
			return nil, err
		}

		source := wrapped.Address()
		if l.Source != "" {
			source = common.HexToAddress(l.Source)
		}
		if kind == domain.RatePoolVirtualPrice && l.Source == "" {
			return nil, fmt.Errorf("unwrap link for %s needs an explicit pool source", wrapped.Symbol())
		}

		r.links[wrapped.ID()] = link{
			underlying: underlying,
			kind:       kind,
			source:     source,
		}
	}

	if err := r.checkTermination(); err != nil {
		return nil, err
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

// checkTermination rejects link sets where following underlyings loops back
// on itself. A cycle would otherwise only show up at resolution time as a
// depth failure, misreported as a budget problem.
func (r *Registry) checkTermination() error {
	for start := range r.links {
		seen := map[asset.AssetID]bool{start: true}
		current := start
		for {
			l, ok := r.links[current]
			if !ok {
				break
			}
			next := l.underlying.ID()
			if seen[next] {
				return apperror.New(apperror.CodeUnwrapCycle,
					apperror.WithContext(fmt.Sprintf("link chain starting at %s revisits %s", start, next)))
			}
			seen[next] = true
			current = next
		}
	}
	return nil
}

func (r *Registry) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &registryMetrics{}

	r.metrics.ratesTotal, err = meter.Int64Counter(
		"unwrap_rates_total",
		metric.WithDescription("Total unwrap rate fetches"),
	)
	if err != nil {
		return err
	}

	r.metrics.rateErrors, err = meter.Int64Counter(
		"unwrap_rate_errors_total",
		metric.WithDescription("Total failed unwrap rate fetches"),
	)
	if err != nil {
		return err
	}

	return nil
}

// TryUnwrap returns the underlying asset and the live underlying-per-wrapped
// rate for a linked asset. Assets without a link report ok false.
func (r *Registry) TryUnwrap(ctx context.Context, view app.StateView, a *asset.Asset) (*domain.Unwrap, bool, error) {
	l, ok := r.links[a.ID()]
	if !ok {
		return nil, false, nil
	}

	ctx, span := r.tracer.Start(ctx, "unwrap.try_unwrap",
		trace.WithAttributes(
			attribute.String("wrapped", a.Symbol()),
			attribute.String("underlying", l.underlying.Symbol()),
			attribute.String("kind", string(l.kind)),
		),
	)
	defer span.End()

	r.metrics.ratesTotal.Add(ctx, 1)

	rate, err := r.fetchRate(ctx, view, a, l)
	if err != nil {
		r.metrics.rateErrors.Add(ctx, 1)
		return nil, false, apperror.Wrap(err, apperror.CodeUnwrapRateFailed,
			fmt.Sprintf("fetching %s rate for %s", l.kind, a.Symbol()))
	}

	span.SetAttributes(attribute.String("rate", rate.String()))

	return &domain.Unwrap{
		Underlying: l.underlying,
		Rate:       rate,
		Direction:  domain.WrappedToUnderlying,
		Kind:       l.kind,
	}, true, nil
}

func (r *Registry) fetchRate(ctx context.Context, view app.StateView, wrapped *asset.Asset, l link) (*big.Int, error) {
	switch l.kind {
	case domain.RateOneToOne:
		// Rebasing receipts track their underlying one to one; no read needed.
		return asset.One18(), nil

	case domain.RateExchangeRate:
		raw, err := r.readUint256(ctx, view, l.source, "exchangeRateStored")
		if err != nil {
			return nil, err
		}
		return NormalizeExchangeRate(raw, wrapped.Decimals(), l.underlying.Decimals()), nil

	case domain.RateSharePrice:
		raw, err := r.readUint256(ctx, view, l.source, "pricePerShare")
		if err != nil {
			return nil, err
		}
		return asset.ScaleTo18(raw, l.underlying.Decimals()), nil

	case domain.RatePoolVirtualPrice:
		// get_virtual_price is already an 18-decimal value.
		return r.readUint256(ctx, view, l.source, "get_virtual_price")

	default:
		return nil, fmt.Errorf("unknown unwrap kind %q", l.kind)
	}
}

// NormalizeExchangeRate converts a Compound-style stored exchange rate into
// the 18-decimal underlying-per-wrapped domain. The stored mantissa is scaled
// by 10^(18 - wrappedDecimals + underlyingDecimals), so normalizing means
// shifting by the decimals difference.
func NormalizeExchangeRate(raw *big.Int, wrappedDecimals, underlyingDecimals uint8) *big.Int {
	result := new(big.Int).Set(raw)
	switch {
	case wrappedDecimals > underlyingDecimals:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(wrappedDecimals-underlyingDecimals)), nil)
		result.Mul(result, shift)
	case wrappedDecimals < underlyingDecimals:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(underlyingDecimals-wrappedDecimals)), nil)
		result.Div(result, shift)
	}
	return result
}

func (r *Registry) readUint256(ctx context.Context, view app.StateView, to common.Address, method string) (*big.Int, error) {
	callData, err := r.rateABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	result, err := view.Call(ctx, to, callData)
	if err != nil {
		return nil, err
	}

	outputs, err := r.rateABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method, err)
	}

	return outputs[0].(*big.Int), nil
}
