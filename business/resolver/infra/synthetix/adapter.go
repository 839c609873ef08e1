// Package synthetix implements the synthetic-asset venue adapter over the
// Synthetix ExchangeRates oracle.
package synthetix

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
	tracerName = "resolver.synthetix"
	meterName  = "resolver.synthetix"
)

// ExchangeRatesABI covers the single oracle read the adapter performs.
const ExchangeRatesABI = `[
	{
		"constant": true,
		"inputs": [
			{"internalType": "bytes32", "name": "currencyKey", "type": "bytes32"}
		],
		"name": "rateForCurrency",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"payable": false,
		"stateMutability": "view",
		"type": "function"
	}
]`

// Ensure Adapter implements VenueAdapter.
var _ app.VenueAdapter = (*Adapter)(nil)

type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Adapter quotes synth-to-synth prices from the ExchangeRates oracle. Every
// synth is quoted against USD, so the cross rate is rate(in)/rate(out). Only
// pairs where both sides have a configured currency key are covered.
type Adapter struct {
	rates    common.Address
	ratesABI abi.ABI

	// token address -> right-padded bytes32 currency key
	keys map[common.Address][32]byte

	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates a synthetic-asset adapter from the configured oracle
// address and currency-key table.
func NewAdapter(cfg config.SynthetixConfig, log logger.LoggerInterface) (*Adapter, error) {
	ratesABI, err := abi.JSON(strings.NewReader(ExchangeRatesABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse exchange rates ABI: %w", err)
	}

	keys := make(map[common.Address][32]byte, len(cfg.CurrencyKeys))
	for addr, key := range cfg.CurrencyKeys {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid synth address %q", addr)
		}
		keys[common.HexToAddress(addr)] = CurrencyKey(key)
	}

	a := &Adapter{
		rates:    cfg.ExchangeRatesAddressHex(),
		ratesABI: ratesABI,
		keys:     keys,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
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
		"synthetix_quotes_total",
		metric.WithDescription("Total synth cross-rate quote attempts"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"synthetix_quote_latency_ms",
		metric.WithDescription("Quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// CurrencyKey converts a synth symbol into the oracle's right-padded bytes32
// form.
func CurrencyKey(symbol string) [32]byte {
	var key [32]byte
	copy(key[:], symbol)
	return key
}

// Family identifies this adapter's venue family.
func (a *Adapter) Family() domain.VenueFamily {
	return domain.FamilySynthetic
}

// TryQuote returns rate(tokenIn)/rate(tokenOut), normalized to 18 decimals.
// Oracle rates are already 18-decimal USD prices.
func (a *Adapter) TryQuote(ctx context.Context, view app.StateView, tokenIn, tokenOut *asset.Asset) (*big.Int, bool, error) {
	keyIn, okIn := a.keys[tokenIn.Address()]
	keyOut, okOut := a.keys[tokenOut.Address()]
	if !okIn || !okOut {
		return nil, false, nil
	}

	ctx, span := a.tracer.Start(ctx, "synthetix.try_quote",
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

	rateIn, err := a.rateForCurrency(ctx, view, keyIn)
	if err != nil {
		return nil, false, err
	}
	rateOut, err := a.rateForCurrency(ctx, view, keyOut)
	if err != nil {
		return nil, false, err
	}

	if rateIn.Sign() == 0 || rateOut.Sign() == 0 {
		a.logger.Debug(ctx, "oracle returned zero rate",
			"token_in", tokenIn.Symbol(),
			"token_out", tokenOut.Symbol(),
		)
		return big.NewInt(0), true, nil
	}

	price, err := asset.DivFixed(rateIn, rateOut)
	if err != nil {
		return big.NewInt(0), true, nil
	}

	span.SetAttributes(attribute.String("price", price.String()))
	return price, true, nil
}

func (a *Adapter) rateForCurrency(ctx context.Context, view app.StateView, key [32]byte) (*big.Int, error) {
	callData, err := a.ratesABI.Pack("rateForCurrency", key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rateForCurrency: %w", err)
	}

	result, err := view.Call(ctx, a.rates, callData)
	if err != nil {
		return nil, err
	}

	outputs, err := a.ratesABI.Unpack("rateForCurrency", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rateForCurrency: %w", err)
	}

	return outputs[0].(*big.Int), nil
}
