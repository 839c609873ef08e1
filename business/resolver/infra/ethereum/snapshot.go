// Package ethereum provides block-pinned read access to an Ethereum node.
package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/circuitbreaker"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

const (
	tracerName = "resolver.ethereum"
	meterName  = "resolver.ethereum"
)

// Ensure Provider implements SnapshotProvider.
var _ app.SnapshotProvider = (*Provider)(nil)

type providerMetrics struct {
	callsTotal metric.Int64Counter
	callErrors metric.Int64Counter
}

// Provider pins state snapshots to the chain head. All contract reads taken
// through one snapshot observe the same block, so prices composed from
// several venues are mutually consistent.
type Provider struct {
	client *ethclient.Client
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a snapshot provider backed by the given client.
func NewProvider(client *ethclient.Client, log logger.LoggerInterface) (*Provider, error) {
	p := &Provider{
		client: client,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("eth-call")),
		tracer: otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.callsTotal, err = meter.Int64Counter(
		"eth_snapshot_calls_total",
		metric.WithDescription("Total contract reads through pinned snapshots"),
	)
	if err != nil {
		return err
	}

	p.metrics.callErrors, err = meter.Int64Counter(
		"eth_snapshot_call_errors_total",
		metric.WithDescription("Total failed contract reads"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Snapshot pins a new view at the current head.
func (p *Provider) Snapshot(ctx context.Context) (app.StateView, error) {
	ctx, span := p.tracer.Start(ctx, "ethereum.snapshot")
	defer span.End()

	blockNum, err := p.client.BlockNumber(ctx)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "fetching head block number", err)
	}

	span.SetAttributes(attribute.Int64("block_number", int64(blockNum)))
	p.logger.Debug(ctx, "pinned state snapshot", "block_number", blockNum)

	return &snapshot{
		provider: p,
		block:    new(big.Int).SetUint64(blockNum),
	}, nil
}

// snapshot is a StateView pinned to one block.
type snapshot struct {
	provider *Provider
	block    *big.Int
}

func (s *snapshot) BlockNumber() *big.Int {
	return s.block
}

func (s *snapshot) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	p := s.provider
	p.metrics.callsTotal.Add(ctx, 1)

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: data,
		}, s.block)
	})
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("call to %s at block %s", to.Hex(), s.block)))
	}

	return result, nil
}
