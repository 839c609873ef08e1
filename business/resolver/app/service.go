package app

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/babylon-finance/price-resolver/internal/apm"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/logger"
	"github.com/babylon-finance/price-resolver/internal/ratelimit"
)

// Quote is the result of one price resolution.
type Quote struct {
	TokenIn   *asset.Asset
	TokenOut  *asset.Asset
	Price     *big.Int // tokenOut per 1.0 tokenIn, 18-decimal fixed point
	Block     *big.Int
	FetchedAt time.Time
}

// AsPrice views the quote as a typed price between the two assets, for
// display and amount conversion.
func (q *Quote) AsPrice() asset.Price {
	return asset.NewPriceFromBigInt(q.TokenIn, q.TokenOut, q.Price, q.FetchedAt)
}

// PairRequest identifies one pair in a batch query. Each side is a symbol or
// a 0x-prefixed hex address.
type PairRequest struct {
	TokenIn  string
	TokenOut string
}

// BatchResult pairs one batch entry with its outcome. Exactly one of Quote
// and Err is set.
type BatchResult struct {
	Quote *Quote
	Err   error
}

// PriceService is the public entry point. It canonicalizes raw asset
// references, pins a chain-state snapshot, and delegates to the path
// resolver. A failed resolution fails the whole call; there is no silent
// zero.
type PriceService struct {
	log      logger.LoggerInterface
	tracer   apm.Tracer
	registry *asset.Registry
	provider SnapshotProvider
	resolver *PathResolver
	limiter  *ratelimit.Limiter
	chainID  uint64
}

// NewPriceService constructs the service. limiter paces snapshot-backed reads
// across a batch and may be generous; it must not be nil.
func NewPriceService(log logger.LoggerInterface, registry *asset.Registry, provider SnapshotProvider, resolver *PathResolver, limiter *ratelimit.Limiter, chainID uint64) *PriceService {
	return &PriceService{
		log:      log,
		tracer:   apm.NewTracer("resolver.price-service"),
		registry: registry,
		provider: provider,
		resolver: resolver,
		limiter:  limiter,
		chainID:  chainID,
	}
}

// GetPrice resolves the price of tokenOut per one unit of tokenIn. Both
// references may be symbols or hex addresses; they are canonicalized before
// resolution so differently-cased spellings of the same asset behave
// identically.
func (s *PriceService) GetPrice(ctx context.Context, tokenInRaw, tokenOutRaw string) (*Quote, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "price-service.get-price")
	defer span.End()

	tokenIn, err := s.Canonicalize(tokenInRaw)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	tokenOut, err := s.Canonicalize(tokenOutRaw)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("token_in", tokenIn.Symbol()),
		attribute.String("token_out", tokenOut.Symbol()),
	)

	view, err := s.provider.Snapshot(ctx)
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "pinning state snapshot")
	}

	return s.resolveOn(ctx, view, tokenIn, tokenOut)
}

// GetPrices resolves a batch of independent pairs in parallel against one
// shared snapshot, so every result is observed at the same block. Results
// are returned in request order; one pair failing does not fail the others.
func (s *PriceService) GetPrices(ctx context.Context, pairs []PairRequest) ([]BatchResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "price-service.get-prices")
	defer span.End()
	span.SetAttribute(attribute.Int("pairs", len(pairs)))

	if len(pairs) == 0 {
		return nil, nil
	}

	view, err := s.provider.Snapshot(ctx)
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "pinning state snapshot")
	}

	results := make([]BatchResult, len(pairs))

	var wg sync.WaitGroup
	for i, pair := range pairs {
		if err := s.limiter.Wait(ctx); err != nil {
			results[i] = BatchResult{Err: apperror.New(apperror.CodeResolutionTimeout, apperror.WithCause(err))}
			continue
		}

		wg.Add(1)
		go func(i int, pair PairRequest) {
			defer wg.Done()
			results[i] = s.resolvePair(ctx, view, pair)
		}(i, pair)
	}
	wg.Wait()

	return results, nil
}

func (s *PriceService) resolvePair(ctx context.Context, view StateView, pair PairRequest) BatchResult {
	tokenIn, err := s.Canonicalize(pair.TokenIn)
	if err != nil {
		return BatchResult{Err: err}
	}
	tokenOut, err := s.Canonicalize(pair.TokenOut)
	if err != nil {
		return BatchResult{Err: err}
	}

	quote, err := s.resolveOn(ctx, view, tokenIn, tokenOut)
	if err != nil {
		return BatchResult{Err: err}
	}
	return BatchResult{Quote: quote}
}

func (s *PriceService) resolveOn(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset) (*Quote, error) {
	start := time.Now()

	price, err := s.resolver.Resolve(ctx, view, tokenIn, tokenOut)
	if err != nil {
		s.log.Info(ctx, "price resolution failed",
			"token_in", tokenIn.Symbol(),
			"token_out", tokenOut.Symbol(),
			"code", string(apperror.GetCode(err)),
			"took", time.Since(start).String(),
		)
		return nil, err
	}

	s.log.Debug(ctx, "price resolved",
		"token_in", tokenIn.Symbol(),
		"token_out", tokenOut.Symbol(),
		"price", price.String(),
		"took", time.Since(start).String(),
	)

	return &Quote{
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		Price:     price,
		Block:     view.BlockNumber(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Canonicalize maps a raw asset reference (symbol or hex address, any case)
// to a registered asset. The native-coin alias address maps to the wrapped
// gas token. Valid addresses that are not registered resolve to an ad-hoc
// 18-decimal token so unlisted pairs fail with a resolution error, not an
// input error.
func (s *PriceService) Canonicalize(raw string) (*asset.Asset, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return nil, apperror.Validation(apperror.CodeInvalidAsset, "empty asset reference")
	}

	if strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X") {
		if !common.IsHexAddress(ref) {
			return nil, apperror.Validation(apperror.CodeInvalidAsset, ref)
		}
		addr := common.HexToAddress(ref)

		if addr == asset.NativeAlias {
			if native, ok := s.registry.GetNative(s.chainID); ok {
				return s.foldNative(native)
			}
			if weth, ok := s.registry.GetBySymbolAndChain("WETH", s.chainID); ok {
				return weth, nil
			}
			return nil, apperror.Validation(apperror.CodeInvalidAsset, "no wrapped gas token registered for chain")
		}

		if a, ok := s.registry.GetToken(s.chainID, addr); ok {
			return a, nil
		}
		return asset.MustNewToken(s.chainID, addr, addr.Hex(), "", 18), nil
	}

	if a, ok := s.registry.GetBySymbolAndChain(ref, s.chainID); ok {
		return s.foldNative(a)
	}
	// Symbol map keys are case-sensitive; fold before giving up.
	for _, a := range s.registry.All() {
		if a.ChainID() == s.chainID && strings.EqualFold(a.Symbol(), ref) {
			return s.foldNative(a)
		}
	}

	return nil, apperror.Validation(apperror.CodeInvalidAsset, ref)
}

// foldNative maps the chain's native coin to its wrapped form, since venues
// only quote the wrapped token.
func (s *PriceService) foldNative(a *asset.Asset) (*asset.Asset, error) {
	if !a.IsNative() {
		return a, nil
	}
	if weth, ok := s.registry.GetBySymbolAndChain("WETH", s.chainID); ok {
		return weth, nil
	}
	return nil, apperror.Validation(apperror.CodeInvalidAsset, "no wrapped gas token registered for chain")
}
