package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

// DefaultDepthBudget bounds recursion across unwrap and pivot hops.
const DefaultDepthBudget = 4

// PathResolver finds an exchange rate between two assets by trying, in strict
// order: identity, direct venue quotes, unwrapping either side, and hopping
// through pivot assets. Candidate order is fixed, so for a given chain state
// the resolved path (and therefore the price) is deterministic.
type PathResolver struct {
	log      logger.LoggerInterface
	adapters []VenueAdapter
	unwraps  UnwrapSource
	pivots   []*asset.Asset
	depth    int
}

// NewPathResolver orders the given adapters by the family priority list and
// drops adapters whose family is not listed.
func NewPathResolver(log logger.LoggerInterface, adapters []VenueAdapter, unwraps UnwrapSource, priority []domain.VenueFamily, pivots []*asset.Asset, depth int) *PathResolver {
	if depth < 1 {
		depth = DefaultDepthBudget
	}

	ordered := make([]VenueAdapter, 0, len(adapters))
	for _, fam := range priority {
		for _, a := range adapters {
			if a.Family() == fam {
				ordered = append(ordered, a)
			}
		}
	}

	return &PathResolver{
		log:      log,
		adapters: ordered,
		unwraps:  unwraps,
		pivots:   pivots,
		depth:    depth,
	}
}

// Resolve returns the 18-decimal fixed-point price of tokenOut per one
// normalized unit of tokenIn, observed against the given state view.
func (r *PathResolver) Resolve(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset) (*big.Int, error) {
	pair := fmt.Sprintf("%s -> %s", tokenIn.Symbol(), tokenOut.Symbol())

	price, out := r.resolve(ctx, view, tokenIn, tokenOut, r.depth, true)
	if out.timedOut {
		return nil, apperror.New(apperror.CodeResolutionTimeout, apperror.WithContext(pair))
	}
	if price != nil {
		return price, nil
	}

	// Candidate space exhausted. The most specific failure wins: running out
	// of depth means a path may exist beyond the budget, a zero rate means a
	// path exists but is unusable, and only otherwise is there truly no path.
	switch {
	case out.sawDepth:
		return nil, apperror.New(apperror.CodeDepthExceeded, apperror.WithContext(pair))
	case out.sawZero:
		return nil, apperror.New(apperror.CodeZeroRate, apperror.WithContext(pair))
	default:
		return nil, apperror.New(apperror.CodeNoPricePath, apperror.WithContext(pair))
	}
}

// outcome accumulates what the search observed while exhausting candidates,
// so the final error reflects the most specific failure.
type outcome struct {
	sawDepth bool
	sawZero  bool
	timedOut bool
}

func (o *outcome) merge(other outcome) {
	o.sawDepth = o.sawDepth || other.sawDepth
	o.sawZero = o.sawZero || other.sawZero
	o.timedOut = o.timedOut || other.timedOut
}

// resolve walks the fixed candidate order for one pair. Pivot legs are full
// recursive resolutions, so a hop may itself hop through a further pivot; the
// depth budget alone bounds the search. root marks the caller-requested pair:
// depth exhaustion is recorded only at the root or when a real unwrap link had
// to be abandoned, so a speculative pivot leg running out of budget does not
// turn a genuinely unconnected pair into "ran out of budget".
func (r *PathResolver) resolve(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset, depth int, root bool) (*big.Int, outcome) {
	var out outcome

	if ctx.Err() != nil {
		out.timedOut = true
		return nil, out
	}

	// Identity: an asset is always worth exactly one of itself.
	if tokenIn.ID().Equals(tokenOut.ID()) {
		return asset.One18(), out
	}

	// Direct quotes, one family at a time in priority order.
	for _, adapter := range r.adapters {
		price, ok, err := adapter.TryQuote(ctx, view, tokenIn, tokenOut)
		if err != nil {
			if ctx.Err() != nil {
				out.timedOut = true
				return nil, out
			}
			r.log.Warn(ctx, "venue quote failed, trying next candidate",
				"family", string(adapter.Family()),
				"token_in", tokenIn.Symbol(),
				"token_out", tokenOut.Symbol(),
				"error", err.Error(),
			)
			continue
		}
		if !ok {
			continue
		}
		if price.Sign() == 0 {
			out.sawZero = true
			continue
		}
		return price, out
	}

	// Unwrap the input side: price(wrapped -> out) = rate * price(underlying -> out).
	price, sub := r.resolveViaUnwrapIn(ctx, view, tokenIn, tokenOut, depth, root)
	out.merge(sub)
	if price != nil || sub.timedOut {
		return price, out
	}

	// Unwrap the output side: price(in -> wrapped) = price(in -> underlying) / rate.
	price, sub = r.resolveViaUnwrapOut(ctx, view, tokenIn, tokenOut, depth, root)
	out.merge(sub)
	if price != nil || sub.timedOut {
		return price, out
	}

	// Pivot hop: price(in -> out) = price(in -> pivot) * price(pivot -> out).
	for _, pivot := range r.pivots {
		if pivot.ID().Equals(tokenIn.ID()) || pivot.ID().Equals(tokenOut.ID()) {
			continue
		}

		if depth <= 1 {
			if root {
				out.sawDepth = true
			}
			break
		}

		legIn, subIn := r.resolve(ctx, view, tokenIn, pivot, depth-1, false)
		out.merge(subIn)
		if subIn.timedOut {
			return nil, out
		}
		if legIn == nil {
			continue
		}

		legOut, subOut := r.resolve(ctx, view, pivot, tokenOut, depth-1, false)
		out.merge(subOut)
		if subOut.timedOut {
			return nil, out
		}
		if legOut == nil {
			continue
		}

		price := asset.MulFixed(legIn, legOut)
		if price.Sign() == 0 {
			out.sawZero = true
			continue
		}
		return price, out
	}

	return nil, out
}

func (r *PathResolver) resolveViaUnwrapIn(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset, depth int, root bool) (*big.Int, outcome) {
	var out outcome

	uw, ok, err := r.unwraps.TryUnwrap(ctx, view, tokenIn)
	if err != nil {
		if ctx.Err() != nil {
			out.timedOut = true
			return nil, out
		}
		r.log.Warn(ctx, "unwrap rate fetch failed",
			"asset", tokenIn.Symbol(), "error", err.Error())
		return nil, out
	}
	if !ok {
		return nil, out
	}
	if depth <= 1 {
		out.sawDepth = true
		return nil, out
	}
	rate, ok := unwrapRate(uw)
	if !ok {
		out.sawZero = true
		return nil, out
	}

	sub, subOut := r.resolve(ctx, view, uw.Underlying, tokenOut, depth-1, root)
	out.merge(subOut)
	if sub == nil {
		return nil, out
	}

	price := asset.MulFixed(rate, sub)
	if price.Sign() == 0 {
		out.sawZero = true
		return nil, out
	}
	return price, out
}

func (r *PathResolver) resolveViaUnwrapOut(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset, depth int, root bool) (*big.Int, outcome) {
	var out outcome

	uw, ok, err := r.unwraps.TryUnwrap(ctx, view, tokenOut)
	if err != nil {
		if ctx.Err() != nil {
			out.timedOut = true
			return nil, out
		}
		r.log.Warn(ctx, "unwrap rate fetch failed",
			"asset", tokenOut.Symbol(), "error", err.Error())
		return nil, out
	}
	if !ok {
		return nil, out
	}
	if depth <= 1 {
		out.sawDepth = true
		return nil, out
	}
	rate, ok := unwrapRate(uw)
	if !ok {
		out.sawZero = true
		return nil, out
	}

	sub, subOut := r.resolve(ctx, view, tokenIn, uw.Underlying, depth-1, root)
	out.merge(subOut)
	if sub == nil {
		return nil, out
	}

	price, err := asset.DivFixed(sub, rate)
	if err != nil || price.Sign() == 0 {
		out.sawZero = true
		return nil, out
	}
	return price, out
}

// unwrapRate normalizes a link's rate to underlying-per-wrapped. A link whose
// oracle quotes wrapped-per-underlying is inverted arithmetically, never via a
// second external call. ok is false when the rate is unusable (zero either as
// quoted or after inversion).
func unwrapRate(uw *domain.Unwrap) (*big.Int, bool) {
	if uw.Rate == nil || uw.Rate.Sign() == 0 {
		return nil, false
	}
	if uw.Direction == domain.UnderlyingToWrapped {
		inv, err := asset.InvertFixed(uw.Rate)
		if err != nil || inv.Sign() == 0 {
			return nil, false
		}
		return inv, true
	}
	return uw.Rate, true
}
