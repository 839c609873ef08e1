package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

// fp parses a decimal string into the 18-decimal fixed-point domain.
func fp(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(asset.PricePrecision).BigInt()
}

// fakeView satisfies StateView for tests that never touch the chain.
type fakeView struct {
	block *big.Int
}

func (v *fakeView) BlockNumber() *big.Int { return v.block }

func (v *fakeView) Call(_ context.Context, _ common.Address, _ []byte) ([]byte, error) {
	return nil, errors.New("fake view has no chain")
}

type pairKey struct {
	in  asset.AssetID
	out asset.AssetID
}

func pk(in, out *asset.Asset) pairKey {
	return pairKey{in: in.ID(), out: out.ID()}
}

// fakeAdapter quotes a fixed table of pairs for one family. Pairs mapped to a
// zero price simulate a degenerate pool; missing pairs are not covered.
type fakeAdapter struct {
	family domain.VenueFamily
	quotes map[pairKey]*big.Int
	err    error
	calls  atomic.Int64
}

func (f *fakeAdapter) Family() domain.VenueFamily { return f.family }

func (f *fakeAdapter) TryQuote(_ context.Context, _ StateView, in, out *asset.Asset) (*big.Int, bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, false, f.err
	}
	price, ok := f.quotes[pk(in, out)]
	if !ok {
		return nil, false, nil
	}
	return new(big.Int).Set(price), true, nil
}

// fakeUnwraps serves fixed unwrap links keyed by wrapped asset.
type fakeUnwraps struct {
	links map[asset.AssetID]*domain.Unwrap
}

func (f *fakeUnwraps) TryUnwrap(_ context.Context, _ StateView, a *asset.Asset) (*domain.Unwrap, bool, error) {
	if f.links == nil {
		return nil, false, nil
	}
	uw, ok := f.links[a.ID()]
	if !ok {
		return nil, false, nil
	}
	return uw, true, nil
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newResolver(adapters []VenueAdapter, unwraps UnwrapSource, pivots []*asset.Asset) *PathResolver {
	return NewPathResolver(testLogger(), adapters, unwraps, domain.DefaultFamilyPriority, pivots, DefaultDepthBudget)
}

func TestResolve_Identity(t *testing.T) {
	r := newResolver(nil, &fakeUnwraps{}, nil)
	view := &fakeView{}

	for _, a := range []*asset.Asset{asset.DAI, asset.USDC, asset.WETH, asset.CDAI} {
		got, err := r.Resolve(context.Background(), view, a, a)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): unexpected error %v", a.Symbol(), a.Symbol(), err)
		}
		if got.Cmp(fp("1")) != 0 {
			t.Errorf("Resolve(%s, %s) = %s, want 1e18", a.Symbol(), a.Symbol(), got)
		}
	}
}

func TestResolve_Determinism(t *testing.T) {
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("0.9997"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, nil)
	view := &fakeView{}

	first, err := r.Resolve(context.Background(), view, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), view, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first.Cmp(second) != 0 {
		t.Errorf("Resolve not deterministic: %s then %s", first, second)
	}
}

func TestResolve_ReciprocalWithinTolerance(t *testing.T) {
	// A real constant-product pool has spread, so the round trip is close to
	// one but not exactly one.
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.WETH, asset.DAI): fp("1999.4"),
			pk(asset.DAI, asset.WETH): fp("0.000500002"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, nil)
	view := &fakeView{}

	fwd, err := r.Resolve(context.Background(), view, asset.WETH, asset.DAI)
	if err != nil {
		t.Fatalf("forward Resolve: %v", err)
	}
	back, err := r.Resolve(context.Background(), view, asset.DAI, asset.WETH)
	if err != nil {
		t.Fatalf("backward Resolve: %v", err)
	}

	product := asset.MulFixed(fwd, back)
	diff := new(big.Int).Sub(product, fp("1"))
	diff.Abs(diff)

	tolerance := fp("0.001")
	if diff.Cmp(tolerance) > 0 {
		t.Errorf("round trip %s deviates from 1e18 by %s, tolerance %s", product, diff, tolerance)
	}
}

func TestResolve_FamilyPriorityWins(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1.0003"),
		},
	}
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("0.9991"),
		},
	}

	// Adapter registration order must not matter, only the priority list.
	r := newResolver([]VenueAdapter{cp, stable}, &fakeUnwraps{}, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("1.0003")) != 0 {
		t.Errorf("Resolve = %s, want the stable-swap quote 1.0003e18", got)
	}
	if n := cp.calls.Load(); n != 0 {
		t.Errorf("constant-product adapter was queried %d times before the higher-priority family answered", n)
	}
}

func TestResolve_UnwrapComposition(t *testing.T) {
	rate := fp("1.0421")
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.WETH): fp("0.0005"),
		},
	}
	unwraps := &fakeUnwraps{links: map[asset.AssetID]*domain.Unwrap{
		asset.ADAI.ID(): {
			Underlying: asset.DAI,
			Rate:       rate,
			Direction:  domain.WrappedToUnderlying,
			Kind:       domain.RateOneToOne,
		},
	}}
	r := newResolver([]VenueAdapter{cp}, unwraps, nil)
	view := &fakeView{}

	underlying, err := r.Resolve(context.Background(), view, asset.DAI, asset.WETH)
	if err != nil {
		t.Fatalf("Resolve(DAI, WETH): %v", err)
	}
	wrapped, err := r.Resolve(context.Background(), view, asset.ADAI, asset.WETH)
	if err != nil {
		t.Fatalf("Resolve(aDAI, WETH): %v", err)
	}

	want := asset.MulFixed(rate, underlying)
	if wrapped.Cmp(want) != 0 {
		t.Errorf("Resolve(aDAI, WETH) = %s, want rate*Resolve(DAI, WETH) = %s", wrapped, want)
	}
}

func TestResolve_UnwrapOutputSide(t *testing.T) {
	// price(DAI -> aDAI) = price(DAI -> DAI) / rate = 1 / rate.
	rate := fp("1.25")
	unwraps := &fakeUnwraps{links: map[asset.AssetID]*domain.Unwrap{
		asset.ADAI.ID(): {
			Underlying: asset.DAI,
			Rate:       rate,
			Direction:  domain.WrappedToUnderlying,
			Kind:       domain.RateOneToOne,
		},
	}}
	r := newResolver(nil, unwraps, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.ADAI)
	if err != nil {
		t.Fatalf("Resolve(DAI, aDAI): %v", err)
	}
	if got.Cmp(fp("0.8")) != 0 {
		t.Errorf("Resolve(DAI, aDAI) = %s, want 0.8e18", got)
	}
}

func TestResolve_PivotFallback(t *testing.T) {
	tokenX := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x1000000000000000000000000000000000000001"), "TOKX", "Token X", 18)
	tokenY := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x1000000000000000000000000000000000000002"), "TOKY", "Token Y", 18)

	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(tokenX, asset.WETH): fp("3.5"),
			pk(asset.WETH, tokenY): fp("41"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, []*asset.Asset{asset.WETH, asset.DAI})
	view := &fakeView{}

	legA, err := r.Resolve(context.Background(), view, tokenX, asset.WETH)
	if err != nil {
		t.Fatalf("Resolve(TOKX, WETH): %v", err)
	}
	legB, err := r.Resolve(context.Background(), view, asset.WETH, tokenY)
	if err != nil {
		t.Fatalf("Resolve(WETH, TOKY): %v", err)
	}

	got, err := r.Resolve(context.Background(), view, tokenX, tokenY)
	if err != nil {
		t.Fatalf("Resolve(TOKX, TOKY): %v", err)
	}
	want := asset.MulFixed(legA, legB)
	if got.Cmp(want) != 0 {
		t.Errorf("Resolve(TOKX, TOKY) = %s, want legA*legB = %s", got, want)
	}
}

func TestResolve_UnwrapRateQuotedWrappedPerUnderlying(t *testing.T) {
	// The link's oracle quotes wrapped-per-underlying, so composing must use
	// the arithmetic inverse: price(aDAI -> USDC) = (1/2) * price(DAI -> USDC).
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1"),
		},
	}
	unwraps := &fakeUnwraps{links: map[asset.AssetID]*domain.Unwrap{
		asset.ADAI.ID(): {
			Underlying: asset.DAI,
			Rate:       fp("2"),
			Direction:  domain.UnderlyingToWrapped,
			Kind:       domain.RateExchangeRate,
		},
	}}
	r := newResolver([]VenueAdapter{stable}, unwraps, nil)
	view := &fakeView{}

	got, err := r.Resolve(context.Background(), view, asset.ADAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve(aDAI, USDC): %v", err)
	}
	if got.Cmp(fp("0.5")) != 0 {
		t.Errorf("Resolve(aDAI, USDC) = %s, want 0.5e18", got)
	}

	// Output side: price(DAI -> aDAI) = price(DAI -> DAI) / (1/2) = 2.
	got, err = r.Resolve(context.Background(), view, asset.DAI, asset.ADAI)
	if err != nil {
		t.Fatalf("Resolve(DAI, aDAI): %v", err)
	}
	if got.Cmp(fp("2")) != 0 {
		t.Errorf("Resolve(DAI, aDAI) = %s, want 2e18", got)
	}
}

func TestResolve_PivotLegHopsThroughSecondPivot(t *testing.T) {
	// No single pivot connects X and Y, but X -> DAI -> WETH -> Y does. The
	// first leg of the WETH hop must itself be allowed to hop through DAI,
	// with the depth budget alone bounding the search.
	tokenX := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x5000000000000000000000000000000000000006"), "TOKX", "Token X", 18)
	tokenY := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x5000000000000000000000000000000000000007"), "TOKY", "Token Y", 18)

	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(tokenX, asset.DAI):     fp("2000"),
			pk(asset.DAI, asset.WETH): fp("0.0005"),
			pk(asset.WETH, tokenY):    fp("41"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, []*asset.Asset{asset.WETH, asset.DAI})

	got, err := r.Resolve(context.Background(), &fakeView{}, tokenX, tokenY)
	if err != nil {
		t.Fatalf("Resolve(TOKX, TOKY): %v", err)
	}
	if got.Cmp(fp("41")) != 0 {
		t.Errorf("Resolve(TOKX, TOKY) = %s, want 2000 * 0.0005 * 41 = 41e18", got)
	}
}

func TestResolve_DepthExceeded(t *testing.T) {
	// A chain of wrapped-on-wrapped assets longer than the budget must fail
	// with a depth error rather than recurse forever.
	chain := make([]*asset.Asset, 6)
	for i := range chain {
		addr := common.BigToAddress(big.NewInt(int64(0x2000 + i)))
		chain[i] = asset.MustNewToken(asset.ChainIDEthereum, addr, "W", "Wrapper", 18)
	}

	links := make(map[asset.AssetID]*domain.Unwrap)
	for i := 0; i < len(chain)-1; i++ {
		links[chain[i].ID()] = &domain.Unwrap{
			Underlying: chain[i+1],
			Rate:       fp("1"),
			Direction:  domain.WrappedToUnderlying,
			Kind:       domain.RateOneToOne,
		}
	}

	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(chain[len(chain)-1], asset.USDC): fp("1"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{links: links}, nil)

	_, err := r.Resolve(context.Background(), &fakeView{}, chain[0], asset.USDC)
	if err == nil {
		t.Fatal("Resolve succeeded, want depth error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeDepthExceeded {
		t.Errorf("error code = %s, want %s", code, apperror.CodeDepthExceeded)
	}
}

func TestResolve_NoPath(t *testing.T) {
	unlisted := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x3000000000000000000000000000000000000003"), "JUNK", "Unlisted", 18)

	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, []*asset.Asset{asset.WETH, asset.DAI, asset.USDC})

	_, err := r.Resolve(context.Background(), &fakeView{}, unlisted, asset.USDC)
	if err == nil {
		t.Fatal("Resolve succeeded, want no-path error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeNoPricePath {
		t.Errorf("error code = %s, want %s", code, apperror.CodeNoPricePath)
	}
}

func TestResolve_ZeroRateSurfacedLast(t *testing.T) {
	// The only candidate quotes zero, so the final error must name the zero
	// rate rather than claim there was no path at all.
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): big.NewInt(0),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, nil)

	_, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.USDC)
	if err == nil {
		t.Fatal("Resolve succeeded, want zero-rate error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeZeroRate {
		t.Errorf("error code = %s, want %s", code, apperror.CodeZeroRate)
	}
}

func TestResolve_ZeroRateFallsBackToNextFamily(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): big.NewInt(0),
		},
	}
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("0.9995"),
		},
	}
	r := newResolver([]VenueAdapter{stable, cp}, &fakeUnwraps{}, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("0.9995")) != 0 {
		t.Errorf("Resolve = %s, want fallback quote 0.9995e18", got)
	}
}

func TestResolve_AdapterErrorFallsThrough(t *testing.T) {
	broken := &fakeAdapter{
		family: domain.FamilyStableSwap,
		err:    errors.New("rpc: connection refused"),
	}
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("0.9999"),
		},
	}
	r := newResolver([]VenueAdapter{broken, cp}, &fakeUnwraps{}, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("0.9999")) != 0 {
		t.Errorf("Resolve = %s, want 0.9999e18 from the healthy family", got)
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, &fakeView{}, asset.DAI, asset.USDC)
	if err == nil {
		t.Fatal("Resolve succeeded with cancelled context")
	}
	if code := apperror.GetCode(err); code != apperror.CodeResolutionTimeout {
		t.Errorf("error code = %s, want %s", code, apperror.CodeResolutionTimeout)
	}
}

// End-to-end scenarios with literal expected values.

func TestResolve_StablePoolSkew(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1.0005"),
		},
	}
	r := newResolver([]VenueAdapter{stable}, &fakeUnwraps{}, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.DAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("1.0005")) != 0 {
		t.Errorf("Resolve(DAI, USDC) = %s, want exactly 1.0005e18", got)
	}
}

func TestResolve_LendingReceiptThroughUnderlying(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1"),
		},
	}
	unwraps := &fakeUnwraps{links: map[asset.AssetID]*domain.Unwrap{
		asset.CDAI.ID(): {
			Underlying: asset.DAI,
			Rate:       fp("0.020015"),
			Direction:  domain.WrappedToUnderlying,
			Kind:       domain.RateExchangeRate,
		},
	}}
	r := newResolver([]VenueAdapter{stable}, unwraps, nil)

	got, err := r.Resolve(context.Background(), &fakeView{}, asset.CDAI, asset.USDC)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("0.020015")) != 0 {
		t.Errorf("Resolve(cDAI, USDC) = %s, want exactly 0.020015e18", got)
	}
}

func TestResolve_PivotOnlyPathExactProduct(t *testing.T) {
	tokenX := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x4000000000000000000000000000000000000004"), "TOKX", "Token X", 18)
	tokenY := asset.MustNewToken(asset.ChainIDEthereum, common.HexToAddress("0x4000000000000000000000000000000000000005"), "TOKY", "Token Y", 18)

	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(tokenX, asset.WETH): fp("2000"),
			pk(asset.WETH, tokenY): fp("0.0005"),
		},
	}
	r := newResolver([]VenueAdapter{cp}, &fakeUnwraps{}, []*asset.Asset{asset.WETH, asset.DAI, asset.USDC, asset.WBTC})

	got, err := r.Resolve(context.Background(), &fakeView{}, tokenX, tokenY)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Cmp(fp("1")) != 0 {
		t.Errorf("Resolve(TOKX, TOKY) = %s, want exactly 1.0e18", got)
	}
}
