package unwrap

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

func fp(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(asset.PricePrecision).BigInt()
}

// fakeView answers every contract read with one fixed uint256 and records
// how often it was asked.
type fakeView struct {
	value *big.Int
	calls int
}

func (v *fakeView) BlockNumber() *big.Int { return nil }

func (v *fakeView) Call(_ context.Context, _ common.Address, _ []byte) ([]byte, error) {
	v.calls++
	if v.value == nil {
		return nil, errors.New("no value configured")
	}
	return common.LeftPadBytes(v.value.Bytes(), 32), nil
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestRegistry(t *testing.T, links []config.UnwrapLink) *Registry {
	t.Helper()
	r, err := NewRegistry(config.UnwrapConfig{Links: links}, asset.DefaultRegistry(), asset.ChainIDEthereum, testLogger())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestNormalizeExchangeRate(t *testing.T) {
	tests := []struct {
		name               string
		raw                string
		wrappedDecimals    uint8
		underlyingDecimals uint8
		want               string
	}{
		// cDAI: stored scale 1e28, true rate 0.020015 DAI per cDAI.
		{name: "cdai", raw: "200150000000000000000000000", wrappedDecimals: 8, underlyingDecimals: 18, want: "0.020015"},
		// cUSDC: stored scale 1e16, true rate 0.023 USDC per cUSDC.
		{name: "cusdc", raw: "230000000000000", wrappedDecimals: 8, underlyingDecimals: 6, want: "0.023"},
		{name: "equal_decimals", raw: "1500000000000000000", wrappedDecimals: 18, underlyingDecimals: 18, want: "1.5"},
		{name: "zero", raw: "0", wrappedDecimals: 8, underlyingDecimals: 18, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := new(big.Int).SetString(tt.raw, 10)
			if !ok {
				t.Fatalf("bad raw value %q", tt.raw)
			}

			got := NormalizeExchangeRate(raw, tt.wrappedDecimals, tt.underlyingDecimals)
			if got.Cmp(fp(tt.want)) != 0 {
				t.Errorf("NormalizeExchangeRate(%s, %d, %d) = %s, want %s",
					tt.raw, tt.wrappedDecimals, tt.underlyingDecimals, got, fp(tt.want))
			}
		})
	}
}

func TestTryUnwrap_OneToOne(t *testing.T) {
	r := newTestRegistry(t, []config.UnwrapLink{{
		Wrapped:    asset.AddrADAIEthereum.Hex(),
		Underlying: asset.AddrDAIEthereum.Hex(),
		Kind:       "one_to_one",
	}})
	view := &fakeView{}

	uw, ok, err := r.TryUnwrap(context.Background(), view, asset.ADAI)
	if err != nil || !ok {
		t.Fatalf("TryUnwrap(aDAI) = ok %v, err %v", ok, err)
	}
	if !uw.Underlying.Equals(asset.DAI) {
		t.Errorf("underlying = %s, want DAI", uw.Underlying.Symbol())
	}
	if uw.Rate.Cmp(fp("1")) != 0 {
		t.Errorf("rate = %s, want exactly 1e18", uw.Rate)
	}
	if view.calls != 0 {
		t.Errorf("one_to_one made %d contract reads, want 0", view.calls)
	}
}

func TestTryUnwrap_ExchangeRate(t *testing.T) {
	r := newTestRegistry(t, []config.UnwrapLink{{
		Wrapped:    asset.AddrCDAIEthereum.Hex(),
		Underlying: asset.AddrDAIEthereum.Hex(),
		Kind:       "exchange_rate",
	}})

	raw, _ := new(big.Int).SetString("200150000000000000000000000", 10)
	view := &fakeView{value: raw}

	uw, ok, err := r.TryUnwrap(context.Background(), view, asset.CDAI)
	if err != nil || !ok {
		t.Fatalf("TryUnwrap(cDAI) = ok %v, err %v", ok, err)
	}
	if uw.Rate.Cmp(fp("0.020015")) != 0 {
		t.Errorf("rate = %s, want 0.020015e18", uw.Rate)
	}
	if uw.Direction != domain.WrappedToUnderlying {
		t.Errorf("direction = %v, want WrappedToUnderlying", uw.Direction)
	}
}

func TestTryUnwrap_SharePrice(t *testing.T) {
	r := newTestRegistry(t, []config.UnwrapLink{{
		Wrapped:    asset.AddrYVUSDCEthereum.Hex(),
		Underlying: asset.AddrUSDCEthereum.Hex(),
		Kind:       "share_price",
	}})

	// pricePerShare in the underlying's 6-decimal precision: 1.047321 USDC.
	view := &fakeView{value: big.NewInt(1_047_321)}

	uw, ok, err := r.TryUnwrap(context.Background(), view, asset.YVUSDC)
	if err != nil || !ok {
		t.Fatalf("TryUnwrap(yvUSDC) = ok %v, err %v", ok, err)
	}
	if uw.Rate.Cmp(fp("1.047321")) != 0 {
		t.Errorf("rate = %s, want 1.047321e18", uw.Rate)
	}
}

func TestTryUnwrap_PoolVirtualPrice(t *testing.T) {
	r := newTestRegistry(t, []config.UnwrapLink{{
		Wrapped:    asset.AddrCRV3Ethereum.Hex(),
		Underlying: asset.AddrDAIEthereum.Hex(),
		Kind:       "pool_virtual_price",
		Source:     asset.AddrCurve3PoolEthereum.Hex(),
	}})

	view := &fakeView{value: fp("1.0182")}

	uw, ok, err := r.TryUnwrap(context.Background(), view, asset.CRV3)
	if err != nil || !ok {
		t.Fatalf("TryUnwrap(3Crv) = ok %v, err %v", ok, err)
	}
	if uw.Rate.Cmp(fp("1.0182")) != 0 {
		t.Errorf("rate = %s, want the virtual price unchanged", uw.Rate)
	}
}

func TestTryUnwrap_NoLink(t *testing.T) {
	r := newTestRegistry(t, nil)

	uw, ok, err := r.TryUnwrap(context.Background(), &fakeView{}, asset.DAI)
	if err != nil {
		t.Fatalf("TryUnwrap(DAI): %v", err)
	}
	if ok || uw != nil {
		t.Errorf("TryUnwrap(DAI) = %v, ok %v; base assets have no link", uw, ok)
	}
}

func TestTryUnwrap_RateFetchFailure(t *testing.T) {
	r := newTestRegistry(t, []config.UnwrapLink{{
		Wrapped:    asset.AddrCDAIEthereum.Hex(),
		Underlying: asset.AddrDAIEthereum.Hex(),
		Kind:       "exchange_rate",
	}})

	// fakeView without a value fails every read.
	_, ok, err := r.TryUnwrap(context.Background(), &fakeView{}, asset.CDAI)
	if err == nil {
		t.Fatal("TryUnwrap succeeded with a failing rate source")
	}
	if ok {
		t.Error("ok = true alongside an error")
	}
	if code := apperror.GetCode(err); code != apperror.CodeUnwrapRateFailed {
		t.Errorf("error code = %s, want %s", code, apperror.CodeUnwrapRateFailed)
	}
}

func TestNewRegistry_RejectsCycle(t *testing.T) {
	_, err := NewRegistry(config.UnwrapConfig{Links: []config.UnwrapLink{
		{Wrapped: asset.AddrCDAIEthereum.Hex(), Underlying: asset.AddrADAIEthereum.Hex(), Kind: "one_to_one"},
		{Wrapped: asset.AddrADAIEthereum.Hex(), Underlying: asset.AddrCDAIEthereum.Hex(), Kind: "one_to_one"},
	}}, asset.DefaultRegistry(), asset.ChainIDEthereum, testLogger())

	if err == nil {
		t.Fatal("NewRegistry accepted a cyclic link set")
	}
	if code := apperror.GetCode(err); code != apperror.CodeUnwrapCycle {
		t.Errorf("error code = %s, want %s", code, apperror.CodeUnwrapCycle)
	}
}

func TestNewRegistry_RequiresPoolSource(t *testing.T) {
	_, err := NewRegistry(config.UnwrapConfig{Links: []config.UnwrapLink{
		{Wrapped: asset.AddrCRV3Ethereum.Hex(), Underlying: asset.AddrDAIEthereum.Hex(), Kind: "pool_virtual_price"},
	}}, asset.DefaultRegistry(), asset.ChainIDEthereum, testLogger())

	if err == nil {
		t.Fatal("NewRegistry accepted a pool_virtual_price link without a source")
	}
}
