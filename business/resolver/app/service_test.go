package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/ratelimit"
)

type fakeProvider struct {
	view  StateView
	calls int
}

func (f *fakeProvider) Snapshot(_ context.Context) (StateView, error) {
	f.calls++
	return f.view, nil
}

func newTestService(adapters []VenueAdapter, unwraps UnwrapSource, pivots []*asset.Asset) (*PriceService, *fakeProvider) {
	provider := &fakeProvider{view: &fakeView{block: big.NewInt(19_000_000)}}
	resolver := newResolver(adapters, unwraps, pivots)
	limiter := ratelimit.NewWithBurst(1000, 1000)

	svc := NewPriceService(testLogger(), asset.DefaultRegistry(), provider, resolver, limiter, asset.ChainIDEthereum)
	return svc, provider
}

func TestCanonicalize(t *testing.T) {
	svc, _ := newTestService(nil, &fakeUnwraps{}, nil)

	tests := []struct {
		name       string
		raw        string
		wantSymbol string
		wantCode   apperror.Code
	}{
		{name: "symbol", raw: "DAI", wantSymbol: "DAI"},
		{name: "symbol_lowercase", raw: "dai", wantSymbol: "DAI"},
		{name: "symbol_mixed_case", raw: "yvusdc", wantSymbol: "yvUSDC"},
		{name: "symbol_padded", raw: "  USDC ", wantSymbol: "USDC"},
		{name: "address_checksummed", raw: "0x6B175474E89094C44Da98b954EedeAC495271d0F", wantSymbol: "DAI"},
		{name: "address_lowercase", raw: "0x6b175474e89094c44da98b954eedeac495271d0f", wantSymbol: "DAI"},
		{name: "native_alias_folds_to_wrapped", raw: "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", wantSymbol: "WETH"},
		{name: "native_symbol_folds_to_wrapped", raw: "ETH", wantSymbol: "WETH"},
		{name: "unregistered_address_is_adhoc", raw: "0x9000000000000000000000000000000000000009", wantSymbol: "0x9000000000000000000000000000000000000009"},
		{name: "empty", raw: "", wantCode: apperror.CodeInvalidAsset},
		{name: "blank", raw: "   ", wantCode: apperror.CodeInvalidAsset},
		{name: "malformed_hex", raw: "0x1234", wantCode: apperror.CodeInvalidAsset},
		{name: "non_hex_garbage", raw: "0xZZ175474E89094C44Da98b954EedeAC495271d0F", wantCode: apperror.CodeInvalidAsset},
		{name: "unknown_symbol", raw: "NOPE", wantCode: apperror.CodeInvalidAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Canonicalize(tt.raw)

			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("Canonicalize(%q) = %s, want error code %s", tt.raw, got.Symbol(), tt.wantCode)
				}
				if code := apperror.GetCode(err); code != tt.wantCode {
					t.Errorf("Canonicalize(%q) error code = %s, want %s", tt.raw, code, tt.wantCode)
				}
				return
			}

			if err != nil {
				t.Fatalf("Canonicalize(%q): %v", tt.raw, err)
			}
			if got.Symbol() != tt.wantSymbol {
				t.Errorf("Canonicalize(%q) = %s, want %s", tt.raw, got.Symbol(), tt.wantSymbol)
			}
		})
	}
}

func TestCanonicalize_CaseVariantsAreSameAsset(t *testing.T) {
	svc, _ := newTestService(nil, &fakeUnwraps{}, nil)

	a, err := svc.Canonicalize("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	if err != nil {
		t.Fatalf("Canonicalize checksummed: %v", err)
	}
	b, err := svc.Canonicalize("0x6B175474E89094C44DA98B954EEDEAC495271D0F")
	if err != nil {
		t.Fatalf("Canonicalize uppercase: %v", err)
	}
	if !a.Equals(b) {
		t.Errorf("case variants resolved to different assets: %s vs %s", a.ID(), b.ID())
	}
}

func TestGetPrice(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1.0005"),
		},
	}
	svc, provider := newTestService([]VenueAdapter{stable}, &fakeUnwraps{}, nil)

	quote, err := svc.GetPrice(context.Background(), "DAI", "USDC")
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}

	if quote.Price.Cmp(fp("1.0005")) != 0 {
		t.Errorf("Price = %s, want 1.0005e18", quote.Price)
	}
	if quote.TokenIn.Symbol() != "DAI" || quote.TokenOut.Symbol() != "USDC" {
		t.Errorf("pair = %s/%s, want DAI/USDC", quote.TokenIn.Symbol(), quote.TokenOut.Symbol())
	}
	if quote.Block == nil || quote.Block.Int64() != 19_000_000 {
		t.Errorf("Block = %v, want the snapshot block", quote.Block)
	}
	if provider.calls != 1 {
		t.Errorf("provider.calls = %d, want 1", provider.calls)
	}
}

func TestQuote_AsPrice(t *testing.T) {
	cp := &fakeAdapter{
		family: domain.FamilyConstantProduct,
		quotes: map[pairKey]*big.Int{
			pk(asset.WETH, asset.USDC): fp("2000.5"),
		},
	}
	svc, _ := newTestService([]VenueAdapter{cp}, &fakeUnwraps{}, nil)

	quote, err := svc.GetPrice(context.Background(), "WETH", "USDC")
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}

	price := quote.AsPrice()
	if !price.Rate().Equal(decimal.RequireFromString("2000.5")) {
		t.Errorf("Rate = %s, want 2000.5", price.Rate())
	}
	if price.Pair() != "WETH/USDC" {
		t.Errorf("Pair = %s, want WETH/USDC", price.Pair())
	}

	// Converting one whole WETH lands in USDC's own 6-decimal precision.
	one, err := asset.ParseDecimal(quote.TokenIn, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	value, err := price.Convert(one)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !value.ToDecimal().Equal(decimal.RequireFromString("2000.5")) {
		t.Errorf("1 WETH = %s, want 2000.5 USDC", value.ToDecimal())
	}
	if value.Asset() != asset.USDC {
		t.Errorf("converted asset = %s, want USDC", value.Asset().Symbol())
	}
}

func TestGetPrice_InvalidAssetFailsBeforeSnapshot(t *testing.T) {
	svc, provider := newTestService(nil, &fakeUnwraps{}, nil)

	_, err := svc.GetPrice(context.Background(), "0x1234", "USDC")
	if err == nil {
		t.Fatal("GetPrice succeeded with a malformed address")
	}
	if code := apperror.GetCode(err); code != apperror.CodeInvalidAsset {
		t.Errorf("error code = %s, want %s", code, apperror.CodeInvalidAsset)
	}
	if provider.calls != 0 {
		t.Errorf("provider.calls = %d, want 0 for an input-validation failure", provider.calls)
	}
}

func TestGetPrices(t *testing.T) {
	stable := &fakeAdapter{
		family: domain.FamilyStableSwap,
		quotes: map[pairKey]*big.Int{
			pk(asset.DAI, asset.USDC): fp("1.0005"),
			pk(asset.USDC, asset.DAI): fp("0.9995"),
		},
	}
	svc, provider := newTestService([]VenueAdapter{stable}, &fakeUnwraps{}, nil)

	results, err := svc.GetPrices(context.Background(), []PairRequest{
		{TokenIn: "DAI", TokenOut: "USDC"},
		{TokenIn: "bogus-symbol", TokenOut: "USDC"},
		{TokenIn: "USDC", TokenOut: "DAI"},
	})
	if err != nil {
		t.Fatalf("GetPrices: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if results[0].Err != nil {
		t.Errorf("results[0] failed: %v", results[0].Err)
	} else if results[0].Quote.Price.Cmp(fp("1.0005")) != 0 {
		t.Errorf("results[0].Price = %s, want 1.0005e18", results[0].Quote.Price)
	}

	if results[1].Err == nil {
		t.Error("results[1] succeeded, want invalid-asset error")
	} else if code := apperror.GetCode(results[1].Err); code != apperror.CodeInvalidAsset {
		t.Errorf("results[1] error code = %s, want %s", code, apperror.CodeInvalidAsset)
	}

	if results[2].Err != nil {
		t.Errorf("results[2] failed: %v", results[2].Err)
	} else if results[2].Quote.Price.Cmp(fp("0.9995")) != 0 {
		t.Errorf("results[2].Price = %s, want 0.9995e18", results[2].Quote.Price)
	}

	// One pinned snapshot shared across the whole batch.
	if provider.calls != 1 {
		t.Errorf("provider.calls = %d, want 1", provider.calls)
	}
}

func TestGetPrices_Empty(t *testing.T) {
	svc, provider := newTestService(nil, &fakeUnwraps{}, nil)

	results, err := svc.GetPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetPrices(nil): %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
	if provider.calls != 0 {
		t.Errorf("provider.calls = %d, want 0", provider.calls)
	}
}
