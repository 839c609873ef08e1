package asset_test

import (
	"math/big"
	"testing"

	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/shopspring/decimal"
)

func TestAmount_ToDecimal(t *testing.T) {
	tests := []struct {
		name  string
		asset *asset.Asset
		raw   *big.Int
		want  decimal.Decimal
	}{
		{"one ether", asset.WETH, big.NewInt(1e18), decimal.NewFromInt(1)},
		{"half ether", asset.WETH, big.NewInt(5e17), decimal.NewFromFloat(0.5)},
		{"one usdc", asset.USDC, big.NewInt(1e6), decimal.NewFromInt(1)},
		{"one satoshi of wbtc", asset.WBTC, big.NewInt(1), decimal.NewFromFloat(0.00000001)},
		{"zero", asset.DAI, big.NewInt(0), decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := asset.NewAmount(tt.asset, tt.raw)
			if got := a.ToDecimal(); !got.Equal(tt.want) {
				t.Errorf("ToDecimal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmount_Arithmetic(t *testing.T) {
	one := asset.NewAmount(asset.DAI, big.NewInt(1e18))
	two := asset.NewAmount(asset.DAI, big.NewInt(2e18))

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("1 + 2 = %s, want 3", sum.ToDecimal())
	}

	diff, err := two.Sub(one)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if !diff.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("2 - 1 = %s, want 1", diff.ToDecimal())
	}

	if _, err := one.Sub(two); err == nil {
		t.Error("Sub below zero should fail")
	}
}

func TestAmount_RejectsMixedAssets(t *testing.T) {
	dai := asset.NewAmount(asset.DAI, big.NewInt(1e18))
	usdc := asset.NewAmount(asset.USDC, big.NewInt(1e6))

	if _, err := dai.Add(usdc); err == nil {
		t.Error("Add across assets should fail")
	}
	if _, err := dai.Sub(usdc); err == nil {
		t.Error("Sub across assets should fail")
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		asset   *asset.Asset
		input   string
		wantRaw string
		wantErr bool
	}{
		{"whole ether", asset.WETH, "2", "2000000000000000000", false},
		{"fractional ether", asset.WETH, "1.5", "1500000000000000000", false},
		{"usdc at full precision", asset.USDC, "0.000001", "1", false},
		{"usdc past six decimals", asset.USDC, "1.1234567", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			if err != nil {
				t.Fatalf("bad input %q: %v", tt.input, err)
			}

			a, err := asset.ParseDecimal(tt.asset, d)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal: %v", err)
			}
			if a.Raw().String() != tt.wantRaw {
				t.Errorf("raw = %s, want %s", a.Raw(), tt.wantRaw)
			}
		})
	}
}

func TestPrice_Convert(t *testing.T) {
	// WETH/USDC at 2000 converts across the 18->6 decimal gap
	price := asset.NewPriceNow(asset.WETH, asset.USDC, decimal.NewFromInt(2000))
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	got, err := price.Convert(oneWETH)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.ToDecimal().Equal(decimal.NewFromInt(2000)) {
		t.Errorf("1 WETH = %s USDC, want 2000", got.ToDecimal())
	}
	if got.Asset() != asset.USDC {
		t.Errorf("converted asset = %s, want USDC", got.Asset().Symbol())
	}
}

func TestPrice_Invert(t *testing.T) {
	price := asset.NewPriceNow(asset.WETH, asset.USDC, decimal.NewFromInt(2000))
	inv := price.Invert()

	want := decimal.NewFromFloat(0.0005)
	if diff := inv.Rate().Sub(want).Abs(); diff.GreaterThan(decimal.NewFromFloat(1e-9)) {
		t.Errorf("inverted rate = %s, want ~%s", inv.Rate(), want)
	}
	if inv.Base() != asset.USDC || inv.Quote() != asset.WETH {
		t.Errorf("inverted pair = %s, want USDC/WETH", inv.Pair())
	}
}

func TestAssetID_ChainScoped(t *testing.T) {
	mainnet := asset.NewTokenAssetID(asset.ChainIDEthereum, asset.AddrUSDCEthereum)
	again := asset.NewTokenAssetID(asset.ChainIDEthereum, asset.AddrUSDCEthereum)
	polygon := asset.NewTokenAssetID(asset.ChainIDPolygon, asset.AddrUSDCEthereum)

	if !mainnet.Equals(again) {
		t.Error("same chain and address should be equal")
	}
	if mainnet.Equals(polygon) {
		t.Error("same address on another chain must be a distinct asset")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	eth, ok := r.GetNative(asset.ChainIDEthereum)
	if !ok {
		t.Fatal("native asset missing from default registry")
	}
	if eth.Symbol() != "ETH" {
		t.Errorf("native symbol = %s, want ETH", eth.Symbol())
	}

	for _, tc := range []struct {
		symbol   string
		decimals uint8
	}{
		{"USDC", 6},
		{"cDAI", 8},
		{"sUSD", 18},
		{"3Crv", 18},
	} {
		a, ok := r.GetBySymbolAndChain(tc.symbol, asset.ChainIDEthereum)
		if !ok {
			t.Errorf("%s missing from default registry", tc.symbol)
			continue
		}
		if a.Decimals() != tc.decimals {
			t.Errorf("%s decimals = %d, want %d", tc.symbol, a.Decimals(), tc.decimals)
		}
	}
}
