package asset

import (
	"errors"
	"math/big"
)

// ErrZeroRate is returned when a fixed-point division hits a zero divisor.
// Callers treat it as "this source is unusable", not as a price of zero.
var ErrZeroRate = errors.New("asset: zero rate")

// One18 returns 1.0 in the engine's fixed-point representation.
func One18() *big.Int {
	return new(big.Int).Set(pricePrecisionMultiplier)
}

// MulFixed multiplies two 18-decimal fixed-point values: a * b / 1e18.
// The multiplication happens before the scale division so no precision is
// lost to intermediate truncation.
func MulFixed(a, b *big.Int) *big.Int {
	result := new(big.Int).Mul(a, b)
	return result.Div(result, pricePrecisionMultiplier)
}

// DivFixed divides two 18-decimal fixed-point values: a * 1e18 / b.
func DivFixed(a, b *big.Int) (*big.Int, error) {
	if b == nil || b.Sign() == 0 {
		return nil, ErrZeroRate
	}
	result := new(big.Int).Mul(a, pricePrecisionMultiplier)
	return result.Div(result, b), nil
}

// InvertFixed returns 1e18 * 1e18 / a, the fixed-point reciprocal.
func InvertFixed(a *big.Int) (*big.Int, error) {
	return DivFixed(pricePrecisionMultiplier, a)
}

// ScaleTo18 converts a raw on-chain quantity with the given intrinsic decimal
// precision into the 18-decimal fixed-point domain.
func ScaleTo18(raw *big.Int, decimals uint8) *big.Int {
	result := new(big.Int).Set(raw)
	switch {
	case decimals < PricePrecision:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(PricePrecision-decimals)), nil)
		result.Mul(result, shift)
	case decimals > PricePrecision:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-PricePrecision)), nil)
		result.Div(result, shift)
	}
	return result
}

// ScaleFrom18 converts an 18-decimal fixed-point value back into a raw
// quantity with the given intrinsic decimal precision.
func ScaleFrom18(fixed *big.Int, decimals uint8) *big.Int {
	result := new(big.Int).Set(fixed)
	switch {
	case decimals < PricePrecision:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(PricePrecision-decimals)), nil)
		result.Div(result, shift)
	case decimals > PricePrecision:
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-PricePrecision)), nil)
		result.Mul(result, shift)
	}
	return result
}
