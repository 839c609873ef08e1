package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/babylon-finance/price-resolver/internal/asset"
)

// RateKind identifies how a wrapped asset's conversion rate is obtained.
type RateKind string

const (
	// RateOneToOne is an interest-bearing wrapper pegged 1:1; no external call.
	RateOneToOne RateKind = "one_to_one"

	// RateExchangeRate is a lending-receipt style rate fetched from the
	// originating protocol at call time (underlying per wrapped).
	RateExchangeRate RateKind = "exchange_rate"

	// RateSharePrice is a vault-share style rate (assets per share).
	RateSharePrice RateKind = "share_price"

	// RatePoolVirtualPrice prices a stable-pool LP token via the pool's own
	// virtual-price function against the pool's reference coin.
	RatePoolVirtualPrice RateKind = "pool_virtual_price"
)

// ParseRateKind parses a configured unwrap kind.
func ParseRateKind(s string) (RateKind, error) {
	switch RateKind(strings.ToLower(strings.TrimSpace(s))) {
	case RateOneToOne:
		return RateOneToOne, nil
	case RateExchangeRate:
		return RateExchangeRate, nil
	case RateSharePrice:
		return RateSharePrice, nil
	case RatePoolVirtualPrice:
		return RatePoolVirtualPrice, nil
	default:
		return "", fmt.Errorf("unknown unwrap rate kind: %q", s)
	}
}

// RateDirection says which way an unwrap rate converts. The two directions
// are not assumed to be exact reciprocals: a rate defined one way is inverted
// arithmetically when the other direction is needed, never via a second
// external call.
type RateDirection int

const (
	// WrappedToUnderlying: rate is "underlying per one wrapped unit".
	WrappedToUnderlying RateDirection = iota

	// UnderlyingToWrapped: rate is "wrapped per one underlying unit".
	UnderlyingToWrapped
)

// Unwrap is the result of a successful unwrap lookup: the underlying asset
// and the live conversion rate in 18-decimal fixed point.
type Unwrap struct {
	Underlying *asset.Asset
	Rate       *big.Int
	Direction  RateDirection
	Kind       RateKind
}
