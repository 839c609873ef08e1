// Package app contains application services and port definitions for the
// price resolution context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/internal/asset"
)

// StateView is a consistent snapshot of external chain state. Every read a
// single resolution performs goes through one view, so composed prices are
// observed at the same block.
type StateView interface {
	// BlockNumber returns the pinned block, or nil for latest.
	BlockNumber() *big.Int

	// Call executes a read-only contract call against the snapshot.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// SnapshotProvider produces StateViews pinned to the current head.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (StateView, error)
}

// VenueAdapter answers direct quotes for one liquidity-venue family.
//
// TryQuote returns the 18-decimal fixed-point price of tokenOut per one
// normalized unit of tokenIn. ok is false when this family does not cover the
// pair. A degenerate venue (zero reserves, zero rate) reports a zero price
// with ok true, so the resolver can distinguish "unusable source" from "no
// source". err is reserved for infrastructure faults (RPC failure, context
// cancellation) - the resolver treats those as "try the next candidate"
// unless the context itself is done.
type VenueAdapter interface {
	Family() domain.VenueFamily
	TryQuote(ctx context.Context, view StateView, tokenIn, tokenOut *asset.Asset) (price *big.Int, ok bool, err error)
}

// UnwrapSource resolves wrapped assets to their underlying plus a live
// conversion rate. ok is false when the asset has no link (it is a base
// asset, not an error).
type UnwrapSource interface {
	TryUnwrap(ctx context.Context, view StateView, a *asset.Asset) (unwrap *domain.Unwrap, ok bool, err error)
}
