package uniswap

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

// fakeFactoryView answers every getPair read with one fixed pair address and
// records how often the factory was asked.
type fakeFactoryView struct {
	pair  common.Address
	calls int
}

func (v *fakeFactoryView) BlockNumber() *big.Int { return big.NewInt(1) }

func (v *fakeFactoryView) Call(_ context.Context, _ common.Address, _ []byte) ([]byte, error) {
	v.calls++
	return common.LeftPadBytes(v.pair.Bytes(), 32), nil
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	cfg := config.UniswapConfig{FactoryAddress: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"}
	a, err := NewAdapter(cfg, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestFindPair_MissIsNotMemoized(t *testing.T) {
	a := newTestAdapter(t)
	view := &fakeFactoryView{} // factory knows no pair yet

	tokenA := common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB := common.HexToAddress("0x1000000000000000000000000000000000000002")

	pair, err := a.findPair(context.Background(), view, tokenA, tokenB)
	if err != nil {
		t.Fatalf("findPair: %v", err)
	}
	if pair != (common.Address{}) {
		t.Fatalf("pair = %s, want zero address", pair.Hex())
	}
	if view.calls != 1 {
		t.Fatalf("factory calls = %d, want 1", view.calls)
	}

	// The pair gets deployed between quotes; the next lookup must see it.
	deployed := common.HexToAddress("0x2000000000000000000000000000000000000003")
	view.pair = deployed

	pair, err = a.findPair(context.Background(), view, tokenA, tokenB)
	if err != nil {
		t.Fatalf("findPair after deployment: %v", err)
	}
	if pair != deployed {
		t.Fatalf("pair = %s, want %s", pair.Hex(), deployed.Hex())
	}
	if view.calls != 2 {
		t.Fatalf("factory calls = %d, want 2 (miss must not be memoized)", view.calls)
	}
}

func TestFindPair_DeployedPairIsMemoized(t *testing.T) {
	a := newTestAdapter(t)
	deployed := common.HexToAddress("0x2000000000000000000000000000000000000003")
	view := &fakeFactoryView{pair: deployed}

	tokenA := common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenB := common.HexToAddress("0x1000000000000000000000000000000000000002")

	for i := 0; i < 3; i++ {
		pair, err := a.findPair(context.Background(), view, tokenA, tokenB)
		if err != nil {
			t.Fatalf("findPair #%d: %v", i+1, err)
		}
		if pair != deployed {
			t.Fatalf("findPair #%d = %s, want %s", i+1, pair.Hex(), deployed.Hex())
		}
	}
	if view.calls != 1 {
		t.Errorf("factory calls = %d, want 1 (address is immutable once deployed)", view.calls)
	}
}
