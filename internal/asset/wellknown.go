package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDGoerli   = 5
	ChainIDSepolia  = 11155111
	ChainIDPolygon  = 137
	ChainIDArbitrum = 42161
	ChainIDOptimism = 10
	ChainIDBase     = 8453
)

// NativeAlias is the conventional sentinel address callers use for the chain's
// native coin. The public API canonicalizes it to the wrapped-gas asset.
var NativeAlias = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Well-known token addresses on Ethereum Mainnet
var (
	// Reserve assets (the default pivot set)
	AddrWETHEthereum = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrDAIEthereum  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrWBTCEthereum = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")

	// Other stablecoins
	AddrUSDTEthereum = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")

	// Lending receipts
	AddrCDAIEthereum  = common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643")
	AddrCUSDCEthereum = common.HexToAddress("0x39AA39c021dfbaE8faC545936693aC917d5E7563")
	AddrADAIEthereum  = common.HexToAddress("0x028171bCA77440897B824Ca71D1c56caC55b68A3")

	// Vault shares
	AddrYVUSDCEthereum = common.HexToAddress("0x5f18C75AbDAe578b483E5F43f12a39cF75b973a9")

	// Curve 3pool LP and pool
	AddrCRV3Ethereum       = common.HexToAddress("0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490")
	AddrCurve3PoolEthereum = common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7")

	// Synths
	AddrSUSDEthereum = common.HexToAddress("0x57Ab1ec28D129707052df4dF418D58a2D46d5f51")
	AddrSETHEthereum = common.HexToAddress("0x5e74C9036fb86BD7eCdcb084a0673EFc32eA31cb")
)

// Well-known AssetIDs
var (
	IDEthereumETH    = NewNativeAssetID(ChainIDEthereum)
	IDEthereumWETH   = NewTokenAssetID(ChainIDEthereum, AddrWETHEthereum)
	IDEthereumDAI    = NewTokenAssetID(ChainIDEthereum, AddrDAIEthereum)
	IDEthereumUSDC   = NewTokenAssetID(ChainIDEthereum, AddrUSDCEthereum)
	IDEthereumUSDT   = NewTokenAssetID(ChainIDEthereum, AddrUSDTEthereum)
	IDEthereumWBTC   = NewTokenAssetID(ChainIDEthereum, AddrWBTCEthereum)
	IDEthereumCDAI   = NewTokenAssetID(ChainIDEthereum, AddrCDAIEthereum)
	IDEthereumCUSDC  = NewTokenAssetID(ChainIDEthereum, AddrCUSDCEthereum)
	IDEthereumADAI   = NewTokenAssetID(ChainIDEthereum, AddrADAIEthereum)
	IDEthereumYVUSDC = NewTokenAssetID(ChainIDEthereum, AddrYVUSDCEthereum)
	IDEthereumCRV3   = NewTokenAssetID(ChainIDEthereum, AddrCRV3Ethereum)
	IDEthereumSUSD   = NewTokenAssetID(ChainIDEthereum, AddrSUSDEthereum)
	IDEthereumSETH   = NewTokenAssetID(ChainIDEthereum, AddrSETHEthereum)
)

// Well-known Assets (pre-created instances)
var (
	ETH  = NewAssetWithName(IDEthereumETH, "ETH", "Ethereum", 18)
	WETH = NewAssetWithName(IDEthereumWETH, "WETH", "Wrapped Ether", 18)
	DAI  = NewAssetWithName(IDEthereumDAI, "DAI", "Dai Stablecoin", 18)
	USDC = NewAssetWithName(IDEthereumUSDC, "USDC", "USD Coin", 6)
	USDT = NewAssetWithName(IDEthereumUSDT, "USDT", "Tether USD", 6)
	WBTC = NewAssetWithName(IDEthereumWBTC, "WBTC", "Wrapped Bitcoin", 8)

	CDAI   = NewAssetWithName(IDEthereumCDAI, "cDAI", "Compound Dai", 8)
	CUSDC  = NewAssetWithName(IDEthereumCUSDC, "cUSDC", "Compound USD Coin", 8)
	ADAI   = NewAssetWithName(IDEthereumADAI, "aDAI", "Aave interest bearing DAI", 18)
	YVUSDC = NewAssetWithName(IDEthereumYVUSDC, "yvUSDC", "USDC yVault", 6)
	CRV3   = NewAssetWithName(IDEthereumCRV3, "3Crv", "Curve.fi DAI/USDC/USDT", 18)
	SUSD   = NewAssetWithName(IDEthereumSUSD, "sUSD", "Synth sUSD", 18)
	SETH   = NewAssetWithName(IDEthereumSETH, "sETH", "Synth sETH", 18)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ETH)
	r.Register(WETH)
	r.Register(DAI)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(WBTC)

	r.Register(CDAI)
	r.Register(CUSDC)
	r.Register(ADAI)
	r.Register(YVUSDC)
	r.Register(CRV3)
	r.Register(SUSD)
	r.Register(SETH)

	return r
}

// MustNewToken creates a new ERC20 token asset with the given parameters.
// This is a convenience function for registering custom tokens.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}

// MustNewNative creates a new native coin asset.
func MustNewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	id := NewNativeAssetID(chainID)
	return NewAssetWithName(id, symbol, name, decimals)
}
