package curve

// RegistryABI covers pool discovery and coin-index lookup on the Curve
// address registry.
const RegistryABI = `[
	{
		"stateMutability": "view",
		"type": "function",
		"name": "find_pool_for_coins",
		"inputs": [
			{"name": "_from", "type": "address"},
			{"name": "_to", "type": "address"}
		],
		"outputs": [
			{"name": "", "type": "address"}
		]
	},
	{
		"stateMutability": "view",
		"type": "function",
		"name": "get_coin_indices",
		"inputs": [
			{"name": "_pool", "type": "address"},
			{"name": "_from", "type": "address"},
			{"name": "_to", "type": "address"}
		],
		"outputs": [
			{"name": "", "type": "int128"},
			{"name": "", "type": "int128"},
			{"name": "", "type": "bool"}
		]
	}
]`

// PoolABI covers the swap-output and virtual-price reads on a stable-swap
// pool.
const PoolABI = `[
	{
		"stateMutability": "view",
		"type": "function",
		"name": "get_dy",
		"inputs": [
			{"name": "i", "type": "int128"},
			{"name": "j", "type": "int128"},
			{"name": "dx", "type": "uint256"}
		],
		"outputs": [
			{"name": "", "type": "uint256"}
		]
	},
	{
		"stateMutability": "view",
		"type": "function",
		"name": "get_virtual_price",
		"inputs": [],
		"outputs": [
			{"name": "", "type": "uint256"}
		]
	}
]`
