package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		Ethereum: EthereumConfig{
			HTTPURL: "https://example.invalid/rpc",
			ChainID: 1,
		},
		Resolver: ResolverConfig{
			Pivots: []string{
				"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
				"0x6B175474E89094C44Da98b954EedeAC495271d0F",
			},
			FamilyPriority: []string{"stableswap", "synthetic", "constantproduct"},
			DepthBudget:    4,
		},
		Uniswap: UniswapConfig{
			FactoryAddress: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f",
		},
		Curve: CurveConfig{
			RegistryAddress: "0x90E00ACe148ca3b23Ac1bC8C240C2a7Dd9c2d7f5",
		},
		Synthetix: SynthetixConfig{
			ExchangeRatesAddress: "0xd69b189020EF614796578AfE4d10378c5e7e1138",
		},
		Unwrap: UnwrapConfig{
			Links: []UnwrapLink{
				{
					Wrapped:    "0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643",
					Underlying: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
					Kind:       "exchange_rate",
				},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing_http_url",
			mutate: func(c *Config) { c.Ethereum.HTTPURL = "" },
		},
		{
			name:   "bad_factory_address",
			mutate: func(c *Config) { c.Uniswap.FactoryAddress = "not-an-address" },
		},
		{
			name:   "empty_pivots",
			mutate: func(c *Config) { c.Resolver.Pivots = nil },
		},
		{
			name:   "bad_pivot_address",
			mutate: func(c *Config) { c.Resolver.Pivots = []string{"0x123"} },
		},
		{
			name:   "empty_family_priority",
			mutate: func(c *Config) { c.Resolver.FamilyPriority = nil },
		},
		{
			name:   "unknown_family",
			mutate: func(c *Config) { c.Resolver.FamilyPriority = []string{"orderbook"} },
		},
		{
			name:   "zero_depth_budget",
			mutate: func(c *Config) { c.Resolver.DepthBudget = 0 },
		},
		{
			name:   "unknown_unwrap_kind",
			mutate: func(c *Config) { c.Unwrap.Links[0].Kind = "rebase" },
		},
		{
			name: "duplicate_unwrap_link",
			mutate: func(c *Config) {
				c.Unwrap.Links = append(c.Unwrap.Links, c.Unwrap.Links[0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PR_ETH_HTTP_URL", "https://example.invalid/rpc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Resolver.DepthBudget != 4 {
		t.Errorf("default depth budget = %d, want 4", cfg.Resolver.DepthBudget)
	}
	if len(cfg.Resolver.Pivots) != 4 {
		t.Errorf("default pivots = %d, want 4", len(cfg.Resolver.Pivots))
	}
	if got := cfg.Resolver.FamilyPriority[0]; got != "stableswap" {
		t.Errorf("highest-priority family = %s, want stableswap", got)
	}
	if len(cfg.Unwrap.Links) == 0 {
		t.Error("default unwrap links missing")
	}
}
