// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Curve     CurveConfig     `mapstructure:"curve"`
	Synthetix SynthetixConfig `mapstructure:"synthetix"`
	Unwrap    UnwrapConfig    `mapstructure:"unwrap"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set by main, not loaded
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ResolverConfig holds the price resolution engine configuration.
// Pivots and family priority are fixed at construction; changing them means
// rebuilding the engine.
type ResolverConfig struct {
	Pivots         []string `mapstructure:"pivots"`          // hop assets, in trial order
	FamilyPriority []string `mapstructure:"family_priority"` // venue families, highest first
	DepthBudget    int      `mapstructure:"depth_budget"`
	Pairs          []string `mapstructure:"pairs"` // watch-mode pairs, "IN-OUT" by symbol or address
	BatchRPS       float64  `mapstructure:"batch_rps"`
	BatchBurst     int      `mapstructure:"batch_burst"`
}

// UniswapConfig holds the constant-product venue contract addresses.
type UniswapConfig struct {
	FactoryAddress string `mapstructure:"factory_address"`
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// CurveConfig holds the stable-swap venue contract addresses.
type CurveConfig struct {
	RegistryAddress string `mapstructure:"registry_address"`
}

// RegistryAddressHex returns the registry address as common.Address.
func (c *CurveConfig) RegistryAddressHex() common.Address {
	return common.HexToAddress(c.RegistryAddress)
}

// SynthetixConfig holds the synthetic-asset venue configuration.
// CurrencyKeys maps synth token addresses to their bytes32 currency key text
// (e.g. "sUSD", "sETH").
type SynthetixConfig struct {
	ExchangeRatesAddress string            `mapstructure:"exchange_rates_address"`
	CurrencyKeys         map[string]string `mapstructure:"currency_keys"`
}

// ExchangeRatesAddressHex returns the rates contract address as common.Address.
func (c *SynthetixConfig) ExchangeRatesAddressHex() common.Address {
	return common.HexToAddress(c.ExchangeRatesAddress)
}

// UnwrapLink declares one wrapped-asset relation. Kind is one of
// "one_to_one", "exchange_rate", "share_price", "pool_virtual_price".
// Source is the contract queried for the live rate (defaults to the wrapped
// asset itself; the pool address for pool_virtual_price links).
type UnwrapLink struct {
	Wrapped    string `mapstructure:"wrapped"`
	Underlying string `mapstructure:"underlying"`
	Kind       string `mapstructure:"kind"`
	Source     string `mapstructure:"source"`
}

// UnwrapConfig holds the static unwrap link set.
type UnwrapConfig struct {
	Links []UnwrapLink `mapstructure:"links"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("PR")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "PR_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "PR_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PR_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "PR_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "PR_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "PR_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Resolver
	v.BindEnv("resolver.pivots", "PR_PIVOTS")
	v.BindEnv("resolver.family_priority", "PR_FAMILY_PRIORITY")
	v.BindEnv("resolver.depth_budget", "PR_DEPTH_BUDGET")
	v.BindEnv("resolver.pairs", "PR_PAIRS")

	// Venues
	v.BindEnv("uniswap.factory_address", "PR_UNISWAP_FACTORY", "UNISWAP_FACTORY")
	v.BindEnv("curve.registry_address", "PR_CURVE_REGISTRY", "CURVE_REGISTRY")
	v.BindEnv("synthetix.exchange_rates_address", "PR_SNX_EXCHANGE_RATES", "SNX_EXCHANGE_RATES")

	// Telemetry
	v.BindEnv("telemetry.enabled", "PR_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PR_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PR_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "price-resolver")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")

	// Resolver defaults: reserve assets in hop-trial order, correlated-asset
	// venues quoted before constant-product ones.
	v.SetDefault("resolver.pivots", []string{
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
		"0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
		"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", // WBTC
	})
	v.SetDefault("resolver.family_priority", []string{"stableswap", "synthetic", "constantproduct"})
	v.SetDefault("resolver.depth_budget", 4)
	v.SetDefault("resolver.pairs", []string{"WETH-USDC"})
	v.SetDefault("resolver.batch_rps", 20.0)
	v.SetDefault("resolver.batch_burst", 5)

	// Venue defaults (Ethereum Mainnet)
	v.SetDefault("uniswap.factory_address", "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	v.SetDefault("curve.registry_address", "0x90E00ACe148ca3b23Ac1bC8C240C2a7Dd9c2d7f5")
	v.SetDefault("synthetix.exchange_rates_address", "0xd69b189020EF614796578AfE4d10378c5e7e1138")
	v.SetDefault("synthetix.currency_keys", map[string]string{
		"0x57Ab1ec28D129707052df4dF418D58a2D46d5f51": "sUSD",
		"0x5e74C9036fb86BD7eCdcb084a0673EFc32eA31cb": "sETH",
	})

	// Unwrap defaults (Ethereum Mainnet)
	v.SetDefault("unwrap.links", []map[string]string{
		{
			"wrapped":    "0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643", // cDAI
			"underlying": "0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
			"kind":       "exchange_rate",
		},
		{
			"wrapped":    "0x39AA39c021dfbaE8faC545936693aC917d5E7563", // cUSDC
			"underlying": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
			"kind":       "exchange_rate",
		},
		{
			"wrapped":    "0x028171bCA77440897B824Ca71D1c56caC55b68A3", // aDAI
			"underlying": "0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
			"kind":       "one_to_one",
		},
		{
			"wrapped":    "0x5f18C75AbDAe578b483E5F43f12a39cF75b973a9", // yvUSDC
			"underlying": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", // USDC
			"kind":       "share_price",
		},
		{
			"wrapped":    "0x6c3F90f043a72FA612cbac8115EE7e52BDe6E490", // 3Crv
			"underlying": "0x6B175474E89094C44Da98b954EedeAC495271d0F", // DAI
			"kind":       "pool_virtual_price",
			"source":     "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7", // 3pool
		},
	})

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "price-resolver")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

var validUnwrapKinds = map[string]bool{
	"one_to_one":         true,
	"exchange_rate":      true,
	"share_price":        true,
	"pool_virtual_price": true,
}

var validFamilies = map[string]bool{
	"stableswap":      true,
	"synthetic":       true,
	"constantproduct": true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Uniswap.FactoryAddress) {
		return fmt.Errorf("invalid uniswap.factory_address: %s", c.Uniswap.FactoryAddress)
	}
	if !common.IsHexAddress(c.Curve.RegistryAddress) {
		return fmt.Errorf("invalid curve.registry_address: %s", c.Curve.RegistryAddress)
	}
	if !common.IsHexAddress(c.Synthetix.ExchangeRatesAddress) {
		return fmt.Errorf("invalid synthetix.exchange_rates_address: %s", c.Synthetix.ExchangeRatesAddress)
	}

	if len(c.Resolver.Pivots) == 0 {
		return fmt.Errorf("resolver.pivots cannot be empty")
	}
	for _, p := range c.Resolver.Pivots {
		if !common.IsHexAddress(p) {
			return fmt.Errorf("invalid resolver pivot address: %s", p)
		}
	}

	if len(c.Resolver.FamilyPriority) == 0 {
		return fmt.Errorf("resolver.family_priority cannot be empty")
	}
	for _, f := range c.Resolver.FamilyPriority {
		if !validFamilies[strings.ToLower(f)] {
			return fmt.Errorf("unknown venue family in resolver.family_priority: %s", f)
		}
	}

	if c.Resolver.DepthBudget < 1 {
		return fmt.Errorf("resolver.depth_budget must be at least 1")
	}

	seen := make(map[string]bool, len(c.Unwrap.Links))
	for _, l := range c.Unwrap.Links {
		if !common.IsHexAddress(l.Wrapped) {
			return fmt.Errorf("invalid unwrap wrapped address: %s", l.Wrapped)
		}
		if !common.IsHexAddress(l.Underlying) {
			return fmt.Errorf("invalid unwrap underlying address: %s", l.Underlying)
		}
		if !validUnwrapKinds[strings.ToLower(l.Kind)] {
			return fmt.Errorf("unknown unwrap kind: %s", l.Kind)
		}
		// A wrapped asset has at most one underlying link.
		key := strings.ToLower(l.Wrapped)
		if seen[key] {
			return fmt.Errorf("duplicate unwrap link for %s", l.Wrapped)
		}
		seen[key] = true
	}

	return nil
}
