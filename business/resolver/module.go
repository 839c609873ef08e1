// Package resolver implements the price resolution bounded context.
package resolver

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/babylon-finance/price-resolver/business/resolver/app"
	resolverDI "github.com/babylon-finance/price-resolver/business/resolver/di"
	"github.com/babylon-finance/price-resolver/business/resolver/domain"
	"github.com/babylon-finance/price-resolver/business/resolver/infra/curve"
	"github.com/babylon-finance/price-resolver/business/resolver/infra/ethereum"
	"github.com/babylon-finance/price-resolver/business/resolver/infra/synthetix"
	"github.com/babylon-finance/price-resolver/business/resolver/infra/uniswap"
	"github.com/babylon-finance/price-resolver/business/resolver/infra/unwrap"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/di"
	"github.com/babylon-finance/price-resolver/internal/logger"
	"github.com/babylon-finance/price-resolver/internal/monolith"
	"github.com/babylon-finance/price-resolver/internal/ratelimit"
)

// Module implements the resolver bounded context.
type Module struct{}

// RegisterServices registers all resolver services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Snapshot provider - private dependency
	di.RegisterToken(c, resolverDI.SnapshotProvider, func(sr di.ServiceRegistry) app.SnapshotProvider {
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		provider, err := ethereum.NewProvider(ethClient, log)
		if err != nil {
			panic("failed to create snapshot provider: " + err.Error())
		}
		return provider
	})

	// Venue adapters, one per family - private dependency
	di.RegisterToken(c, resolverDI.VenueAdapters, func(sr di.ServiceRegistry) []app.VenueAdapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		uni, err := uniswap.NewAdapter(cfg.Uniswap, log)
		if err != nil {
			panic("failed to create uniswap adapter: " + err.Error())
		}
		crv, err := curve.NewAdapter(cfg.Curve, log)
		if err != nil {
			panic("failed to create curve adapter: " + err.Error())
		}
		snx, err := synthetix.NewAdapter(cfg.Synthetix, log)
		if err != nil {
			panic("failed to create synthetix adapter: " + err.Error())
		}

		return []app.VenueAdapter{crv, snx, uni}
	})

	// Unwrap registry - private dependency
	di.RegisterToken(c, resolverDI.UnwrapSource, func(sr di.ServiceRegistry) app.UnwrapSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		assets := sr.Get("assetRegistry").(*asset.Registry)

		registry, err := unwrap.NewRegistry(cfg.Unwrap, assets, cfg.Ethereum.ChainID, log)
		if err != nil {
			panic("failed to create unwrap registry: " + err.Error())
		}
		return registry
	})

	// Path resolver - private dependency
	di.RegisterToken(c, resolverDI.PathResolver, func(sr di.ServiceRegistry) *app.PathResolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		assets := sr.Get("assetRegistry").(*asset.Registry)

		priority, err := domain.ParseFamilyPriority(cfg.Resolver.FamilyPriority)
		if err != nil {
			panic("invalid family priority: " + err.Error())
		}

		pivots := make([]*asset.Asset, 0, len(cfg.Resolver.Pivots))
		for _, p := range cfg.Resolver.Pivots {
			addr := common.HexToAddress(p)
			if a, ok := assets.GetToken(cfg.Ethereum.ChainID, addr); ok {
				pivots = append(pivots, a)
				continue
			}
			pivots = append(pivots, asset.MustNewToken(cfg.Ethereum.ChainID, addr, addr.Hex(), "", 18))
		}

		return app.NewPathResolver(
			log,
			resolverDI.GetVenueAdapters(sr),
			resolverDI.GetUnwrapSource(sr),
			priority,
			pivots,
			cfg.Resolver.DepthBudget,
		)
	})

	// PriceService (public - exposed to other modules)
	di.RegisterToken(c, resolverDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		assets := sr.Get("assetRegistry").(*asset.Registry)

		limiter := ratelimit.NewWithBurst(cfg.Resolver.BatchRPS, cfg.Resolver.BatchBurst)

		return app.NewPriceService(
			log,
			assets,
			resolverDI.GetSnapshotProvider(sr),
			resolverDI.GetPathResolver(sr),
			limiter,
			cfg.Ethereum.ChainID,
		)
	})

	return nil
}

// Startup initializes the resolver module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	cfg := mono.Config()
	log.Info(ctx, "resolver module started",
		"family_priority", cfg.Resolver.FamilyPriority,
		"pivots", len(cfg.Resolver.Pivots),
		"unwrap_links", len(cfg.Unwrap.Links),
		"depth_budget", cfg.Resolver.DepthBudget,
	)
	return nil
}
