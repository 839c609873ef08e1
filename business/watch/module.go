// Package watch implements the watch bounded context: continuous pair
// resolution driven by chain heads.
package watch

import (
	"context"
	"fmt"

	chainDI "github.com/babylon-finance/price-resolver/business/chain/di"
	resolverDI "github.com/babylon-finance/price-resolver/business/resolver/di"
	"github.com/babylon-finance/price-resolver/business/watch/app"
	watchDI "github.com/babylon-finance/price-resolver/business/watch/di"
	"github.com/babylon-finance/price-resolver/business/watch/infra"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/di"
	"github.com/babylon-finance/price-resolver/internal/logger"
	"github.com/babylon-finance/price-resolver/internal/monolith"
)

// Module implements the watch bounded context.
type Module struct{}

// RegisterServices registers all watch services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Reporter (private - TUI or console depending on run mode)
	di.RegisterToken(c, watchDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Watcher (public - exposed to main)
	di.RegisterToken(c, watchDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		pairs, err := app.ParsePairs(cfg.Resolver.Pairs)
		if err != nil {
			panic(fmt.Sprintf("invalid resolver.pairs: %v", err))
		}

		return app.NewWatcher(
			chainDI.GetChainService(sr),
			resolverDI.GetPriceService(sr),
			watchDI.GetReporter(sr),
			app.WatcherConfig{Pairs: pairs},
			log,
		)
	})

	return nil
}

// Startup initializes the watch module. The loop itself is started by main
// once the run mode is settled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	cfg := mono.Config()
	log.Info(ctx, "watch module started",
		"pairs", cfg.Resolver.Pairs,
		"tui", cfg.App.TUIMode,
	)
	return nil
}
