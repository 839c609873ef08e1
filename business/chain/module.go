// Package chain implements the chain bounded context: head tracking for
// snapshot refresh in watch mode.
package chain

import (
	"context"

	"github.com/babylon-finance/price-resolver/business/chain/app"
	chainDI "github.com/babylon-finance/price-resolver/business/chain/di"
	"github.com/babylon-finance/price-resolver/business/chain/infra/ethereum"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/di"
	"github.com/babylon-finance/price-resolver/internal/logger"
	"github.com/babylon-finance/price-resolver/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register HeadSubscriber (private - internal dependency)
	di.RegisterToken(c, chainDI.HeadSubscriber, func(sr di.ServiceRegistry) app.HeadSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create head subscriber: " + err.Error())
		}
		return sub
	})

	// Register ChainService (public - exposed to other modules)
	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		sub := chainDI.GetHeadSubscriber(sr)
		return app.NewChainService(sub)
	})

	return nil
}

// Startup initializes the chain module. The subscriber dials lazily on
// Subscribe, so startup only verifies wiring.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	chainDI.GetHeadSubscriber(mono.Services())

	log.Info(ctx, "chain module started")
	return nil
}
