// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/babylon-finance/price-resolver/business/chain/app"
	"github.com/babylon-finance/price-resolver/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("chain.ChainService")
)

// Private dependency tokens - internal to chain module
var (
	HeadSubscriber = di.NewToken[app.HeadSubscriber]("chain:headSubscriber")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetHeadSubscriber(c di.ServiceRegistry) app.HeadSubscriber {
	return di.GetToken(c, HeadSubscriber)
}
