// Package di contains dependency injection tokens for the resolver context.
package di

import (
	"github.com/babylon-finance/price-resolver/business/resolver/app"
	"github.com/babylon-finance/price-resolver/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("resolver.PriceService")
)

// Private dependency tokens - internal to resolver module
var (
	SnapshotProvider = di.NewToken[app.SnapshotProvider]("resolver:snapshotProvider")
	VenueAdapters    = di.NewToken[[]app.VenueAdapter]("resolver:venueAdapters")
	UnwrapSource     = di.NewToken[app.UnwrapSource]("resolver:unwrapSource")
	PathResolver     = di.NewToken[*app.PathResolver]("resolver:pathResolver")
)

// Helper functions for type-safe access
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

func GetSnapshotProvider(c di.ServiceRegistry) app.SnapshotProvider {
	return di.GetToken(c, SnapshotProvider)
}

func GetVenueAdapters(c di.ServiceRegistry) []app.VenueAdapter {
	return di.GetToken(c, VenueAdapters)
}

func GetUnwrapSource(c di.ServiceRegistry) app.UnwrapSource {
	return di.GetToken(c, UnwrapSource)
}

func GetPathResolver(c di.ServiceRegistry) *app.PathResolver {
	return di.GetToken(c, PathResolver)
}
