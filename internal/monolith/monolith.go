// Package monolith hosts the shared runtime that bounded contexts plug into.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/babylon-finance/price-resolver/internal/apperror"
	"github.com/babylon-finance/price-resolver/internal/asset"
	"github.com/babylon-finance/price-resolver/internal/config"
	"github.com/babylon-finance/price-resolver/internal/di"
	"github.com/babylon-finance/price-resolver/internal/logger"
)

// Monolith is what modules see of the host application: configuration, the
// shared node client, the asset registry and the service registry.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module is one bounded context. RegisterServices runs for every module
// before any Startup, so modules may resolve each other's services at start.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New dials the Ethereum node and seeds the container with the shared
// services every module depends on.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Ethereum.HTTPURL)
	if err != nil {
		return nil, apperror.New(
			apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("dialing "+cfg.Ethereum.HTTPURL),
			apperror.WithCause(err),
		)
	}

	container := di.NewContainer()
	assetRegistry := asset.DefaultRegistry()

	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) EthClient() *ethclient.Client   { return a.ethClient }
func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }
func (a *app) Services() di.ServiceRegistry   { return a.container }

// RegisterModules wires every module's services into the container. All
// registrations complete before StartModules runs.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts modules in the order given.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the shared node connection.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
