package app

import (
	"context"

	"github.com/babylon-finance/price-resolver/business/chain/domain"
)

// ChainService exposes head-following to other modules.
type ChainService struct {
	subscriber HeadSubscriber
}

// NewChainService creates a new ChainService.
func NewChainService(subscriber HeadSubscriber) *ChainService {
	return &ChainService{subscriber: subscriber}
}

// SubscribeHeads starts the head subscription and returns the channel.
func (s *ChainService) SubscribeHeads(ctx context.Context) (<-chan *domain.Head, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestHead retrieves the most recent head.
func (s *ChainService) LatestHead(ctx context.Context) (*domain.Head, error) {
	return s.subscriber.LatestHead(ctx)
}

// ConnectionState returns the current connection state.
func (s *ChainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}

// ConnectionStatus returns detailed connection status.
func (s *ChainService) ConnectionStatus() domain.ConnectionStatus {
	return s.subscriber.Status()
}
