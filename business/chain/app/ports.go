// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"

	"github.com/babylon-finance/price-resolver/business/chain/domain"
)

// HeadSubscriber defines the interface for following the chain head.
type HeadSubscriber interface {
	// Subscribe starts listening for new heads and returns a channel of them.
	Subscribe(ctx context.Context) (<-chan *domain.Head, error)

	// LatestHead retrieves the most recent head.
	LatestHead(ctx context.Context) (*domain.Head, error)

	// State returns the current connection state.
	State() domain.ConnectionState

	// Status returns detailed connection status.
	Status() domain.ConnectionStatus
}
