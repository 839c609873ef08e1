// Package domain contains the core domain types for the chain context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Head is a new-block notification. The watch loop re-resolves prices on
// each head, so only identity and ordering fields are carried.
type Head struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
}

// ConnectionState represents the state of the node connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// ConnectionStatus contains detailed connection information.
type ConnectionStatus struct {
	State      ConnectionState
	LastHead   uint64
	LastUpdate time.Time
	Reconnects int
	UsingHTTP  bool // true if using HTTP polling fallback
}
