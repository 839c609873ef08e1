// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// NodeStatus represents the Ethereum node connection status.
type NodeStatus struct {
	Connected  bool
	UsingHTTP  bool
	Reconnects int
	LastHead   uint64
	LastUpdate time.Time
}

// StatusComponent renders the node connection line.
type StatusComponent struct {
	status NodeStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the node status.
func (s *StatusComponent) Update(status NodeStatus) {
	s.status = status
}

// View renders the status component.
func (s *StatusComponent) View() string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	line := "○ Ethereum disconnected"
	style := badStyle
	if s.status.Connected {
		transport := "ws"
		if s.status.UsingHTTP {
			transport = "http"
		}
		line = fmt.Sprintf("● Ethereum (%s)", transport)
		style = okStyle
	}

	out := style.Render(line)
	if s.status.Reconnects > 0 {
		out += dimStyle.Render(fmt.Sprintf("  reconnects: %d", s.status.Reconnects))
	}
	return out
}
