// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/babylon-finance/price-resolver/internal/asset"
)

// QuoteRow represents one watched pair in the quote table.
type QuoteRow struct {
	Pair      string
	Price     asset.Price // zero until first resolve
	PrevPrice asset.Price
	Block     uint64
	UpdatedAt time.Time
	Err       string
}

// QuotesComponent renders the per-pair quote table.
type QuotesComponent struct {
	order []string
	rows  map[string]*QuoteRow
}

// NewQuotesComponent creates a quote table over a fixed pair list.
func NewQuotesComponent(pairs []string) *QuotesComponent {
	rows := make(map[string]*QuoteRow, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := rows[p]; ok {
			continue
		}
		rows[p] = &QuoteRow{Pair: p}
		order = append(order, p)
	}
	return &QuotesComponent{order: order, rows: rows}
}

// SetQuote records a successful resolution for a pair.
func (q *QuotesComponent) SetQuote(pair string, price asset.Price, block uint64, at time.Time) {
	row, ok := q.rows[pair]
	if !ok {
		row = &QuoteRow{Pair: pair}
		q.rows[pair] = row
		q.order = append(q.order, pair)
	}
	row.PrevPrice = row.Price
	row.Price = price
	row.Block = block
	row.UpdatedAt = at
	row.Err = ""
}

// SetError records a failed resolution for a pair. The last good price is
// kept on screen alongside the error.
func (q *QuotesComponent) SetError(pair string, errText string) {
	row, ok := q.rows[pair]
	if !ok {
		row = &QuoteRow{Pair: pair}
		q.rows[pair] = row
		q.order = append(q.order, pair)
	}
	row.Err = errText
	row.UpdatedAt = time.Now()
}

// FormatPrice renders a price's rate for display.
func FormatPrice(price asset.Price) string {
	if price.IsZero() {
		return "—"
	}
	d := price.Rate()
	// Small prices need more digits to be readable.
	if d.Abs().LessThan(decimal.New(1, -2)) {
		return d.StringFixed(8)
	}
	return d.StringFixed(6)
}

// View renders the quote table.
func (q *QuotesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	upStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("QUOTES"))
	sb.WriteString("\n\n")

	if len(q.order) == 0 {
		sb.WriteString(dimStyle.Render("  No pairs configured"))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-16s  %16s  %4s  %10s  %8s\n",
		"Pair", "Price", "", "Block", "Age"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 60)) + "\n")

	for _, key := range q.order {
		row := q.rows[key]

		if row.Price.IsZero() && row.Err == "" {
			sb.WriteString(fmt.Sprintf("  %-16s  %s\n",
				row.Pair, dimStyle.Render("waiting...")))
			continue
		}

		arrow := " "
		arrowStyle := dimStyle
		if !row.PrevPrice.IsZero() && !row.Price.IsZero() {
			switch row.Price.RateRaw().Cmp(row.PrevPrice.RateRaw()) {
			case 1:
				arrow = "▲"
				arrowStyle = upStyle
			case -1:
				arrow = "▼"
				arrowStyle = downStyle
			}
		}

		age := "—"
		if !row.UpdatedAt.IsZero() {
			age = time.Since(row.UpdatedAt).Round(time.Second).String()
		}

		sb.WriteString(fmt.Sprintf("  %-16s  %16s  %s  %10s  %8s",
			row.Pair,
			FormatPrice(row.Price),
			arrowStyle.Render(fmt.Sprintf("%4s", arrow)),
			formatBlock(row.Block),
			age,
		))
		if row.Err != "" {
			sb.WriteString("  " + errStyle.Render(row.Err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatBlock(n uint64) string {
	if n == 0 {
		return "—"
	}
	return fmt.Sprintf("#%d", n)
}
