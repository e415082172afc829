// Package ui provides the Bubble Tea dashboard for the order-book aggregator.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/domain"
)

// BBOModel renders the consolidated best bid/offer and the number of
// reporting venues.
type BBOModel struct {
	view domain.AggregatedBookView
}

// NewBBOModel creates an empty top-of-book panel.
func NewBBOModel() BBOModel {
	return BBOModel{}
}

// Update replaces the view the panel renders.
func (m *BBOModel) Update(view domain.AggregatedBookView) {
	m.view = view
}

// View renders the consolidated BBO.
func (m BBOModel) View() string {
	bid := fmt.Sprintf("%s x %s", m.view.BestBid.Price.String(), m.view.BestBid.Quantity.String())
	ask := fmt.Sprintf("%s x %s", m.view.BestAsk.Price.String(), m.view.BestAsk.Quantity.String())
	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render("Consolidated BBO"),
		fmt.Sprintf("bid  %s", PositiveValue.Render(bid)),
		fmt.Sprintf("ask  %s", NegativeValue.Render(ask)),
		MutedValue.Render(fmt.Sprintf("venues reporting: %d", m.view.ExchangeCount)),
	)
}

// PriceBandsModel renders the offset-based price bands around the BBO.
type PriceBandsModel struct {
	bands []app.PriceBand
}

// NewPriceBandsModel creates an empty price-bands panel.
func NewPriceBandsModel() PriceBandsModel {
	return PriceBandsModel{}
}

// Update replaces the bands the panel renders.
func (m *PriceBandsModel) Update(bands []app.PriceBand) {
	m.bands = bands
}

// View renders the price bands table.
func (m PriceBandsModel) View() string {
	if len(m.bands) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, HeaderStyle.Render("Price Bands"), MutedValue.Render("no data yet"))
	}
	rows := make([]string, 0, len(m.bands)+1)
	rows = append(rows, TableHeaderStyle.Render(fmt.Sprintf("%6s  %14s  %14s", "bps", "bid", "ask")))
	for _, b := range m.bands {
		rows = append(rows, fmt.Sprintf("%6d  %14s  %14s", b.OffsetBps, b.BidPrice.String(), b.AskPrice.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{HeaderStyle.Render("Price Bands")}, rows...)...)
}

// VolumeBandsModel renders the notional-threshold depth bands.
type VolumeBandsModel struct {
	bands []app.VolumeBand
}

// NewVolumeBandsModel creates an empty volume-bands panel.
func NewVolumeBandsModel() VolumeBandsModel {
	return VolumeBandsModel{}
}

// Update replaces the bands the panel renders.
func (m *VolumeBandsModel) Update(bands []app.VolumeBand) {
	m.bands = bands
}

// View renders the volume bands table.
func (m VolumeBandsModel) View() string {
	if len(m.bands) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, HeaderStyle.Render("Volume Bands"), MutedValue.Render("no data yet"))
	}
	rows := make([]string, 0, len(m.bands)+1)
	rows = append(rows, TableHeaderStyle.Render(fmt.Sprintf("%12s  %14s  %14s", "notional", "bid", "ask")))
	for _, b := range m.bands {
		rows = append(rows, fmt.Sprintf("%12s  %14s  %14s", b.ThresholdNotional.String(), b.BidPrice.String(), b.AskPrice.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{HeaderStyle.Render("Volume Bands")}, rows...)...)
}

// ExchangeStatusModel renders the cross-venue timestamp envelope (last, min
// and max feed/local timestamps); it does not break freshness down per venue.
type ExchangeStatusModel struct {
	view domain.AggregatedBookView
}

// NewExchangeStatusModel creates an empty exchange-status panel.
func NewExchangeStatusModel() ExchangeStatusModel {
	return ExchangeStatusModel{}
}

// Update replaces the view the panel derives freshness from.
func (m *ExchangeStatusModel) Update(view domain.AggregatedBookView) {
	m.view = view
}

// View renders the cross-venue timestamp envelope.
func (m ExchangeStatusModel) View() string {
	lines := []string{
		HeaderStyle.Render("Feed Freshness"),
		fmt.Sprintf("feed  last=%d  min=%d  max=%d", m.view.LastFeedTimestampNs, m.view.MinFeedTimestampNs, m.view.MaxFeedTimestampNs),
		fmt.Sprintf("local last=%d  min=%d  max=%d", m.view.LastLocalTimestampNs, m.view.MinLocalTimestampNs, m.view.MaxLocalTimestampNs),
	}
	return strings.Join(lines, "\n")
}
