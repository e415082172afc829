// Package ui provides the Bubble Tea dashboard for the order-book aggregator.
package ui

import "github.com/quantmesh/lobagg/business/book/domain"

// ViewMsg carries a freshly published aggregated view into the dashboard.
type ViewMsg struct {
	View domain.AggregatedBookView
}

// ErrorMsg is sent when a background component reports an error worth
// surfacing in the error panel.
type ErrorMsg struct {
	Error error
}

// TickMsg drives the periodic "time since last update" staleness readout.
type TickMsg struct{}
