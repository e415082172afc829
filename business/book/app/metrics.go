package app

import (
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/quantmesh/lobagg/business/book/app"

// engineMetrics holds the OTEL instruments published by Engine.
type engineMetrics struct {
	eventsIngested    metric.Int64Counter
	eventsStale       metric.Int64Counter
	eventsFailed      metric.Int64Counter
	viewsPublished    metric.Int64Counter
	viewsSuppressed   metric.Int64Counter
	stalenessWarnings metric.Int64Counter
	subscriberCount   metric.Int64Gauge
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	m := &engineMetrics{}

	var err error

	m.eventsIngested, err = meter.Int64Counter(
		"book_events_ingested_total",
		metric.WithDescription("Total number of book events successfully applied to a venue order book"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsStale, err = meter.Int64Counter(
		"book_events_stale_total",
		metric.WithDescription("Total number of book events discarded as stale retransmissions"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsFailed, err = meter.Int64Counter(
		"book_events_failed_total",
		metric.WithDescription("Total number of book events rejected by a venue order book (invariant violation)"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.viewsPublished, err = meter.Int64Counter(
		"book_views_published_total",
		metric.WithDescription("Total number of aggregated views delivered to subscribers"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.viewsSuppressed, err = meter.Int64Counter(
		"book_views_suppressed_total",
		metric.WithDescription("Total number of aggregated views withheld by the readiness gate"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.stalenessWarnings, err = meter.Int64Counter(
		"book_staleness_warnings_total",
		metric.WithDescription("Total number of rate-limited staleness warnings emitted"),
		metric.WithUnit("{warning}"),
	)
	if err != nil {
		return nil, err
	}

	m.subscriberCount, err = meter.Int64Gauge(
		"book_subscribers",
		metric.WithDescription("Current number of registered aggregated-view subscribers"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
