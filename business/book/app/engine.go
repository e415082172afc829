// Package app implements the cross-venue aggregation engine: it ingests
// per-venue book events, maintains one LimitOrderBook per venue, consolidates
// them into a single AggregatedBookView on every update, and fans that view
// out to subscribers.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/quantmesh/lobagg/business/book/domain"
	"github.com/quantmesh/lobagg/internal/logger"
	"github.com/quantmesh/lobagg/internal/queue"
	"github.com/quantmesh/lobagg/internal/ratelimit"
)

const (
	ingestQueueCapacity  = 4096
	publishQueueCapacity = 256

	staleSpanThreshold    = 2 * time.Second
	publishDelayThreshold = 5 * time.Second
	stalenessWarningsPerMinute = 12 // at most one warning every 5s
)

// Engine is the cross-venue aggregation engine described by the order-book
// aggregation design: one ingest goroutine applies events to per-venue
// books and consolidates; one publisher goroutine fans the result out to
// subscribers. A single mutex protects all mutable state, including the
// subscriber registry, so Subscribe/Unsubscribe/Latest are safe to call
// from any goroutine, including from inside a delivered callback.
type Engine struct {
	mu sync.Mutex

	books map[string]*domain.LimitOrderBook

	expectedExchanges map[string]struct{}
	readyExchanges    map[string]struct{}
	gateArmed         bool

	latest domain.AggregatedBookView

	lastGoodAsk     domain.PriceLevel
	haveLastGoodAsk bool

	subs subscriberRegistry

	ingestQueue  *queue.Queue[domain.BookEvent]
	publishQueue *queue.Queue[domain.AggregatedBookView]

	started bool
	stopped bool
	wg      sync.WaitGroup

	log     logger.LoggerInterface
	metrics *engineMetrics

	staleWarnLimiter *ratelimit.Limiter
}

// New builds an Engine. log may be nil, in which case a discarding logger
// is used.
func New(log logger.LoggerInterface) (*Engine, error) {
	if log == nil {
		log = logger.Discard()
	}

	metrics, err := newEngineMetrics(otel.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("engine: init metrics: %w", err)
	}

	e := &Engine{
		books:             make(map[string]*domain.LimitOrderBook),
		expectedExchanges: make(map[string]struct{}),
		readyExchanges:    make(map[string]struct{}),
		ingestQueue:       queue.NewBounded[domain.BookEvent](ingestQueueCapacity),
		publishQueue:      queue.NewBounded[domain.AggregatedBookView](publishQueueCapacity),
		log:               log,
		metrics:           metrics,
		staleWarnLimiter:  ratelimit.New(stalenessWarningsPerMinute),
	}
	e.subs = newSubscriberRegistry(&e.mu)
	return e, nil
}

// SetExpectedExchanges configures the readiness gate: while armed, published
// views are withheld until at least one event has been applied from every
// named exchange. Passing an empty slice disarms the gate.
func (e *Engine) SetExpectedExchanges(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expectedExchanges = make(map[string]struct{}, len(names))
	for _, n := range names {
		e.expectedExchanges[n] = struct{}{}
	}
	e.readyExchanges = make(map[string]struct{})
	e.gateArmed = len(e.expectedExchanges) > 0
}

// Start spawns the ingest and publisher goroutines. Idempotent.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	e.wg.Add(2)
	go e.ingestLoop(ctx)
	go e.publishLoop(ctx)
}

// Stop closes the ingest queue, joins the ingest goroutine, closes the
// publish queue, and joins the publisher goroutine. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped || !e.started {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	e.ingestQueue.Close()
	e.wg.Wait()
}

// Push enqueues event for ingestion. It never blocks the caller on
// subscriber delivery; under sustained overload the ingest queue grows
// rather than dropping or applying backpressure to the caller.
func (e *Engine) Push(event domain.BookEvent) {
	e.ingestQueue.Push(event)
}

// Subscribe registers callback to receive every published AggregatedBookView
// and returns an id usable with Unsubscribe.
func (e *Engine) Subscribe(callback func(domain.AggregatedBookView)) uint64 {
	id := e.subs.Subscribe(callback)
	e.metrics.subscriberCount.Record(context.Background(), int64(e.subs.Count()))
	return id
}

// Unsubscribe removes a previously registered callback. Safe to call from
// inside a callback.
func (e *Engine) Unsubscribe(id uint64) {
	e.subs.Unsubscribe(id)
	e.metrics.subscriberCount.Record(context.Background(), int64(e.subs.Count()))
}

// Latest returns the most recently consolidated view, regardless of whether
// it was withheld by the readiness gate.
func (e *Engine) Latest() domain.AggregatedBookView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

// Running reports whether Start has been called and Stop has not.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started && !e.stopped
}

// ReadinessGateSatisfied reports whether the readiness gate, if armed, has
// seen at least one event from every expected exchange. Always true when
// the gate is disarmed.
func (e *Engine) ReadinessGateSatisfied() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.gateArmed || len(e.readyExchanges) == len(e.expectedExchanges)
}

func (e *Engine) ingestLoop(ctx context.Context) {
	defer e.wg.Done()
	defer e.publishQueue.Close()

	for {
		event, ok := e.ingestQueue.WaitPop()
		if !ok {
			return
		}
		e.applyAndConsolidate(ctx, event)
	}
}

func (e *Engine) applyAndConsolidate(ctx context.Context, event domain.BookEvent) {
	e.mu.Lock()

	book, ok := e.books[event.Exchange]
	if !ok {
		book = domain.NewLimitOrderBook()
		e.books[event.Exchange] = book
	}

	applied, err := book.Apply(event)
	if err != nil {
		e.mu.Unlock()
		e.metrics.eventsFailed.Add(ctx, 1)
		e.log.Error(ctx, "book apply rejected event", "exchange", event.Exchange, "error", err)
		return
	}
	if !applied {
		e.mu.Unlock()
		e.metrics.eventsStale.Add(ctx, 1)
		return
	}
	e.metrics.eventsIngested.Add(ctx, 1)

	if e.gateArmed {
		if _, expected := e.expectedExchanges[event.Exchange]; expected {
			e.readyExchanges[event.Exchange] = struct{}{}
		}
	}

	view := consolidate(e.books, &e.lastGoodAsk, &e.haveLastGoodAsk)
	view.Timestamp = time.Now()
	view.PublishTimestampNs = view.Timestamp.UnixNano()
	e.latest = view

	canPublish := !e.gateArmed || len(e.readyExchanges) == len(e.expectedExchanges)
	e.mu.Unlock()

	e.checkStaleness(ctx, view)

	if canPublish {
		e.publishQueue.Push(view)
	} else {
		e.metrics.viewsSuppressed.Add(ctx, 1)
	}
}

func (e *Engine) publishLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		view, ok := e.publishQueue.WaitPop()
		if !ok {
			return
		}

		for _, cb := range e.subs.Snapshot() {
			e.deliver(ctx, cb, view)
		}
		e.metrics.viewsPublished.Add(ctx, 1)
	}
}

// deliver invokes a subscriber callback, converting a panic into a logged
// error so one misbehaving subscriber can never take down the engine.
func (e *Engine) deliver(ctx context.Context, cb func(domain.AggregatedBookView), view domain.AggregatedBookView) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error(ctx, "subscriber callback panicked", "panic", r)
		}
	}()
	cb(view)
}

// checkStaleness emits a rate-limited warning when the spread between
// per-venue timestamps, or the delay since the most recent feed timestamp,
// exceeds the configured thresholds.
func (e *Engine) checkStaleness(ctx context.Context, view domain.AggregatedBookView) {
	feedSpan := time.Duration(view.MaxFeedTimestampNs-view.MinFeedTimestampNs) * time.Nanosecond
	localSpan := time.Duration(view.MaxLocalTimestampNs-view.MinLocalTimestampNs) * time.Nanosecond
	publishDelay := time.Duration(view.PublishTimestampNs-view.MaxFeedTimestampNs) * time.Nanosecond

	stale := feedSpan > staleSpanThreshold || localSpan > staleSpanThreshold || publishDelay > publishDelayThreshold
	if !stale {
		return
	}
	if !e.staleWarnLimiter.Allow() {
		return
	}

	e.metrics.stalenessWarnings.Add(ctx, 1)
	e.log.Warn(ctx, "aggregated view is stale",
		"feed_span", feedSpan, "local_span", localSpan, "publish_delay", publishDelay)
}
