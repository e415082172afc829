package app

import (
	"context"
	"testing"
	"time"

	"github.com/quantmesh/lobagg/business/book/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func newOrder(exchange string, seq, id uint64, side domain.Side, px, qty string, t *testing.T) domain.BookEvent {
	return domain.BookEvent{
		Exchange: exchange, Kind: domain.EventNewOrder, Sequence: seq,
		Order: domain.Order{OrderID: id, Side: side, Price: mustDec(t, px), Quantity: mustDec(t, qty)},
	}
}

func waitForView(t *testing.T, ch <-chan domain.AggregatedBookView) domain.AggregatedBookView {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published view")
		return domain.AggregatedBookView{}
	}
}

func TestEnginePublishesBBOAcrossVenues(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Start(ctx)
	defer e.Stop()

	views := make(chan domain.AggregatedBookView, 8)
	e.Subscribe(func(v domain.AggregatedBookView) { views <- v })

	e.Push(newOrder("A", 1, 1, domain.SideBid, "100.00", "1", t))
	e.Push(newOrder("B", 1, 2, domain.SideBid, "101.00", "2", t))

	waitForView(t, views)
	view := waitForView(t, views)

	if !view.BestBid.Price.Equal(mustDec(t, "101.00")) || !view.BestBid.Quantity.Equal(mustDec(t, "2")) {
		t.Fatalf("best_bid = %+v, want (101.00, 2)", view.BestBid)
	}
	if view.ExchangeCount != 2 {
		t.Fatalf("exchange_count = %d, want 2", view.ExchangeCount)
	}
}

func TestEngineReadinessGateWithholdsUntilAllExpectedExchanges(t *testing.T) {
	e := newTestEngine(t)
	e.SetExpectedExchanges([]string{"A", "B"})
	ctx := context.Background()
	e.Start(ctx)
	defer e.Stop()

	views := make(chan domain.AggregatedBookView, 8)
	e.Subscribe(func(v domain.AggregatedBookView) { views <- v })

	e.Push(newOrder("A", 1, 1, domain.SideBid, "100.00", "1", t))
	e.Push(newOrder("A", 2, 2, domain.SideBid, "100.50", "1", t))

	select {
	case v := <-views:
		t.Fatalf("expected no published view before all exchanges report, got %+v", v)
	case <-time.After(200 * time.Millisecond):
	}

	e.Push(newOrder("B", 1, 3, domain.SideBid, "99.00", "1", t))

	view := waitForView(t, views)
	if view.ExchangeCount != 2 {
		t.Fatalf("exchange_count = %d, want 2", view.ExchangeCount)
	}
}

func TestEngineLatestReflectsMostRecentEventDespiteSlowSubscriber(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Start(ctx)
	defer e.Stop()

	e.Subscribe(func(domain.AggregatedBookView) { time.Sleep(50 * time.Millisecond) })

	e.Push(newOrder("A", 1, 1, domain.SideBid, "100.00", "1", t))
	e.Push(newOrder("A", 2, 1, domain.SideBid, "101.00", "1", t))
	e.Push(newOrder("A", 3, 1, domain.SideBid, "102.00", "1", t))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Latest().BestBid.Price.Equal(mustDec(t, "102.00")) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("latest() never reflected the most recent push, got %+v", e.Latest())
}

func TestEngineSubscribeUnsubscribeFromInsideCallbackDoesNotDeadlock(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Start(ctx)
	defer e.Stop()

	done := make(chan struct{}, 1)
	var id uint64
	id = e.Subscribe(func(domain.AggregatedBookView) {
		e.Unsubscribe(id)
		e.Subscribe(func(domain.AggregatedBookView) {})
		select {
		case done <- struct{}{}:
		default:
		}
	})

	e.Push(newOrder("A", 1, 1, domain.SideBid, "100.00", "1", t))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback invoking subscribe/unsubscribe appears to have deadlocked")
	}
}

func TestEngineStopTerminatesPromptly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Start(ctx)

	e.Subscribe(func(domain.AggregatedBookView) { time.Sleep(10 * time.Millisecond) })
	for i := uint64(1); i <= 5; i++ {
		e.Push(newOrder("A", i, i, domain.SideBid, "100.00", "1", t))
	}

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not terminate within the bound")
	}
}

func TestEngineStaleEventsDoNotChangeLatest(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.Start(ctx)
	defer e.Stop()

	views := make(chan domain.AggregatedBookView, 8)
	e.Subscribe(func(v domain.AggregatedBookView) { views <- v })

	e.Push(newOrder("A", 5, 1, domain.SideBid, "100.00", "1", t))
	waitForView(t, views)

	e.Push(newOrder("A", 3, 2, domain.SideBid, "200.00", "9", t))

	select {
	case v := <-views:
		t.Fatalf("stale event should not trigger a publish, got %+v", v)
	case <-time.After(200 * time.Millisecond):
	}
}
