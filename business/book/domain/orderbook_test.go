package domain

import "testing"

func price(t *testing.T, s string) Decimal {
	t.Helper()
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return d
}

func newOrderEvent(exchange string, seq uint64, id uint64, side Side, px, qty string, t *testing.T) BookEvent {
	return BookEvent{
		Exchange: exchange,
		Kind:     EventNewOrder,
		Sequence: seq,
		Order: Order{
			OrderID:  id,
			Side:     side,
			Price:    price(t, px),
			Quantity: price(t, qty),
		},
	}
}

func TestApplyNewOrderAccumulatesAtLevel(t *testing.T) {
	b := NewLimitOrderBook()

	if _, err := b.Apply(newOrderEvent("A", 1, 1, SideBid, "100.00", "1", t)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Apply(newOrderEvent("A", 2, 2, SideBid, "100.00", "2", t)); err != nil {
		t.Fatal(err)
	}

	bb := b.BestBid()
	if !bb.Price.Equal(price(t, "100.00")) || !bb.Quantity.Equal(price(t, "3")) {
		t.Fatalf("best bid = %v, want (100.00, 3)", bb)
	}
}

func TestApplyNewOrderReplacesSameID(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 1, SideBid, "100.00", "5", t))
	b.Apply(newOrderEvent("A", 2, 1, SideBid, "101.00", "2", t)) // same id, moved

	if len(b.BidLevels()) != 1 {
		t.Fatalf("expected single level after replace, got %v", b.BidLevels())
	}
	bb := b.BestBid()
	if !bb.Price.Equal(price(t, "101.00")) || !bb.Quantity.Equal(price(t, "2")) {
		t.Fatalf("best bid = %v, want (101.00, 2)", bb)
	}
}

func TestCancelOrderRemovesContribution(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 1, SideAsk, "105.00", "4", t))
	b.Apply(BookEvent{
		Exchange: "A", Kind: EventCancelOrder, Sequence: 2,
		Order: Order{OrderID: 1},
	})

	if len(b.AskLevels()) != 0 {
		t.Fatalf("expected empty ask side after cancel, got %v", b.AskLevels())
	}
}

func TestExchangeMismatchRejected(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 1, SideBid, "100.00", "1", t))
	_, err := b.Apply(newOrderEvent("B", 2, 2, SideBid, "100.00", "1", t))
	if err == nil {
		t.Fatal("expected ExchangeMismatch error")
	}
}

func TestStaleSequenceDiscardedSilently(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 5, 1, SideBid, "100.00", "1", t))

	applied, err := b.Apply(newOrderEvent("A", 3, 2, SideBid, "200.00", "9", t))
	if err != nil {
		t.Fatalf("stale event should not error, got %v", err)
	}
	if applied {
		t.Fatal("stale event should not be applied")
	}
	if len(b.BidLevels()) != 1 {
		t.Fatalf("state should be unchanged by stale event, got %v", b.BidLevels())
	}
}

func TestSnapshotClearsPriorState(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 1, SideBid, "100.00", "1", t))

	b.Apply(BookEvent{
		Exchange: "A", Kind: EventSnapshot, Sequence: 2,
		Snapshot: BookSnapshot{
			Bids: []PriceLevel{{Price: price(t, "99.00"), Quantity: price(t, "5")}},
			Asks: []PriceLevel{{Price: price(t, "101.00"), Quantity: price(t, "3")}},
		},
	})

	if len(b.Orders()) != 0 {
		t.Fatal("snapshot should clear the per-order index")
	}
	bb := b.BestBid()
	if !bb.Price.Equal(price(t, "99.00")) {
		t.Fatalf("best bid after snapshot = %v, want 99.00", bb)
	}
}

func TestLevelsStrictlySortedAndNonCrossing(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 1, SideBid, "99.00", "1", t))
	b.Apply(newOrderEvent("A", 2, 2, SideBid, "100.00", "1", t))
	b.Apply(newOrderEvent("A", 3, 3, SideAsk, "102.00", "1", t))
	b.Apply(newOrderEvent("A", 4, 4, SideAsk, "101.00", "1", t))

	bids := b.BidLevels()
	if !bids[0].Price.Equal(price(t, "100.00")) || !bids[1].Price.Equal(price(t, "99.00")) {
		t.Fatalf("bids not descending: %v", bids)
	}
	asks := b.AskLevels()
	if !asks[0].Price.Equal(price(t, "101.00")) || !asks[1].Price.Equal(price(t, "102.00")) {
		t.Fatalf("asks not ascending: %v", asks)
	}
}

func TestNewOrderWithZeroIDIgnored(t *testing.T) {
	b := NewLimitOrderBook()
	b.Apply(newOrderEvent("A", 1, 0, SideBid, "100.00", "1", t))
	if len(b.BidLevels()) != 0 {
		t.Fatal("order with id=0 should be ignored")
	}
}
