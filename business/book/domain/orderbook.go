package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantmesh/lobagg/internal/apperror"
)

// LimitOrderBook maintains one venue's two-sided depth: a sorted bid side
// (descending by price), a sorted ask side (ascending by price), and a
// per-order index used to apply incremental NewOrder/CancelOrder updates.
// It is not safe for concurrent use; callers serialize access (the
// aggregation engine's single ingest writer does this).
type LimitOrderBook struct {
	exchange string

	bids []PriceLevel // descending
	asks []PriceLevel // ascending

	orders map[uint64]Order

	lastSequence uint64

	lastFeedTimestampNs  int64
	lastLocalTimestampNs int64
}

// NewLimitOrderBook creates an empty book. The exchange name is set lazily
// from the first applied event.
func NewLimitOrderBook() *LimitOrderBook {
	return &LimitOrderBook{orders: make(map[uint64]Order)}
}

// Exchange returns the venue name, or "" if no event has been applied yet.
func (b *LimitOrderBook) Exchange() string { return b.exchange }

// LastSequence returns the highest applied sequence number.
func (b *LimitOrderBook) LastSequence() uint64 { return b.lastSequence }

// LastFeedTimestampNs returns the most recently observed feed timestamp.
func (b *LimitOrderBook) LastFeedTimestampNs() int64 { return b.lastFeedTimestampNs }

// LastLocalTimestampNs returns the most recently observed local ingest timestamp.
func (b *LimitOrderBook) LastLocalTimestampNs() int64 { return b.lastLocalTimestampNs }

// BestBid returns the top bid level, or a zero level if the side is empty.
func (b *LimitOrderBook) BestBid() PriceLevel {
	if len(b.bids) == 0 {
		return PriceLevel{Price: Zero, Quantity: Zero}
	}
	return b.bids[0]
}

// BestAsk returns the top ask level, or a zero level if the side is empty.
func (b *LimitOrderBook) BestAsk() PriceLevel {
	if len(b.asks) == 0 {
		return PriceLevel{Price: Zero, Quantity: Zero}
	}
	return b.asks[0]
}

// BidLevels returns a defensive copy of the descending bid side.
func (b *LimitOrderBook) BidLevels() []PriceLevel {
	return append([]PriceLevel(nil), b.bids...)
}

// AskLevels returns a defensive copy of the ascending ask side.
func (b *LimitOrderBook) AskLevels() []PriceLevel {
	return append([]PriceLevel(nil), b.asks...)
}

// Orders returns a defensive copy of the per-order index.
func (b *LimitOrderBook) Orders() map[uint64]Order {
	out := make(map[uint64]Order, len(b.orders))
	for k, v := range b.orders {
		out[k] = v
	}
	return out
}

// Apply applies one ordered event. It returns applied=false with a nil
// error for an event discarded as a stale retransmission (counted by the
// caller, never raised); a non-nil error indicates a genuine invariant
// violation (ExchangeMismatch), which is a programming error in the
// feed-routing layer, not a runtime condition to recover from.
func (b *LimitOrderBook) Apply(event BookEvent) (applied bool, err error) {
	if b.exchange == "" {
		b.exchange = event.Exchange
	} else if event.Exchange != b.exchange {
		return false, apperror.New(apperror.CodeExchangeMismatch,
			apperror.WithContext(fmt.Sprintf("book for %q received event from %q", b.exchange, event.Exchange)))
	}

	if event.Sequence != 0 && event.Sequence <= b.lastSequence {
		return false, nil
	}

	switch event.Kind {
	case EventSnapshot:
		b.applySnapshot(event.Snapshot)
	case EventNewOrder:
		b.applyNewOrder(event.Order)
	case EventCancelOrder:
		b.applyCancelOrder(event.Order.OrderID)
	}

	if event.Sequence != 0 {
		b.lastSequence = event.Sequence
	}

	if event.FeedTimestampNs != 0 {
		b.lastFeedTimestampNs = event.FeedTimestampNs
	} else if !event.Timestamp.IsZero() {
		b.lastFeedTimestampNs = event.Timestamp.UnixNano()
	}

	if event.LocalTimestampNs != 0 {
		b.lastLocalTimestampNs = event.LocalTimestampNs
	} else {
		b.lastLocalTimestampNs = time.Now().UnixNano()
	}

	b.assertInvariants()
	return true, nil
}

func (b *LimitOrderBook) applySnapshot(snap BookSnapshot) {
	b.bids = b.bids[:0]
	b.asks = b.asks[:0]
	b.orders = make(map[uint64]Order)

	for _, lvl := range snap.Bids {
		if lvl.Quantity.Sign() > 0 {
			b.bids = insertLevel(b.bids, lvl, false)
		}
	}
	for _, lvl := range snap.Asks {
		if lvl.Quantity.Sign() > 0 {
			b.asks = insertLevel(b.asks, lvl, true)
		}
	}
}

func (b *LimitOrderBook) applyNewOrder(o Order) {
	if o.OrderID == 0 {
		return
	}

	if existing, ok := b.orders[o.OrderID]; ok {
		b.removeOrderContribution(existing)
		delete(b.orders, o.OrderID)
	}

	b.orders[o.OrderID] = o
	b.addOrderContribution(o)
}

func (b *LimitOrderBook) applyCancelOrder(orderID uint64) {
	if orderID == 0 {
		return
	}
	existing, ok := b.orders[orderID]
	if !ok {
		return
	}
	b.removeOrderContribution(existing)
	delete(b.orders, orderID)
}

func (b *LimitOrderBook) addOrderContribution(o Order) {
	if o.Side == SideBid {
		b.bids = adjustLevel(b.bids, o.Price, o.Quantity, false)
	} else {
		b.asks = adjustLevel(b.asks, o.Price, o.Quantity, true)
	}
}

func (b *LimitOrderBook) removeOrderContribution(o Order) {
	if o.Side == SideBid {
		b.bids = adjustLevel(b.bids, o.Price, o.Quantity.Neg(), false)
	} else {
		b.asks = adjustLevel(b.asks, o.Price, o.Quantity.Neg(), true)
	}
}

// levelIndex locates price within levels (ascending=true means asks-style
// ordering, false means bids-style descending ordering), returning the
// index and whether an exact match was found. When no match is found the
// index is the correct insertion point to preserve sort order.
func levelIndex(levels []PriceLevel, price Decimal, ascending bool) (int, bool) {
	idx := sort.Search(len(levels), func(i int) bool {
		if ascending {
			return levels[i].Price.Cmp(price) >= 0
		}
		return levels[i].Price.Cmp(price) <= 0
	})
	if idx < len(levels) && levels[idx].Price.Equal(price) {
		return idx, true
	}
	return idx, false
}

// adjustLevel adds deltaQty (which may be negative) to the level at price,
// removing the level if its aggregate drops to zero or below, and
// inserting a new level if none existed and deltaQty is positive.
func adjustLevel(levels []PriceLevel, price Decimal, deltaQty Decimal, ascending bool) []PriceLevel {
	idx, found := levelIndex(levels, price, ascending)
	if found {
		newQty, err := levels[idx].Quantity.Add(deltaQty)
		if err != nil {
			panic("orderbook: level quantity overflow: " + err.Error())
		}
		if newQty.Sign() <= 0 {
			return append(levels[:idx], levels[idx+1:]...)
		}
		levels[idx].Quantity = newQty
		return levels
	}
	if deltaQty.Sign() <= 0 {
		return levels
	}
	levels = append(levels, PriceLevel{})
	copy(levels[idx+1:], levels[idx:])
	levels[idx] = PriceLevel{Price: price, Quantity: deltaQty}
	return levels
}

func insertLevel(levels []PriceLevel, lvl PriceLevel, ascending bool) []PriceLevel {
	idx, found := levelIndex(levels, lvl.Price, ascending)
	if found {
		levels[idx] = lvl
		return levels
	}
	levels = append(levels, PriceLevel{})
	copy(levels[idx+1:], levels[idx:])
	levels[idx] = lvl
	return levels
}

// assertInvariants panics if the book's structural invariants (§3) are
// violated. A violation here is a logic bug in this package, not a
// recoverable runtime condition.
func (b *LimitOrderBook) assertInvariants() {
	for i, lvl := range b.bids {
		if lvl.Quantity.Sign() <= 0 {
			panic(fmt.Sprintf("orderbook: non-positive bid quantity at %s", lvl.Price))
		}
		if i > 0 && !b.bids[i-1].Price.GreaterThan(lvl.Price) {
			panic("orderbook: bid levels not strictly descending")
		}
	}
	for i, lvl := range b.asks {
		if lvl.Quantity.Sign() <= 0 {
			panic(fmt.Sprintf("orderbook: non-positive ask quantity at %s", lvl.Price))
		}
		if i > 0 && !b.asks[i].Price.GreaterThan(b.asks[i-1].Price) {
			panic("orderbook: ask levels not strictly ascending")
		}
	}
	if len(b.bids) > 0 && len(b.asks) > 0 {
		if !b.asks[0].Price.GreaterThan(b.bids[0].Price) {
			panic("orderbook: book is crossed")
		}
	}
}
