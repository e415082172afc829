package domain

import "time"

// Side tags which side of the book a price level or order belongs to.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideAsk {
		return "ask"
	}
	return "bid"
}

// PriceLevel is a (price, aggregate quantity) pair. A level present in a
// book always carries a strictly positive quantity.
type PriceLevel struct {
	Price    Decimal
	Quantity Decimal
}

// Order is a single tracked resting order inside a per-venue book.
type Order struct {
	OrderID  uint64
	Side     Side
	Price    Decimal
	Quantity Decimal
}

// BookEventKind tags which payload of a BookEvent is populated.
type BookEventKind int

const (
	EventSnapshot BookEventKind = iota
	EventNewOrder
	EventCancelOrder
)

// BookSnapshot is the payload of a Snapshot event: fully price-aggregated
// depth for both sides, replacing all prior per-venue state.
type BookSnapshot struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// BookEvent is the canonical in-process representation of a single
// per-venue book update. Only the field(s) implied by Kind are read.
type BookEvent struct {
	Exchange  string
	Kind      BookEventKind
	Sequence  uint64
	Order     Order
	Snapshot  BookSnapshot
	Timestamp time.Time

	// FeedTimestampNs is the producer-observed send time; 0 if absent.
	FeedTimestampNs int64
	// LocalTimestampNs is the receiver's wall clock at ingest; 0 if absent
	// (the book fills it with "now" when zero).
	LocalTimestampNs int64
}

// AggregatedBookView is a self-contained, ephemeral consolidated snapshot
// across every venue's book for the configured symbol.
type AggregatedBookView struct {
	BidLevels []PriceLevel // descending by price
	AskLevels []PriceLevel // ascending by price

	BestBid PriceLevel
	BestAsk PriceLevel

	ExchangeCount int

	Timestamp          time.Time
	PublishTimestampNs int64

	LastFeedTimestampNs  int64
	LastLocalTimestampNs int64
	MinFeedTimestampNs   int64
	MaxFeedTimestampNs   int64
	MinLocalTimestampNs  int64
	MaxLocalTimestampNs  int64
}

// Subscriber is an active registration in the subscriber registry.
type Subscriber struct {
	ID       uint64
	Callback func(AggregatedBookView)
}
