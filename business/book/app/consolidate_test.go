package app

import (
	"testing"

	"github.com/quantmesh/lobagg/business/book/domain"
)

func mustDec(t *testing.T, s string) domain.Decimal {
	t.Helper()
	d, err := domain.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return d
}

func bookWith(t *testing.T, exchange string, bids, asks [][2]string) *domain.LimitOrderBook {
	t.Helper()
	b := domain.NewLimitOrderBook()
	var id uint64
	for _, lvl := range bids {
		id++
		_, err := b.Apply(domain.BookEvent{
			Exchange: exchange, Kind: domain.EventNewOrder, Sequence: id,
			Order: domain.Order{OrderID: id, Side: domain.SideBid, Price: mustDec(t, lvl[0]), Quantity: mustDec(t, lvl[1])},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	for _, lvl := range asks {
		id++
		_, err := b.Apply(domain.BookEvent{
			Exchange: exchange, Kind: domain.EventNewOrder, Sequence: id,
			Order: domain.Order{OrderID: id, Side: domain.SideAsk, Price: mustDec(t, lvl[0]), Quantity: mustDec(t, lvl[1])},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return b
}

func TestConsolidateSumsAcrossVenues(t *testing.T) {
	books := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", [][2]string{{"100.00", "1"}, {"101.00", "2"}}, nil),
		"B": bookWith(t, "B", [][2]string{{"100.00", "3"}}, [][2]string{{"105.00", "4"}}),
		"C": bookWith(t, "C", nil, [][2]string{{"106.00", "5"}}),
	}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(books, &lastGoodAsk, &have)

	if len(view.BidLevels) != 2 || !view.BidLevels[0].Price.Equal(mustDec(t, "101.00")) ||
		!view.BidLevels[0].Quantity.Equal(mustDec(t, "2")) ||
		!view.BidLevels[1].Price.Equal(mustDec(t, "100.00")) || !view.BidLevels[1].Quantity.Equal(mustDec(t, "4")) {
		t.Fatalf("bid_levels = %+v", view.BidLevels)
	}
	if len(view.AskLevels) != 2 || !view.AskLevels[0].Price.Equal(mustDec(t, "105.00")) ||
		!view.AskLevels[1].Price.Equal(mustDec(t, "106.00")) {
		t.Fatalf("ask_levels = %+v", view.AskLevels)
	}
}

func TestConsolidateBestBidAcrossVenues(t *testing.T) {
	books := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", [][2]string{{"100.00", "1"}}, nil),
		"B": bookWith(t, "B", [][2]string{{"101.00", "2"}}, nil),
	}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(books, &lastGoodAsk, &have)

	if view.ExchangeCount != 2 {
		t.Fatalf("exchange_count = %d, want 2", view.ExchangeCount)
	}
	if !view.BestBid.Price.Equal(mustDec(t, "101.00")) || !view.BestBid.Quantity.Equal(mustDec(t, "2")) {
		t.Fatalf("best_bid = %+v, want (101.00, 2)", view.BestBid)
	}
}

func TestConsolidateUncrossMatchesAcrossVenues(t *testing.T) {
	books := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", [][2]string{{"100.00", "2"}}, nil),
		"B": bookWith(t, "B", nil, [][2]string{{"99.00", "1"}}),
	}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(books, &lastGoodAsk, &have)

	if len(view.BidLevels) != 1 || !view.BidLevels[0].Price.Equal(mustDec(t, "100.00")) ||
		!view.BidLevels[0].Quantity.Equal(mustDec(t, "1")) {
		t.Fatalf("bid_levels after uncross = %+v, want [(100.00, 1)]", view.BidLevels)
	}
	if len(view.AskLevels) != 0 {
		t.Fatalf("ask_levels after uncross = %+v, want empty", view.AskLevels)
	}
}

func TestConsolidateStickyLastBestAsk(t *testing.T) {
	booksWithAsk := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", nil, [][2]string{{"100.00", "1"}}),
	}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(booksWithAsk, &lastGoodAsk, &have)
	if !have || !view.AskLevels[0].Price.Equal(mustDec(t, "100.00")) {
		t.Fatal("expected sticky ask state to capture the live ask")
	}

	booksNoAsk := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", [][2]string{{"95.00", "1"}}, nil),
	}
	view2 := consolidate(booksNoAsk, &lastGoodAsk, &have)
	if len(view2.AskLevels) != 1 || !view2.AskLevels[0].Price.Equal(mustDec(t, "100.00")) {
		t.Fatalf("expected sticky ask to fill the momentarily empty ask side, got %+v", view2.AskLevels)
	}
}

func TestConsolidateTimestampAggregates(t *testing.T) {
	a := domain.NewLimitOrderBook()
	a.Apply(domain.BookEvent{
		Exchange: "A", Kind: domain.EventNewOrder, Sequence: 1,
		Order:           domain.Order{OrderID: 1, Side: domain.SideBid, Price: mustDec(t, "100.00"), Quantity: mustDec(t, "1")},
		FeedTimestampNs: 1000, LocalTimestampNs: 2000,
	})
	b := domain.NewLimitOrderBook()
	b.Apply(domain.BookEvent{
		Exchange: "B", Kind: domain.EventNewOrder, Sequence: 1,
		Order:           domain.Order{OrderID: 1, Side: domain.SideBid, Price: mustDec(t, "99.00"), Quantity: mustDec(t, "1")},
		FeedTimestampNs: 3000, LocalTimestampNs: 1500,
	})

	books := map[string]*domain.LimitOrderBook{"A": a, "B": b}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(books, &lastGoodAsk, &have)

	if view.MinFeedTimestampNs != 1000 || view.MaxFeedTimestampNs != 3000 || view.LastFeedTimestampNs != 3000 {
		t.Fatalf("feed aggregates = min %d max %d last %d", view.MinFeedTimestampNs, view.MaxFeedTimestampNs, view.LastFeedTimestampNs)
	}
	if view.MinLocalTimestampNs != 1500 || view.MaxLocalTimestampNs != 2000 || view.LastLocalTimestampNs != 2000 {
		t.Fatalf("local aggregates = min %d max %d last %d", view.MinLocalTimestampNs, view.MaxLocalTimestampNs, view.LastLocalTimestampNs)
	}
}

func TestConsolidateNoTimestampsYieldsZero(t *testing.T) {
	books := map[string]*domain.LimitOrderBook{
		"A": bookWith(t, "A", [][2]string{{"100.00", "1"}}, nil),
	}
	var lastGoodAsk domain.PriceLevel
	var have bool
	view := consolidate(books, &lastGoodAsk, &have)
	if view.MinFeedTimestampNs != 0 || view.MaxFeedTimestampNs != 0 || view.LastFeedTimestampNs != 0 {
		t.Fatalf("expected zero feed timestamps when none observed, got %+v", view)
	}
}
