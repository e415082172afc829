package app

import (
	"sort"

	"github.com/quantmesh/lobagg/business/book/domain"
)

// consolidate implements the cross-venue consolidation algorithm: sum
// quantities at each price across every venue book, virtually uncross the
// resulting synthetic book, apply the sticky last-best-ask fallback, and
// stamp timestamp aggregates. It never mutates the supplied books.
func consolidate(books map[string]*domain.LimitOrderBook, lastGoodAsk *domain.PriceLevel, haveLastGoodAsk *bool) domain.AggregatedBookView {
	bidAgg := make(map[domain.Decimal]domain.Decimal)
	askAgg := make(map[domain.Decimal]domain.Decimal)

	var hasFeed, hasLocal bool
	var minFeed, maxFeed, minLocal, maxLocal int64

	for _, book := range books {
		for _, lvl := range book.BidLevels() {
			sum, err := bidAgg[lvl.Price].Add(lvl.Quantity)
			if err == nil {
				bidAgg[lvl.Price] = sum
			}
		}
		for _, lvl := range book.AskLevels() {
			sum, err := askAgg[lvl.Price].Add(lvl.Quantity)
			if err == nil {
				askAgg[lvl.Price] = sum
			}
		}

		if ft := book.LastFeedTimestampNs(); ft > 0 {
			if !hasFeed || ft < minFeed {
				minFeed = ft
			}
			if ft > maxFeed {
				maxFeed = ft
			}
			hasFeed = true
		}
		if lt := book.LastLocalTimestampNs(); lt > 0 {
			if !hasLocal || lt < minLocal {
				minLocal = lt
			}
			if lt > maxLocal {
				maxLocal = lt
			}
			hasLocal = true
		}
	}

	bids := sortedLevels(bidAgg, false)
	asks := sortedLevels(askAgg, true)

	bids, asks = uncross(bids, asks)

	if len(asks) == 0 && *haveLastGoodAsk {
		asks = []domain.PriceLevel{*lastGoodAsk}
	} else if len(asks) > 0 {
		*lastGoodAsk = asks[0]
		*haveLastGoodAsk = true
	}

	view := domain.AggregatedBookView{
		BidLevels:     bids,
		AskLevels:     asks,
		ExchangeCount: len(books),
	}
	if len(bids) > 0 {
		view.BestBid = bids[0]
	} else {
		view.BestBid = domain.PriceLevel{Price: domain.Zero, Quantity: domain.Zero}
	}
	if len(asks) > 0 {
		view.BestAsk = asks[0]
	} else {
		view.BestAsk = domain.PriceLevel{Price: domain.Zero, Quantity: domain.Zero}
	}

	if hasFeed {
		view.LastFeedTimestampNs = maxFeed
		view.MaxFeedTimestampNs = maxFeed
		view.MinFeedTimestampNs = minFeed
	}
	if hasLocal {
		view.LastLocalTimestampNs = maxLocal
		view.MaxLocalTimestampNs = maxLocal
		view.MinLocalTimestampNs = minLocal
	}

	return view
}

// sortedLevels drops non-positive aggregates and returns the remainder
// sorted descending (ascending=false, bid side) or ascending (ask side).
func sortedLevels(agg map[domain.Decimal]domain.Decimal, ascending bool) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(agg))
	for price, qty := range agg {
		if qty.Sign() > 0 {
			out = append(out, domain.PriceLevel{Price: price, Quantity: qty})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return out
}

// uncross consumes matching quantity from the front of both sides while the
// best bid is at or above the best ask, modeling the instantaneous crosses
// that a feed-lag window can momentarily produce across independent venues.
func uncross(bids, asks []domain.PriceLevel) ([]domain.PriceLevel, []domain.PriceLevel) {
	i, j := 0, 0
	for i < len(bids) && j < len(asks) && bids[i].Price.Cmp(asks[j].Price) >= 0 {
		consumed := bids[i].Quantity
		if asks[j].Quantity.LessThan(consumed) {
			consumed = asks[j].Quantity
		}
		if newQty, err := bids[i].Quantity.Sub(consumed); err == nil {
			bids[i].Quantity = newQty
		}
		if newQty, err := asks[j].Quantity.Sub(consumed); err == nil {
			asks[j].Quantity = newQty
		}
		if bids[i].Quantity.Sign() <= 0 {
			i++
		}
		if asks[j].Quantity.Sign() <= 0 {
			j++
		}
	}
	return append([]domain.PriceLevel(nil), bids[i:]...), append([]domain.PriceLevel(nil), asks[j:]...)
}
