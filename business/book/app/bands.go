package app

import (
	"sync"

	"github.com/quantmesh/lobagg/business/book/domain"
)

var (
	one        = mustInt(1)
	bpsDivisor = mustInt(10000)
)

func mustInt(i int64) domain.Decimal {
	d, err := domain.FromInteger(i)
	if err != nil {
		panic("app: constant out of range: " + err.Error())
	}
	return d
}

// PriceBand is a single basis-point offset band around the best bid/ask.
type PriceBand struct {
	OffsetBps int
	BidPrice  domain.Decimal
	AskPrice  domain.Decimal
}

// PriceBandCalculator computes offset bands around the live best bid/ask,
// falling back to the last live (bid, ask) pair it observed when the view
// currently lacks one (e.g. during the momentary empty-ask window after
// uncross).
type PriceBandCalculator struct {
	mu           sync.Mutex
	haveLastGood bool
	lastBid      domain.PriceLevel
	lastAsk      domain.PriceLevel
}

// NewPriceBandCalculator returns a calculator with no cached BBO.
func NewPriceBandCalculator() *PriceBandCalculator {
	return &PriceBandCalculator{}
}

// Compute returns one band per offset in offsetsBps, or nil if the view has
// no live BBO and none has ever been observed.
func (c *PriceBandCalculator) Compute(view domain.AggregatedBookView, offsetsBps []int) []PriceBand {
	bid, ask, ok := c.resolveBBO(view)
	if !ok {
		return nil
	}

	bands := make([]PriceBand, 0, len(offsetsBps))
	for _, bps := range offsetsBps {
		fraction := bpsFraction(bps)

		bidMul, err := one.Sub(fraction)
		if err != nil {
			continue
		}
		askMul, err := one.Add(fraction)
		if err != nil {
			continue
		}

		bidPrice, err := bid.Price.Mul(bidMul)
		if err != nil {
			continue
		}
		askPrice, err := ask.Price.Mul(askMul)
		if err != nil {
			continue
		}

		if !askPrice.GreaterThan(bidPrice) {
			panic("app: price band invariant violated: ask_price <= bid_price")
		}

		bands = append(bands, PriceBand{OffsetBps: bps, BidPrice: bidPrice, AskPrice: askPrice})
	}
	return bands
}

func (c *PriceBandCalculator) resolveBBO(view domain.AggregatedBookView) (domain.PriceLevel, domain.PriceLevel, bool) {
	live := view.BestBid.Quantity.Sign() > 0 && view.BestAsk.Quantity.Sign() > 0

	c.mu.Lock()
	defer c.mu.Unlock()

	if live {
		c.lastBid, c.lastAsk, c.haveLastGood = view.BestBid, view.BestAsk, true
		return view.BestBid, view.BestAsk, true
	}
	if c.haveLastGood {
		return c.lastBid, c.lastAsk, true
	}
	return domain.PriceLevel{}, domain.PriceLevel{}, false
}

func bpsFraction(bps int) domain.Decimal {
	n := mustInt(int64(bps))
	f, err := n.Div(bpsDivisor)
	if err != nil {
		panic("app: bps fraction overflow: " + err.Error())
	}
	return f
}

// VolumeBand is a single notional-threshold band over the aggregated depth.
type VolumeBand struct {
	ThresholdNotional domain.Decimal
	BidPrice          domain.Decimal
	AskPrice          domain.Decimal
}

// ComputeVolumeBands walks each side of the aggregated depth accumulating
// notional (price x quantity) and reports the price of the first level
// whose running sum reaches each threshold, 0 if none does. A stateless
// function: no cache is kept across calls.
func ComputeVolumeBands(view domain.AggregatedBookView, thresholds []domain.Decimal) []VolumeBand {
	bids := view.BidLevels
	if len(bids) == 0 && view.BestBid.Quantity.Sign() > 0 {
		bids = []domain.PriceLevel{view.BestBid}
	}
	asks := view.AskLevels
	if len(asks) == 0 && view.BestAsk.Quantity.Sign() > 0 {
		asks = []domain.PriceLevel{view.BestAsk}
	}

	bands := make([]VolumeBand, 0, len(thresholds))
	for _, threshold := range thresholds {
		bands = append(bands, VolumeBand{
			ThresholdNotional: threshold,
			BidPrice:          priceAtThreshold(bids, threshold),
			AskPrice:          priceAtThreshold(asks, threshold),
		})
	}
	return bands
}

func priceAtThreshold(levels []domain.PriceLevel, threshold domain.Decimal) domain.Decimal {
	running := domain.Zero
	for _, lvl := range levels {
		notional, err := lvl.Price.Mul(lvl.Quantity)
		if err != nil {
			continue
		}
		sum, err := running.Add(notional)
		if err != nil {
			continue
		}
		running = sum
		if running.Cmp(threshold) >= 0 {
			return lvl.Price
		}
	}
	return domain.Zero
}
