// Package feed implements a demo venue depth feed adapter: it connects to a
// WebSocket endpoint, decodes a minimal per-venue depth protocol, and pushes
// the resulting BookEvents into the aggregation engine.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/domain"
	"github.com/quantmesh/lobagg/internal/apperror"
	"github.com/quantmesh/lobagg/internal/circuitbreaker"
	"github.com/quantmesh/lobagg/internal/logger"
	"github.com/quantmesh/lobagg/internal/wsconn"
)

// wireEvent is the demo feed's per-venue depth protocol: a minimal JSON
// framing of the three BookEvent kinds the core understands.
type wireEvent struct {
	Exchange        string      `json:"exchange"`
	Kind            string      `json:"kind"` // "snapshot" | "new_order" | "cancel_order"
	Sequence        uint64      `json:"sequence"`
	OrderID         uint64      `json:"order_id,omitempty"`
	Side            string      `json:"side,omitempty"` // "bid" | "ask"
	Price           string      `json:"price,omitempty"`
	Quantity        string      `json:"quantity,omitempty"`
	Bids            [][2]string `json:"bids,omitempty"`
	Asks            [][2]string `json:"asks,omitempty"`
	FeedTimestampNs int64       `json:"feed_timestamp_ns,omitempty"`
}

func decode(raw []byte) (domain.BookEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.BookEvent{}, apperror.New(apperror.CodeFeedDecodeFailed, apperror.WithContext(err.Error()))
	}
	if w.Exchange == "" {
		return domain.BookEvent{}, apperror.New(apperror.CodeFeedDecodeFailed, apperror.WithContext("missing exchange"))
	}

	event := domain.BookEvent{Exchange: w.Exchange, Sequence: w.Sequence, FeedTimestampNs: w.FeedTimestampNs}

	switch w.Kind {
	case "snapshot":
		event.Kind = domain.EventSnapshot
		bids, err := decodeLevels(w.Bids)
		if err != nil {
			return domain.BookEvent{}, err
		}
		asks, err := decodeLevels(w.Asks)
		if err != nil {
			return domain.BookEvent{}, err
		}
		event.Snapshot = domain.BookSnapshot{Bids: bids, Asks: asks}

	case "new_order":
		event.Kind = domain.EventNewOrder
		order, err := decodeOrder(w)
		if err != nil {
			return domain.BookEvent{}, err
		}
		event.Order = order

	case "cancel_order":
		event.Kind = domain.EventCancelOrder
		event.Order = domain.Order{OrderID: w.OrderID}

	default:
		return domain.BookEvent{}, apperror.New(apperror.CodeFeedDecodeFailed, apperror.WithContext("unknown kind "+w.Kind))
	}

	return event, nil
}

func decodeSide(s string) (domain.Side, error) {
	switch s {
	case "bid":
		return domain.SideBid, nil
	case "ask":
		return domain.SideAsk, nil
	default:
		return 0, apperror.New(apperror.CodeFeedDecodeFailed, apperror.WithContext("unknown side "+s))
	}
}

func decodeOrder(w wireEvent) (domain.Order, error) {
	side, err := decodeSide(w.Side)
	if err != nil {
		return domain.Order{}, err
	}
	price, err := domain.FromString(w.Price)
	if err != nil {
		return domain.Order{}, err
	}
	qty, err := domain.FromString(w.Quantity)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{OrderID: w.OrderID, Side: side, Price: price, Quantity: qty}, nil
}

func decodeLevels(raw [][2]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := domain.FromString(pair[0])
		if err != nil {
			return nil, err
		}
		qty, err := domain.FromString(pair[1])
		if err != nil {
			return nil, err
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

// Client connects to one venue's demo depth feed over WebSocket and pushes
// decoded events into the aggregation engine. Reconnection with backoff is
// handled by the underlying wsconn.Client; repeated decode failures trip a
// circuit breaker so a misbehaving venue cannot spin the ingest path.
type Client struct {
	name   string
	ws     *wsconn.Client
	engine *app.Engine
	log    logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[struct{}]
}

// New builds a demo feed client for one venue, named name, reading from url
// and pushing decoded events into engine.
func New(name, url string, engine *app.Engine, log logger.LoggerInterface) (*Client, error) {
	if log == nil {
		log = logger.Discard()
	}

	ws, err := wsconn.New(wsconn.DefaultConfig(url, name))
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", name, err)
	}

	cfg := circuitbreaker.DefaultConfig("feed-" + name)
	cfg.OnStateChange = func(cbName string, from, to gobreaker.State) {
		log.Warn(context.Background(), "feed circuit breaker state change",
			"breaker", cbName, "from", from.String(), "to", to.String())
	}

	c := &Client{
		name:   name,
		ws:     ws,
		engine: engine,
		log:    log,
		cb:     circuitbreaker.New[struct{}](cfg),
	}
	ws.OnMessage(c.onMessage)
	return c, nil
}

func (c *Client) onMessage(ctx context.Context, raw []byte) {
	_, err := c.cb.Execute(func() (struct{}, error) {
		event, err := decode(raw)
		if err != nil {
			return struct{}{}, err
		}
		c.engine.Push(event)
		return struct{}{}, nil
	})
	if err != nil {
		c.log.Warn(ctx, "feed message dropped", "feed", c.name, "error", err)
	}
}

// Run connects (retrying with backoff) and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	if err := c.ws.ConnectWithRetry(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return c.ws.Close()
}
