package grpcstream

import (
	"google.golang.org/grpc"

	"github.com/quantmesh/lobagg/business/book/domain"
)

// decimalWireDigits is the fixed fractional precision used when a Decimal
// crosses the wire, per the streaming RPC's external interface contract.
const decimalWireDigits = 8

// PriceLevelMessage is the wire representation of a PriceLevel.
type PriceLevelMessage struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// AggregatedBookMessage is the wire representation of an AggregatedBookView.
type AggregatedBookMessage struct {
	BestBid              PriceLevelMessage   `json:"best_bid"`
	BestAsk              PriceLevelMessage   `json:"best_ask"`
	BidLevels            []PriceLevelMessage `json:"bid_levels"`
	AskLevels            []PriceLevelMessage `json:"ask_levels"`
	ExchangeCount        uint32              `json:"exchange_count"`
	TimestampUnixMillis  int64               `json:"timestamp_unix_millis"`
	PublishTimestampNs   int64               `json:"publish_timestamp_ns"`
	LastFeedTimestampNs  int64               `json:"last_feed_timestamp_ns"`
	LastLocalTimestampNs int64               `json:"last_local_timestamp_ns"`
	MinFeedTimestampNs   int64               `json:"min_feed_timestamp_ns"`
	MaxFeedTimestampNs   int64               `json:"max_feed_timestamp_ns"`
	MinLocalTimestampNs  int64               `json:"min_local_timestamp_ns"`
	MaxLocalTimestampNs  int64               `json:"max_local_timestamp_ns"`
}

func toPriceLevelMessage(l domain.PriceLevel) PriceLevelMessage {
	return PriceLevelMessage{
		Price:    l.Price.ToString(decimalWireDigits),
		Quantity: l.Quantity.ToString(decimalWireDigits),
	}
}

func toAggregatedBookMessage(v domain.AggregatedBookView) *AggregatedBookMessage {
	msg := &AggregatedBookMessage{
		BestBid:              toPriceLevelMessage(v.BestBid),
		BestAsk:              toPriceLevelMessage(v.BestAsk),
		BidLevels:            make([]PriceLevelMessage, len(v.BidLevels)),
		AskLevels:            make([]PriceLevelMessage, len(v.AskLevels)),
		ExchangeCount:        uint32(v.ExchangeCount),
		TimestampUnixMillis:  v.Timestamp.UnixMilli(),
		PublishTimestampNs:   v.PublishTimestampNs,
		LastFeedTimestampNs:  v.LastFeedTimestampNs,
		LastLocalTimestampNs: v.LastLocalTimestampNs,
		MinFeedTimestampNs:   v.MinFeedTimestampNs,
		MaxFeedTimestampNs:   v.MaxFeedTimestampNs,
		MinLocalTimestampNs:  v.MinLocalTimestampNs,
		MaxLocalTimestampNs:  v.MaxLocalTimestampNs,
	}
	for i, lvl := range v.BidLevels {
		msg.BidLevels[i] = toPriceLevelMessage(lvl)
	}
	for i, lvl := range v.AskLevels {
		msg.AskLevels[i] = toPriceLevelMessage(lvl)
	}
	return msg
}

// wireSubscribeRequest mirrors SubscribeRequest over the wire.
type wireSubscribeRequest struct {
	Symbol string `json:"symbol"`
}

// serverStream adapts a grpc.ServerStream to the Sender port, marshaling
// each view to its wire message before writing it.
type serverStream struct {
	grpc.ServerStream
}

func (s serverStream) Send(v domain.AggregatedBookView) error {
	return s.ServerStream.SendMsg(toAggregatedBookMessage(v))
}

func streamBooksHandler(srv any, stream grpc.ServerStream) error {
	h := srv.(*StreamHandler)

	var req wireSubscribeRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}

	return h.Handle(SubscribeRequest{Symbol: req.Symbol}, serverStream{stream})
}

// ServiceDesc is hand-assembled rather than protoc-generated: this tree
// carries no .proto stub, so the StreamBooks contract is wired directly
// against google.golang.org/grpc using the JSON codec registered in
// codec.go.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lobagg.book.BookService",
	HandlerType: (*any)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamBooks",
			Handler:       streamBooksHandler,
			ServerStreams: true,
		},
	},
	Metadata: "book.proto",
}
