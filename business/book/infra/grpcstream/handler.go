// Package grpcstream adapts the engine's push/subscribe API to a single
// streaming RPC, StreamBooks. The business logic in StreamHandler is
// transport-agnostic: it depends only on a Sender port, so it can be
// exercised directly in tests without a running gRPC server.
package grpcstream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/domain"
	"github.com/quantmesh/lobagg/internal/logger"
	"github.com/quantmesh/lobagg/internal/queue"
)

const (
	perCallQueueCapacity = 64
	pollTimeout          = 100 * time.Millisecond
)

// Sender abstracts one outbound message write plus the call's context, the
// only two things StreamHandler needs from the transport.
type Sender interface {
	Send(domain.AggregatedBookView) error
	Context() context.Context
}

// SubscribeRequest is the transport-independent request payload.
type SubscribeRequest struct {
	Symbol string
}

// StreamHandler implements StreamBooks (§4.8) independent of the transport.
type StreamHandler struct {
	engine       *app.Engine
	symbol       string
	expectedAuth string
	log          logger.LoggerInterface
}

// NewStreamHandler builds a handler for symbol, requiring expectedAuth (if
// non-empty) on every call.
func NewStreamHandler(engine *app.Engine, symbol, expectedAuth string, log logger.LoggerInterface) *StreamHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &StreamHandler{engine: engine, symbol: symbol, expectedAuth: expectedAuth, log: log}
}

// Handle authorizes and filters the request, then fans out engine views to
// stream for the life of the call.
func (h *StreamHandler) Handle(req SubscribeRequest, stream Sender) error {
	ctx := stream.Context()
	callID := uuid.New().String()

	if err := h.authorize(ctx); err != nil {
		return err
	}
	if req.Symbol != "" && req.Symbol != h.symbol {
		return status.Errorf(codes.InvalidArgument, "unsupported symbol %q", req.Symbol)
	}

	q := queue.NewBounded[domain.AggregatedBookView](perCallQueueCapacity)

	var mu sync.Mutex
	active := true

	subID := h.engine.Subscribe(func(v domain.AggregatedBookView) {
		mu.Lock()
		a := active
		mu.Unlock()
		if a {
			q.Push(v)
		}
	})
	h.log.Debug(ctx, "stream call started", "call_id", callID, "symbol", h.symbol)

	defer func() {
		mu.Lock()
		active = false
		mu.Unlock()
		q.Close()
		h.engine.Unsubscribe(subID)
		h.log.Debug(ctx, "stream call ended", "call_id", callID)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		view, ok := q.WaitPopFor(pollTimeout)
		if !ok {
			if q.Closed() {
				return nil
			}
			continue
		}
		if err := stream.Send(view); err != nil {
			h.log.Debug(ctx, "stream call write failed", "call_id", callID, "error", err)
			return err
		}
	}
}

// authorize checks the "authorization" metadata item, stripping an optional
// "Bearer " prefix, against the configured token. A call is unauthenticated
// whenever a non-empty token is configured and the caller's does not match.
func (h *StreamHandler) authorize(ctx context.Context) error {
	if h.expectedAuth == "" {
		return nil
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization metadata")
	}

	token := strings.TrimPrefix(values[0], "Bearer ")
	if token != h.expectedAuth {
		return status.Error(codes.Unauthenticated, "invalid authorization token")
	}
	return nil
}
