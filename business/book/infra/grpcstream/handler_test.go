package grpcstream

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/domain"
)

type fakeSender struct {
	ctx context.Context

	mu   sync.Mutex
	sent []domain.AggregatedBookView
}

func (f *fakeSender) Context() context.Context { return f.ctx }

func (f *fakeSender) Send(v domain.AggregatedBookView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestHandler(t *testing.T, auth string) (*StreamHandler, *app.Engine) {
	t.Helper()
	e, err := app.New(nil)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return NewStreamHandler(e, "BTC-USD", auth, nil), e
}

func TestAuthorizeNoTokenConfiguredAllowsAnyCall(t *testing.T) {
	h, _ := newTestHandler(t, "")
	if err := h.authorize(context.Background()); err != nil {
		t.Fatalf("authorize() = %v, want nil when no token is configured", err)
	}
}

func TestAuthorizeRejectsMissingMetadata(t *testing.T) {
	h, _ := newTestHandler(t, "secret")
	err := h.authorize(context.Background())
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("authorize() = %v, want Unauthenticated", err)
	}
}

func TestAuthorizeAcceptsBearerPrefixedToken(t *testing.T) {
	h, _ := newTestHandler(t, "secret")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))
	if err := h.authorize(ctx); err != nil {
		t.Fatalf("authorize() = %v, want nil for a matching bearer token", err)
	}
}

func TestAuthorizeRejectsWrongToken(t *testing.T) {
	h, _ := newTestHandler(t, "secret")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "wrong"))
	err := h.authorize(ctx)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("authorize() = %v, want Unauthenticated", err)
	}
}

func TestHandleRejectsMismatchedSymbol(t *testing.T) {
	h, _ := newTestHandler(t, "")
	sender := &fakeSender{ctx: context.Background()}
	err := h.Handle(SubscribeRequest{Symbol: "ETH-USD"}, sender)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Handle() = %v, want InvalidArgument", err)
	}
}

func TestHandleStreamsPublishedViews(t *testing.T) {
	h, e := newTestHandler(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	sender := &fakeSender{ctx: ctx}

	done := make(chan error, 1)
	go func() { done <- h.Handle(SubscribeRequest{}, sender) }()

	e.Push(domain.BookEvent{
		Exchange: "A", Kind: domain.EventNewOrder, Sequence: 1,
		Order: domain.Order{OrderID: 1, Side: domain.SideBid, Price: mustDec(t, "100.00"), Quantity: mustDec(t, "1")},
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sender.count() == 0 {
		time.Sleep(time.Millisecond)
	}
	if sender.count() == 0 {
		t.Fatal("expected at least one view to be streamed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle did not return after context cancellation")
	}
}

func mustDec(t *testing.T, s string) domain.Decimal {
	t.Helper()
	d, err := domain.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return d
}
