package feed

import (
	"testing"

	"github.com/quantmesh/lobagg/business/book/domain"
)

func TestDecodeNewOrder(t *testing.T) {
	event, err := decode([]byte(`{"exchange":"A","kind":"new_order","sequence":1,"order_id":7,"side":"bid","price":"100.50","quantity":"2"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Exchange != "A" || event.Kind != domain.EventNewOrder || event.Order.OrderID != 7 {
		t.Fatalf("decoded event = %+v", event)
	}
}

func TestDecodeSnapshot(t *testing.T) {
	event, err := decode([]byte(`{"exchange":"A","kind":"snapshot","sequence":2,"bids":[["100.00","1"]],"asks":[["101.00","2"]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Kind != domain.EventSnapshot || len(event.Snapshot.Bids) != 1 || len(event.Snapshot.Asks) != 1 {
		t.Fatalf("decoded snapshot = %+v", event)
	}
}

func TestDecodeCancelOrder(t *testing.T) {
	event, err := decode([]byte(`{"exchange":"A","kind":"cancel_order","sequence":3,"order_id":7}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Kind != domain.EventCancelOrder || event.Order.OrderID != 7 {
		t.Fatalf("decoded event = %+v", event)
	}
}

func TestDecodeRejectsMissingExchange(t *testing.T) {
	if _, err := decode([]byte(`{"kind":"new_order"}`)); err == nil {
		t.Fatal("expected an error for a missing exchange field")
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := decode([]byte(`{"exchange":"A","kind":"bogus"}`)); err == nil {
		t.Fatal("expected an error for an unrecognized event kind")
	}
}

func TestDecodeRejectsMalformedDecimal(t *testing.T) {
	_, err := decode([]byte(`{"exchange":"A","kind":"new_order","side":"bid","price":"not-a-number","quantity":"1"}`))
	if err == nil {
		t.Fatal("expected an error for a malformed price")
	}
}

func TestDecodeRejectsUnknownSide(t *testing.T) {
	_, err := decode([]byte(`{"exchange":"A","kind":"new_order","side":"sideways","price":"1","quantity":"1"}`))
	if err == nil {
		t.Fatal("expected an error for an unrecognized side")
	}
}
