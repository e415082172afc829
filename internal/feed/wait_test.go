package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantmesh/lobagg/internal/config"
)

func TestShouldWaitDefaultsToTrue(t *testing.T) {
	if !shouldWait("") {
		t.Fatal("empty env value should default to waiting")
	}
}

func TestShouldWaitRecognizesFalseValues(t *testing.T) {
	for _, v := range []string{"0", "false", "No", "OFF"} {
		if shouldWait(v) {
			t.Fatalf("shouldWait(%q) = true, want false", v)
		}
	}
}

func TestCollectHostsDedupsAndSkipsUnparseable(t *testing.T) {
	feeds := []config.FeedConfig{
		{Name: "a", URL: "wss://feed.example.com/stream"},
		{Name: "b", URL: "wss://feed.example.com/other"},
		{Name: "c", URL: "wss://other.example.com/stream"},
		{Name: "d", URL: "://not-a-url"},
	}
	hosts := CollectHosts(feeds, nil)
	if len(hosts) != 2 {
		t.Fatalf("hosts = %v, want 2 unique entries", hosts)
	}
}

func TestWaitReachableRetriesUntilResolved(t *testing.T) {
	attempts := 0
	resolver := func(ctx context.Context, host string) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := WaitReachable(context.Background(), []string{"host-a"}, resolver, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("WaitReachable: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestWaitReachableStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReachable(ctx, []string{"host-a"}, func(context.Context, string) error {
		return errors.New("never reachable")
	}, time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected WaitReachable to return the context error")
	}
}
