package app

import (
	"sync"

	"github.com/quantmesh/lobagg/business/book/domain"
)

// subscriberRegistry tracks active subscriber callbacks under a lock shared
// with the owning engine. Subscription is O(1) and atomic; delivery (done
// by the engine's publisher loop) is O(n) per view against a snapshot taken
// under the same lock, so Unsubscribe called from inside a callback never
// perturbs the delivery already in flight.
type subscriberRegistry struct {
	mu      *sync.Mutex
	entries map[uint64]func(domain.AggregatedBookView)
	nextID  uint64
}

func newSubscriberRegistry(mu *sync.Mutex) subscriberRegistry {
	return subscriberRegistry{mu: mu, entries: make(map[uint64]func(domain.AggregatedBookView))}
}

// Subscribe registers callback and returns its opaque, monotonically
// increasing id. Never fails.
func (r *subscriberRegistry) Subscribe(callback func(domain.AggregatedBookView)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[id] = callback
	return id
}

// Unsubscribe removes id if present. Safe to call concurrently with publish
// and from inside a callback.
func (r *subscriberRegistry) Unsubscribe(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Snapshot returns the current callbacks for delivery outside the lock.
func (r *subscriberRegistry) Snapshot() []func(domain.AggregatedBookView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]func(domain.AggregatedBookView), 0, len(r.entries))
	for _, cb := range r.entries {
		out = append(out, cb)
	}
	return out
}

// Count reports the number of active subscribers.
func (r *subscriberRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
