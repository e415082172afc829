// Package di provides a minimal named-singleton service container used to
// wire bounded-context modules together in cmd/aggregator.
package di

import "sync"

// ServiceRegistry is the read side of the container: modules look up
// shared infrastructure (config, logger, the aggregation engine, ...) by
// name.
type ServiceRegistry interface {
	Get(name string) (any, bool)
	MustGet(name string) any
}

// Container is the read/write side: bootstrap code registers singletons
// before any module's Startup runs.
type Container interface {
	ServiceRegistry
	Register(name string, value any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = value
}

func (c *container) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.services[name]
	return v, ok
}

// MustGet panics if name was never registered. Intended for module wiring
// code where a missing dependency is a startup-time programming error.
func (c *container) MustGet(name string) any {
	v, ok := c.Get(name)
	if !ok {
		panic("di: service not registered: " + name)
	}
	return v
}
