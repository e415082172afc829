// Package book implements the order-book aggregation bounded context: the
// per-venue domain model, the cross-venue aggregation engine, band
// calculators, and the adapters (feed ingestion, gRPC streaming) around it.
package book

import (
	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/di"
	"github.com/quantmesh/lobagg/internal/config"
	dicontainer "github.com/quantmesh/lobagg/internal/di"
	"github.com/quantmesh/lobagg/internal/logger"
)

// RegisterServices builds the book context's application services and
// registers them with container. It returns the engine directly as well,
// since the caller needs it to start/stop the engine and wire the RPC
// server.
func RegisterServices(container dicontainer.Container, cfg config.BookConfig, log logger.LoggerInterface) (*app.Engine, error) {
	engine, err := app.New(log)
	if err != nil {
		return nil, err
	}
	if len(cfg.ExpectedExchanges) > 0 {
		engine.SetExpectedExchanges(cfg.ExpectedExchanges)
	}

	container.Register(di.Engine, engine)
	container.Register(di.PriceBandCalc, app.NewPriceBandCalculator())

	return engine, nil
}
