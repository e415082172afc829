// Package di contains dependency injection tokens for the book bounded context.
package di

// DI tokens for the book module.
const (
	Engine             = "book.Engine"
	PriceBandCalc      = "book.PriceBandCalculator"
	StreamHandler      = "book.StreamHandler"
)
