package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Order-book domain error codes
const (
	// Decimal arithmetic
	CodeParseError    Code = "DECIMAL_PARSE_ERROR"
	CodeDivideByZero  Code = "DECIMAL_DIVIDE_BY_ZERO"
	CodeOverflow      Code = "DECIMAL_OVERFLOW"

	// Limit order book
	CodeExchangeMismatch Code = "EXCHANGE_MISMATCH"
	CodeStaleEvent       Code = "STALE_EVENT"

	// RPC streaming adapter
	CodeAuthFailure      Code = "AUTH_FAILURE"
	CodeSymbolMismatch   Code = "SYMBOL_MISMATCH"
	CodeTransportFailure Code = "TRANSPORT_FAILURE"

	// Feed adapters
	CodeFeedConnectionFailed Code = "FEED_CONNECTION_FAILED"
	CodeFeedDecodeFailed     Code = "FEED_DECODE_FAILED"
)
