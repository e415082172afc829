package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Decimal arithmetic
	CodeParseError:   "Malformed decimal literal",
	CodeDivideByZero: "Division by zero",
	CodeOverflow:     "Decimal magnitude exceeds 128 bits",

	// Limit order book
	CodeExchangeMismatch: "Event exchange does not match the book's exchange",
	CodeStaleEvent:       "Event sequence is not newer than the last applied sequence",

	// RPC streaming adapter
	CodeAuthFailure:      "Authorization token missing or incorrect",
	CodeSymbolMismatch:   "Requested symbol does not match the configured symbol",
	CodeTransportFailure: "Streaming transport failed to deliver a message",

	// Feed adapters
	CodeFeedConnectionFailed: "Failed to connect to upstream feed",
	CodeFeedDecodeFailed:     "Failed to decode upstream feed message",
}
