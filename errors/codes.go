package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeHandshakeFailed indicates a transport handshake failure before registration.
	ErrCodeHandshakeFailed ErrorCode = "HANDSHAKE_FAILED"
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Client errors (not retryable)
const (
	// ErrCodeDecodeFailed indicates a malformed inbound control message or envelope.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodePayloadTooLarge indicates an event payload over the configured maximum.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrCodeInvalidInput indicates invalid request input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a missing required field.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeNotFound indicates a requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConnectionClosed indicates an operation on a closed connection.
	ErrCodeConnectionClosed ErrorCode = "CONNECTION_CLOSED"
)

// Server errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// retryableCodes lists codes for which a retry may succeed.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeHandshakeFailed:    true,
	ErrCodeTimeout:            true,
}

// IsRetryableCode reports whether an operation failing with the given code
// can be retried.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
