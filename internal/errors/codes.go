package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure seen by the gateway.
type Kind int

const (
	// Caller errors: never logged, no side effects.
	KindNotFound Kind = iota + 1
	KindUnsupportedMethod
	KindInvalidRequest

	// Backend errors: always produce exactly one error log entry.
	KindServiceUnavailable
	// KindUpstreamError only classifies log entries. The upstream response
	// itself is passed through to the caller, so it has no envelope mapping.
	KindUpstreamError
	KindInternalProxyError
)

// String returns the kind name as used in logs.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnsupportedMethod:
		return "UnsupportedMethod"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindServiceUnavailable:
		return "ServiceUnavailable"
	case KindUpstreamError:
		return "UpstreamError"
	case KindInternalProxyError:
		return "InternalProxyError"
	default:
		return "Unknown"
	}
}

// HTTPStatus maps a kind to the status code returned to the caller.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnsupportedMethod, KindInvalidRequest:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps a kind to the machine readable error code of the envelope.
func (k Kind) ErrorCode() ErrorCode {
	switch k {
	case KindNotFound:
		return ErrorCodeServiceNotFound
	case KindUnsupportedMethod:
		return ErrorCodeUnsupportedMethod
	case KindInvalidRequest:
		return ErrorCodeInvalidRequest
	case KindServiceUnavailable:
		return ErrorCodeServiceDown
	default:
		return ErrorCodeInternalError
	}
}

// GatewayError is a classified failure. Message is developer oriented and
// UserMessage is the stable text meant for end users. ErrorID is the error
// log index of the entry written for this failure, or nil when nothing was logged.
type GatewayError struct {
	Kind        Kind
	Detail      string
	Message     string
	UserMessage string
	ErrorID     *int
	Cause       error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Cause)
	}
	return e.Detail
}

// Unwrap returns the underlying error.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// WithErrorID attaches the error log reference.
func (e *GatewayError) WithErrorID(id int) *GatewayError {
	e.ErrorID = &id
	return e
}

// WithUserMessage attaches the translated message.
func (e *GatewayError) WithUserMessage(msg string) *GatewayError {
	e.UserMessage = msg
	return e
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(kind Kind, detail, message string, cause error) *GatewayError {
	return &GatewayError{
		Kind:    kind,
		Detail:  detail,
		Message: message,
		Cause:   cause,
	}
}

func ServiceNotFound(name string) *GatewayError {
	return NewGatewayError(KindNotFound, fmt.Sprintf("Service '%s' not found in registry", name), "", nil)
}

func UnsupportedMethod(method string) *GatewayError {
	return NewGatewayError(KindUnsupportedMethod, fmt.Sprintf("Unsupported method: %s", method), "", nil)
}

func InvalidRequest(message string, cause error) *GatewayError {
	return NewGatewayError(KindInvalidRequest, "Invalid request", message, cause)
}

func ServiceUnavailable(message string, cause error) *GatewayError {
	return NewGatewayError(KindServiceUnavailable, "Service Unavailable", message, cause)
}

func InternalProxyError(message string, cause error) *GatewayError {
	return NewGatewayError(KindInternalProxyError, "Internal Server Error", message, cause)
}

// AsGatewayError extracts a GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if stderrors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// GetKind extracts the failure kind from an error, defaulting to internal.
func GetKind(err error) Kind {
	if ge, ok := AsGatewayError(err); ok {
		return ge.Kind
	}
	return KindInternalProxyError
}
