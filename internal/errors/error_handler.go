// Package errors provides the failure taxonomy and HTTP error envelopes for the health gateway.
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorCode represents application-specific error codes.
type ErrorCode string

const (
	ErrorCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrorCodeServiceNotFound   ErrorCode = "SERVICE_NOT_FOUND"
	ErrorCodeUnsupportedMethod ErrorCode = "UNSUPPORTED_METHOD"
	ErrorCodeServiceDown       ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeErrorNotFound     ErrorCode = "ERROR_NOT_FOUND"
	ErrorCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorCodeEndpointNotFound  ErrorCode = "ENDPOINT_NOT_FOUND"
	ErrorCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
)

// ErrorResponse is the failure envelope. Detail and Message are for developers,
// UserMessage is the only field meant to be shown to end users.
type ErrorResponse struct {
	Detail         string    `json:"detail"`
	Message        string    `json:"message,omitempty"`
	UserMessage    string    `json:"user_message,omitempty"`
	ErrorID        *int      `json:"error_id,omitempty"`
	ErrorCode      ErrorCode `json:"error_code"`
	RequestID      string    `json:"request_id,omitempty"`
	SupportContact string    `json:"support_contact,omitempty"`
}

// Handler provides error handling functionality.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// HandleError classifies err and writes the matching envelope.
// Errors that are not GatewayErrors are reported as internal errors.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := r.Header.Get("X-Request-ID")

	ge, ok := AsGatewayError(err)
	if !ok {
		ge = InternalProxyError(err.Error(), err)
	}

	h.WriteErrorResponse(w, ge.Kind.HTTPStatus(), ErrorResponse{
		Detail:      ge.Detail,
		Message:     ge.Message,
		UserMessage: ge.UserMessage,
		ErrorID:     ge.ErrorID,
		ErrorCode:   ge.Kind.ErrorCode(),
		RequestID:   requestID,
	})
}

// WriteErrorResponse writes a formatted error response to the HTTP response writer.
func (h *Handler) WriteErrorResponse(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.String("error_code", string(resp.ErrorCode)),
		zap.String("detail", resp.Detail),
		zap.String("request_id", resp.RequestID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// WriteValidationError writes a validation error response.
func (h *Handler) WriteValidationError(w http.ResponseWriter, message string, requestID string) {
	h.WriteErrorResponse(w, http.StatusBadRequest, ErrorResponse{
		Detail:    message,
		ErrorCode: ErrorCodeInvalidRequest,
		RequestID: requestID,
	})
}

// WriteServiceNotFound writes the 404 used for names missing from the registry.
func (h *Handler) WriteServiceNotFound(w http.ResponseWriter, name string, requestID string) {
	ge := ServiceNotFound(name)
	h.WriteErrorResponse(w, http.StatusNotFound, ErrorResponse{
		Detail:    ge.Detail,
		ErrorCode: ErrorCodeServiceNotFound,
		RequestID: requestID,
	})
}

// WriteRateLimitedError writes a rate limit exceeded response.
func (h *Handler) WriteRateLimitedError(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusTooManyRequests, ErrorResponse{
		Detail:    "rate limit exceeded",
		ErrorCode: ErrorCodeRateLimited,
		RequestID: requestID,
	})
}
