package model

import "time"

// RequestDetails captures the outbound request that produced a failure.
type RequestDetails struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Data    map[string]any    `json:"data,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ErrorLogEntry is one recorded failure. Entries are never mutated after they
// are appended; IsResolved is carried for API compatibility and stays false.
type ErrorLogEntry struct {
	Timestamp      time.Time       `json:"timestamp"`
	ServiceName    string          `json:"service_name"`
	Endpoint       string          `json:"endpoint"`
	StatusCode     int             `json:"status_code"`
	ErrorMessage   string          `json:"error_message"`
	UserMessage    string          `json:"user_message"`
	RequestDetails *RequestDetails `json:"request_details,omitempty"`
	IsResolved     bool            `json:"is_resolved"`
}
