package proxy

import (
	"net/http"
	"strings"

	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
)

// Method is the closed set of HTTP methods the proxy forwards.
type Method int

const (
	MethodGet Method = iota + 1
	MethodPost
	MethodPut
	MethodDelete
)

// ParseMethod resolves a case-insensitive method name. Anything outside
// GET, POST, PUT and DELETE is an UnsupportedMethod error.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "get":
		return MethodGet, nil
	case "post":
		return MethodPost, nil
	case "put":
		return MethodPut, nil
	case "delete":
		return MethodDelete, nil
	default:
		return 0, apierrors.UnsupportedMethod(s)
	}
}

// String returns the canonical HTTP method name.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	default:
		return "UNKNOWN"
	}
}

// SendsBody reports whether the payload travels as a JSON body rather than
// as query parameters.
func (m Method) SendsBody() bool {
	return m == MethodPost || m == MethodPut
}
