package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// forwardedHeaders are copied from the inbound request to the backend.
var forwardedHeaders = []string{"Authorization", "X-Request-ID"}

// Route describes a front-gateway route served by a backend.
type Route struct {
	Path    string
	Method  string
	Service string
	// Endpoint builds the backend path from the matched request.
	Endpoint func(r *http.Request) string
}

// GatewayRoutes lists the public routes forwarded to the bus booking backends.
func GatewayRoutes() []Route {
	static := func(p string) func(*http.Request) string {
		return func(*http.Request) string { return p }
	}

	return []Route{
		{Path: "/bookings", Method: http.MethodGet, Service: "bus-booking", Endpoint: static("/bookings")},
		{Path: "/bookings", Method: http.MethodPost, Service: "bus-booking", Endpoint: static("/bookings")},
		{Path: "/buses", Method: http.MethodGet, Service: "bus-service", Endpoint: static("/buses")},
		{Path: "/buses/{bus_id}", Method: http.MethodGet, Service: "bus-service", Endpoint: func(r *http.Request) string {
			return "/buses/" + mux.Vars(r)["bus_id"]
		}},
		{Path: "/users/register", Method: http.MethodPost, Service: "user-service", Endpoint: static("/users/register")},
		{Path: "/users/login", Method: http.MethodPost, Service: "user-service", Endpoint: static("/users/login")},
	}
}

// Gateway returns a handler that forwards the request to route.Service and
// answers with the backend's own status code and body.
func (h *Handlers) Gateway(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")

		data, err := requestData(r)
		if err != nil {
			h.errorHandler.WriteValidationError(w, err.Error(), requestID)
			return
		}

		headers := make(map[string]string)
		for _, k := range forwardedHeaders {
			if v := r.Header.Get(k); v != "" {
				headers[k] = v
			}
		}

		result, err := h.proxy.Forward(r.Context(), model.ProxyRequest{
			TargetService: route.Service,
			Endpoint:      route.Endpoint(r),
			Method:        route.Method,
			Data:          data,
			Headers:       headers,
		})
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		if text, ok := result.Data.(string); ok {
			contentType := result.Headers["content-type"]
			if contentType == "" {
				contentType = "text/plain; charset=utf-8"
			}
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(result.StatusCode)
			if _, err := io.WriteString(w, text); err != nil {
				h.logger.Error("failed to write response", zap.Error(err))
			}
			return
		}

		h.writeJSONResponse(w, result.StatusCode, result.Data)
	}
}

// requestData reads query parameters for GET requests and the JSON object
// body for everything else.
func requestData(r *http.Request) (map[string]any, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodDelete {
		query := r.URL.Query()
		if len(query) == 0 {
			return nil, nil
		}
		data := make(map[string]any, len(query))
		for k, vs := range query {
			if len(vs) == 1 {
				data[k] = vs[0]
				continue
			}
			items := make([]any, len(vs))
			for i, v := range vs {
				items[i] = v
			}
			data[k] = items
		}
		return data, nil
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return data, nil
}
