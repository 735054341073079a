// Package handler provides HTTP request handlers for the health gateway.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
	"github.com/TorkeTejas/bus-management-cc/internal/errorlog"
	"github.com/TorkeTejas/bus-management-cc/internal/health"
	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"github.com/TorkeTejas/bus-management-cc/internal/proxy"
	"github.com/TorkeTejas/bus-management-cc/internal/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultErrorLimit is the number of entries GET /errors returns without a limit.
const DefaultErrorLimit = 50

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	registry     *registry.Registry
	monitor      *health.Monitor
	errors       *errorlog.Log
	proxy        *proxy.Proxy
	metrics      *metrics.Metrics
	errorHandler *apierrors.Handler
	validate     *validator.Validate
	defaultLimit int
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	reg *registry.Registry,
	monitor *health.Monitor,
	errs *errorlog.Log,
	px *proxy.Proxy,
	m *metrics.Metrics,
	errorHandler *apierrors.Handler,
	defaultLimit int,
	logger *zap.Logger,
) *Handlers {
	if defaultLimit <= 0 {
		defaultLimit = DefaultErrorLimit
	}

	return &Handlers{
		registry:     reg,
		monitor:      monitor,
		errors:       errs,
		proxy:        px,
		metrics:      m,
		errorHandler: errorHandler,
		validate:     newValidator(),
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// Livez handles GET /livez. It only reports that this process is serving.
func (h *Handlers) Livez(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HealthAll handles GET /health.
func (h *Handlers) HealthAll(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.monitor.Statuses(r.Context()))
}

// HealthOne handles GET /health/{name}.
func (h *Handlers) HealthOne(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	status, err := h.monitor.Status(r.Context(), name)
	if err != nil {
		h.handleLookupError(w, r, name, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, status)
}

// RecentErrors handles GET /errors?limit=N.
func (h *Handlers) RecentErrors(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorHandler.WriteValidationError(w, "limit must be a positive integer", requestID)
			return
		}
		limit = n
	}

	h.writeJSONResponse(w, http.StatusOK, h.errors.Recent(limit))
}

// ServiceErrors handles GET /errors/{name}.
func (h *Handlers) ServiceErrors(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	entries, err := h.errors.ForService(name)
	if err != nil {
		h.handleLookupError(w, r, name, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, entries)
}

// ErrorByID handles GET /errors/id/{id}, resolving an error_id returned by
// the proxy to its log entry.
func (h *Handlers) ErrorByID(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 0 {
		h.errorHandler.WriteValidationError(w, "id must be a non-negative integer", requestID)
		return
	}

	entry, ok := h.errors.Get(id)
	if !ok {
		h.errorHandler.WriteErrorResponse(w, http.StatusNotFound, apierrors.ErrorResponse{
			Detail:    fmt.Sprintf("Error %d not found", id),
			ErrorCode: apierrors.ErrorCodeErrorNotFound,
			RequestID: requestID,
		})
		return
	}

	h.writeJSONResponse(w, http.StatusOK, entry)
}

// Proxy handles POST /proxy.
func (h *Handlers) Proxy(w http.ResponseWriter, r *http.Request) {
	var req model.ProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequest(fmt.Sprintf("invalid request body: %v", err), err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequest(validationMessage(err), err))
		return
	}

	result, err := h.proxy.Forward(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// ListRegistry handles GET /registry.
func (h *Handlers) ListRegistry(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.registry.List())
}

// RegisterService handles POST /registry/{name}?url=...
func (h *Handlers) RegisterService(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	name := mux.Vars(r)["name"]
	url := r.URL.Query().Get("url")

	if err := h.validate.Var(url, "required,url"); err != nil {
		h.errorHandler.WriteValidationError(w, "url query parameter must be an absolute URL", requestID)
		return
	}

	h.registry.Register(name, url)
	h.metrics.SetRegisteredServices(h.registry.Len())

	h.writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Service '%s' registered at %s", name, url),
	})
}

// DeregisterService handles DELETE /registry/{name}.
func (h *Handlers) DeregisterService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.registry.Deregister(name); err != nil {
		h.handleLookupError(w, r, name, err)
		return
	}
	h.metrics.SetRegisteredServices(h.registry.Len())

	h.writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Service '%s' deregistered", name),
	})
}

func (h *Handlers) handleLookupError(w http.ResponseWriter, r *http.Request, name string, err error) {
	if errors.Is(err, registry.ErrNotFound) {
		h.errorHandler.WriteServiceNotFound(w, name, r.Header.Get("X-Request-ID"))
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
