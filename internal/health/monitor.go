// Package health probes registered services and keeps their latest status.
package health

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultProbeTimeout bounds a single liveness probe.
	DefaultProbeTimeout = 3 * time.Second
	// DefaultProbePath is appended to a service base URL to build the probe endpoint.
	DefaultProbePath = "/"
)

// Registry is the read side of the service registry used by the monitor.
type Registry interface {
	Resolve(name string) (string, error)
	List() map[string]string
}

// ErrorRecorder appends failures to the error log and returns the entry index.
type ErrorRecorder interface {
	Record(service, endpoint string, statusCode int, errorMessage, userMessage string, details *model.RequestDetails) int
}

// Translator turns a service name into a user-facing message.
type Translator interface {
	Translate(serviceName string) string
}

// Config holds monitor settings.
type Config struct {
	ProbeTimeout time.Duration
	ProbePath    string
}

// Monitor probes services and writes the results to a StatusStore.
type Monitor struct {
	registry   Registry
	store      *StatusStore
	errors     ErrorRecorder
	translator Translator
	metrics    *metrics.Metrics
	client     *http.Client
	cfg        Config
	logger     *zap.Logger
}

// NewMonitor creates a new Monitor. A nil client uses a dedicated http.Client.
func NewMonitor(
	reg Registry,
	store *StatusStore,
	errs ErrorRecorder,
	tr Translator,
	m *metrics.Metrics,
	client *http.Client,
	cfg Config,
	logger *zap.Logger,
) *Monitor {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.ProbePath == "" {
		cfg.ProbePath = DefaultProbePath
	}
	if client == nil {
		client = &http.Client{}
	}

	return &Monitor{
		registry:   reg,
		store:      store,
		errors:     errs,
		translator: tr,
		metrics:    m,
		client:     client,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProbeOne issues one bounded liveness request to url and stores the result.
//
// A response below 300 is up, any other response is degraded, and a transport
// failure or timeout is down with a zero response time plus one error log
// entry. Cancelling ctx does not abort the probe; only the probe timeout does.
func (m *Monitor) ProbeOne(ctx context.Context, name, url string) model.ServiceStatus {
	endpoint := strings.TrimSuffix(url, "/") + m.cfg.ProbePath

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	statusCode, err := m.doProbe(probeCtx, endpoint)
	elapsed := time.Since(start)

	status := model.ServiceStatus{
		ServiceName: name,
		Endpoint:    endpoint,
	}

	switch {
	case err != nil:
		status.Status = model.ServiceStateDown
		status.ResponseTime = 0
		status.UserMessage = m.translator.Translate(name)

		m.errors.Record(name, endpoint, http.StatusServiceUnavailable, err.Error(), status.UserMessage, nil)
		m.logger.Warn("service probe failed",
			zap.String("service", name),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
	case statusCode < http.StatusMultipleChoices:
		status.Status = model.ServiceStateUp
		status.ResponseTime = float64(elapsed.Microseconds()) / 1000
	default:
		status.Status = model.ServiceStateDegraded
		status.ResponseTime = float64(elapsed.Microseconds()) / 1000
		status.UserMessage = m.translator.Translate(name)

		m.logger.Warn("service degraded",
			zap.String("service", name),
			zap.String("endpoint", endpoint),
			zap.Int("status_code", statusCode),
		)
	}

	status.LastChecked = time.Now()
	m.store.Set(status)
	m.metrics.RecordProbe(name, string(status.Status), elapsed)

	return status
}

func (m *Monitor) doProbe(ctx context.Context, endpoint string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}

// ProbeAll probes every service of the current registry snapshot in
// parallel and returns once all probes have finished.
func (m *Monitor) ProbeAll(ctx context.Context) map[string]model.ServiceStatus {
	snapshot := m.registry.List()
	results := make(map[string]model.ServiceStatus, len(snapshot))
	var mu sync.Mutex

	var g errgroup.Group
	for name, url := range snapshot {
		name, url := name, url
		g.Go(func() error {
			status := m.ProbeOne(ctx, name, url)

			mu.Lock()
			results[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	down := 0
	for _, s := range results {
		if !s.IsUp() {
			down++
		}
	}
	m.logger.Info("health check completed",
		zap.Int("services", len(results)),
		zap.Int("not_up", down),
	)

	return results
}

// Status probes name now and returns the fresh result.
func (m *Monitor) Status(ctx context.Context, name string) (model.ServiceStatus, error) {
	url, err := m.registry.Resolve(name)
	if err != nil {
		return model.ServiceStatus{}, err
	}
	return m.ProbeOne(ctx, name, url), nil
}

// Statuses probes every registered service and returns the whole store,
// which may include stale entries for deregistered services.
func (m *Monitor) Statuses(ctx context.Context) map[string]model.ServiceStatus {
	m.ProbeAll(ctx)
	return m.store.All()
}
