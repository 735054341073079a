// Package proxy forwards request descriptors to registered backends and
// classifies the failures it sees.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/TorkeTejas/bus-management-cc/internal/errors"
	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one forwarded request.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of an upstream body is read. Larger bodies fail
// the request instead of being truncated.
const maxBodySize = 10 << 20

// Resolver looks up a service base URL.
type Resolver interface {
	Resolve(name string) (string, error)
}

// ErrorRecorder appends failures to the error log and returns the entry index.
type ErrorRecorder interface {
	Record(service, endpoint string, statusCode int, errorMessage, userMessage string, details *model.RequestDetails) int
}

// Translator turns a service name into a user-facing message.
type Translator interface {
	Translate(serviceName string) string
}

// Proxy forwards requests to backends resolved through the registry.
type Proxy struct {
	registry   Resolver
	errors     ErrorRecorder
	translator Translator
	metrics    *metrics.Metrics
	client     *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProxy creates a new Proxy. A nil client uses a dedicated http.Client.
func NewProxy(
	reg Resolver,
	errs ErrorRecorder,
	tr Translator,
	m *metrics.Metrics,
	client *http.Client,
	timeout time.Duration,
	logger *zap.Logger,
) *Proxy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}

	return &Proxy{
		registry:   reg,
		errors:     errs,
		translator: tr,
		metrics:    m,
		client:     client,
		timeout:    timeout,
		logger:     logger,
	}
}

// Forward sends req to its target service.
//
// Unknown targets and unsupported methods fail without any side effect.
// Transport failures and unexpected errors are logged and returned as a
// *apierrors.GatewayError that references the log entry. Upstream answers
// of 400 and above are logged too but still returned as a result, with
// ErrorID set.
func (p *Proxy) Forward(ctx context.Context, req model.ProxyRequest) (*model.ProxyResult, error) {
	baseURL, err := p.registry.Resolve(req.TargetService)
	if err != nil {
		ge := apierrors.ServiceNotFound(req.TargetService)
		ge.Cause = err
		return nil, ge
	}

	endpoint := strings.TrimLeft(req.Endpoint, "/")
	fullURL := baseURL + "/" + endpoint

	method, err := ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	details := &model.RequestDetails{
		Method:  req.Method,
		URL:     fullURL,
		Data:    req.Data,
		Headers: req.Headers,
	}

	start := time.Now()
	result, err := p.forward(ctx, method, fullURL, req)
	elapsed := time.Since(start)

	if err != nil {
		p.metrics.RecordProxyRequest(req.TargetService, method.String(), 0, elapsed)
		p.logger.Warn("proxy request failed",
			zap.String("service", req.TargetService),
			zap.String("endpoint", endpoint),
			zap.Stringer("kind", apierrors.GetKind(err)),
			zap.Error(err),
		)
		return nil, p.fail(req.TargetService, endpoint, details, err)
	}

	p.metrics.RecordProxyRequest(req.TargetService, method.String(), result.StatusCode, elapsed)

	if result.StatusCode >= http.StatusBadRequest {
		userMessage := p.translator.Translate(req.TargetService)
		id := p.errors.Record(req.TargetService, endpoint, result.StatusCode, result.rawBody, userMessage, details)
		result.ErrorID = &id

		p.logger.Warn("upstream returned error status",
			zap.String("service", req.TargetService),
			zap.Stringer("kind", apierrors.KindUpstreamError),
			zap.String("endpoint", endpoint),
			zap.Int("status_code", result.StatusCode),
			zap.Int("error_id", id),
		)
	}

	return &result.ProxyResult, nil
}

// fail logs a transport or internal failure and returns the classified error.
func (p *Proxy) fail(service, endpoint string, details *model.RequestDetails, err error) error {
	ge, ok := apierrors.AsGatewayError(err)
	if !ok {
		ge = apierrors.InternalProxyError(fmt.Sprintf("Unexpected error: %v", err), err)
	}

	statusCode := http.StatusInternalServerError
	if ge.Kind == apierrors.KindServiceUnavailable {
		statusCode = http.StatusServiceUnavailable
	}

	userMessage := p.translator.Translate(service)
	id := p.errors.Record(service, endpoint, statusCode, ge.Message, userMessage, details)

	return ge.WithUserMessage(userMessage).WithErrorID(id)
}

// upstreamResult carries the raw body alongside the envelope so it can be logged.
type upstreamResult struct {
	model.ProxyResult
	rawBody string
}

func (p *Proxy) forward(ctx context.Context, method Method, fullURL string, req model.ProxyRequest) (upstreamResult, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	httpReq, err := buildRequest(callCtx, method, fullURL, req.Data)
	if err != nil {
		return upstreamResult{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return upstreamResult{}, apierrors.ServiceUnavailable(
			fmt.Sprintf("Request to %s failed: %v", req.TargetService, err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return upstreamResult{}, apierrors.ServiceUnavailable(
			fmt.Sprintf("Request to %s failed: %v", req.TargetService, err), err)
	}
	if len(body) > maxBodySize {
		return upstreamResult{}, apierrors.InternalProxyError(
			fmt.Sprintf("Response from %s exceeds %d bytes", req.TargetService, maxBodySize), nil)
	}

	data, err := decodeBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return upstreamResult{}, err
	}

	return upstreamResult{
		ProxyResult: model.ProxyResult{
			StatusCode: resp.StatusCode,
			Headers:    flattenHeaders(resp.Header),
			Data:       data,
			Service:    req.TargetService,
		},
		rawBody: string(body),
	}, nil
}

// buildRequest encodes data as query parameters for GET and DELETE, and as
// a JSON body for POST and PUT.
func buildRequest(ctx context.Context, method Method, fullURL string, data map[string]any) (*http.Request, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target url %q: %w", fullURL, err)
	}

	var body io.Reader
	if method.SendsBody() {
		if data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			body = bytes.NewReader(payload)
		}
	} else if len(data) > 0 {
		q := u.Query()
		for k, v := range data {
			for _, s := range queryValues(v) {
				q.Add(k, s)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method.String(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func queryValues(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{val}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(val)}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, queryValues(item)...)
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}

// decodeBody parses JSON bodies and passes everything else through as text.
func decodeBody(contentType string, body []byte) (any, error) {
	if !isJSON(contentType) {
		return string(body), nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode upstream JSON body: %w", err)
	}
	return data, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
