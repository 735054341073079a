// Package errorlog keeps the append-only history of backend failures.
package errorlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/TorkeTejas/bus-management-cc/internal/metrics"
	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"github.com/TorkeTejas/bus-management-cc/internal/registry"
	"go.uber.org/zap"
)

// Membership tells the log which service names are known.
type Membership interface {
	Contains(name string) bool
}

// Log is an unbounded, append-only list of failures in arrival order.
// Appends are serialized by a single mutex, so the index returned by Append
// is stable and usable as an error reference.
type Log struct {
	entries []model.ErrorLogEntry
	mu      sync.RWMutex
	members Membership
	metrics *metrics.Metrics
	logger  *zap.Logger
	nowFunc func() time.Time
}

// New creates an empty error log.
func New(members Membership, m *metrics.Metrics, logger *zap.Logger) *Log {
	return &Log{
		members: members,
		metrics: m,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Record builds an entry stamped with the current time and appends it.
func (l *Log) Record(service, endpoint string, statusCode int, errorMessage, userMessage string, details *model.RequestDetails) int {
	return l.Append(model.ErrorLogEntry{
		Timestamp:      l.nowFunc(),
		ServiceName:    service,
		Endpoint:       endpoint,
		StatusCode:     statusCode,
		ErrorMessage:   errorMessage,
		UserMessage:    userMessage,
		RequestDetails: details,
	})
}

// Append stores entry and returns its index.
func (l *Log) Append(entry model.ErrorLogEntry) int {
	entry.IsResolved = false

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	id := len(l.entries) - 1
	l.mu.Unlock()

	l.metrics.RecordErrorLogged(entry.ServiceName, entry.StatusCode)
	l.logger.Error("service error",
		zap.Int("error_id", id),
		zap.String("service", entry.ServiceName),
		zap.String("endpoint", entry.Endpoint),
		zap.Int("status_code", entry.StatusCode),
		zap.String("error_message", entry.ErrorMessage),
	)

	return id
}

// Recent returns up to limit of the newest entries, oldest first.
func (l *Log) Recent(limit int) []model.ErrorLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		return []model.ErrorLogEntry{}
	}

	start := 0
	if len(l.entries) > limit {
		start = len(l.entries) - limit
	}

	out := make([]model.ErrorLogEntry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// ForService returns every entry for name in arrival order. It fails only
// when name is not a registry member; a known service without failures
// yields an empty slice.
func (l *Log) ForService(name string) ([]model.ErrorLogEntry, error) {
	if !l.members.Contains(name) {
		return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, name)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.ErrorLogEntry, 0)
	for _, e := range l.entries {
		if e.ServiceName == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get returns the entry with the given index.
func (l *Log) Get(id int) (model.ErrorLogEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if id < 0 || id >= len(l.entries) {
		return model.ErrorLogEntry{}, false
	}
	return l.entries[id], true
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
