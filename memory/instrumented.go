package memory

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/semanticmemory/core"
)

// Operation label values.
const (
	OpSaveInformation = "save_information"
	OpSaveReference   = "save_reference"
	OpGet             = "get"
	OpSearch          = "search"
	OpGetCollections  = "get_collections"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusMiss  = "miss"
	StatusError = "error"
)

// InstrumentOptions configures the metric names.
type InstrumentOptions struct {
	// Namespace prefixes every metric (defaults to "semanticmemory").
	Namespace string
	// ConstLabels are attached to every series, e.g. the backend name.
	ConstLabels prometheus.Labels
	// OpLogger, when set, also receives one entry per operation.
	// *logging.MemoryLogger implements it.
	OpLogger OperationLogger
}

// OperationLogger records the outcome of a memory operation.
type OperationLogger interface {
	LogMemoryOp(op, collection string, records int, dur time.Duration, err error)
}

// InstrumentedMemory decorates a core.TextMemory with Prometheus metrics:
// an operation counter by status, a latency histogram and a histogram of
// search result sizes. It adds no behaviour of its own.
type InstrumentedMemory struct {
	inner core.TextMemory
	log   OperationLogger

	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	searchResults prometheus.Histogram
}

// NewInstrumentedMemory wraps inner and registers its collectors with reg.
// Collectors already registered by another instance with the same namespace
// are shared.
func NewInstrumentedMemory(inner core.TextMemory, reg prometheus.Registerer, optFns ...func(o *InstrumentOptions)) (*InstrumentedMemory, error) {
	opts := InstrumentOptions{Namespace: "semanticmemory"}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := &InstrumentedMemory{
		inner: inner,
		log:   opts.OpLogger,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   opts.Namespace,
				Subsystem:   "memory",
				Name:        "operations_total",
				Help:        "Total number of text memory operations",
				ConstLabels: opts.ConstLabels,
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   opts.Namespace,
				Subsystem:   "memory",
				Name:        "operation_duration_seconds",
				Help:        "Duration of text memory operations in seconds",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: opts.ConstLabels,
			},
			[]string{"operation"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   opts.Namespace,
				Subsystem:   "memory",
				Name:        "search_results",
				Help:        "Number of records returned by a search",
				Buckets:     []float64{0, 1, 2, 5, 10, 25, 50},
				ConstLabels: opts.ConstLabels,
			},
		),
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.searchResults, err = register(reg, m.searchResults); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Unwrap returns the decorated memory.
func (m *InstrumentedMemory) Unwrap() core.TextMemory { return m.inner }

// SaveInformation implements core.TextMemory.
func (m *InstrumentedMemory) SaveInformation(ctx context.Context, collection, text, id string, optFns ...func(o *core.SaveOptions)) error {
	start := time.Now()
	err := m.inner.SaveInformation(ctx, collection, text, id, optFns...)
	m.observe(OpSaveInformation, collection, start, 1, status(err), err)
	return err
}

// SaveReference implements core.TextMemory.
func (m *InstrumentedMemory) SaveReference(ctx context.Context, collection, text, externalID, externalSourceName string, optFns ...func(o *core.SaveOptions)) error {
	start := time.Now()
	err := m.inner.SaveReference(ctx, collection, text, externalID, externalSourceName, optFns...)
	m.observe(OpSaveReference, collection, start, 1, status(err), err)
	return err
}

// Get implements core.TextMemory. A nil result is counted as a miss.
func (m *InstrumentedMemory) Get(ctx context.Context, collection, key string) (*core.MemoryQueryResult, error) {
	start := time.Now()
	res, err := m.inner.Get(ctx, collection, key)

	st, n := status(err), 1
	if err == nil && res == nil {
		st, n = StatusMiss, 0
	}
	m.observe(OpGet, collection, start, n, st, err)

	return res, err
}

// Search implements core.TextMemory.
func (m *InstrumentedMemory) Search(ctx context.Context, collection, query string, optFns ...func(o *core.SearchOptions)) ([]core.MemoryQueryResult, error) {
	start := time.Now()
	res, err := m.inner.Search(ctx, collection, query, optFns...)
	m.observe(OpSearch, collection, start, len(res), status(err), err)
	if err == nil {
		m.searchResults.Observe(float64(len(res)))
	}
	return res, err
}

// GetCollections implements core.TextMemory.
func (m *InstrumentedMemory) GetCollections(ctx context.Context) ([]string, error) {
	start := time.Now()
	res, err := m.inner.GetCollections(ctx)
	m.observe(OpGetCollections, "", start, len(res), status(err), err)
	return res, err
}

func (m *InstrumentedMemory) observe(op, collection string, start time.Time, records int, st string, err error) {
	dur := time.Since(start)

	m.operations.WithLabelValues(op, st).Inc()
	m.duration.WithLabelValues(op).Observe(dur.Seconds())

	if m.log != nil {
		m.log.LogMemoryOp(op, collection, records, dur, err)
	}
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
