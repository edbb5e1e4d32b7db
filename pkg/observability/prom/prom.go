// Package prom implements observability.Metrics with Prometheus collectors.
//
// Instrument names are sanitized to Prometheus conventions: dots become
// underscores, counters get a _total suffix and histograms carry their unit,
// so boardroom.client.request.count is exported as
// boardroom_client_request_count_total.
//
// Label names are fixed at first use of an instrument. Later calls carrying
// different field keys have missing labels filled with "" and unknown ones
// dropped.
package prom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// DefaultBuckets cover request latencies in milliseconds, including the
// multi-second retry waits.
var DefaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

type Metrics struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

type Option func(*Metrics)

func WithNamespace(ns string) Option {
	return func(m *Metrics) { m.namespace = ns }
}

func WithBuckets(b []float64) Option {
	return func(m *Metrics) { m.buckets = b }
}

// New uses prometheus.DefaultRegisterer when reg is nil.
func New(reg prometheus.Registerer, opts ...Option) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		registerer: reg,
		buckets:    DefaultBuckets,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Metrics) Counter(name, description, unit string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &counter{metrics: m, name: sanitize(name) + "_total", help: help(description, name)}
	m.counters[name] = c
	return c
}

func (m *Metrics) Histogram(name, description, unit string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h
	}
	promName := sanitize(name)
	if u := sanitize(unit); u != "" && !strings.HasSuffix(promName, "_"+u) {
		promName += "_" + u
	}
	h := &histogram{metrics: m, name: promName, help: help(description, name)}
	m.histograms[name] = h
	return h
}

type counter struct {
	metrics *Metrics
	name    string
	help    string

	once   sync.Once
	labels []string
	vec    *prometheus.CounterVec
}

func (c *counter) Add(ctx context.Context, value int64, fields ...observability.Field) {
	if value < 0 {
		return
	}
	c.once.Do(func() {
		c.labels = labelNames(fields)
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.metrics.namespace,
			Name:      c.name,
			Help:      c.help,
		}, c.labels)
		c.vec = register(c.metrics.registerer, vec)
	})
	c.vec.WithLabelValues(labelValues(c.labels, fields)...).Add(float64(value))
}

func (c *counter) Increment(ctx context.Context, fields ...observability.Field) {
	c.Add(ctx, 1, fields...)
}

type histogram struct {
	metrics *Metrics
	name    string
	help    string

	once   sync.Once
	labels []string
	vec    *prometheus.HistogramVec
}

func (h *histogram) Record(ctx context.Context, value float64, fields ...observability.Field) {
	h.once.Do(func() {
		h.labels = labelNames(fields)
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: h.metrics.namespace,
			Name:      h.name,
			Help:      h.help,
			Buckets:   h.metrics.buckets,
		}, h.labels)
		h.vec = register(h.metrics.registerer, vec)
	})
	h.vec.WithLabelValues(labelValues(h.labels, fields)...).Observe(value)
}

// register returns the already registered collector when an identical one
// exists, e.g. two clients sharing the default registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func labelNames(fields []observability.Field) []string {
	names := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		n := sanitize(f.Key)
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}

func labelValues(names []string, fields []observability.Field) []string {
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[sanitize(f.Key)] = fmt.Sprint(f.Value)
	}
	values := make([]string, len(names))
	for i, n := range names {
		values[i] = byName[n]
	}
	return values
}

func sanitize(s string) string {
	s = strings.Trim(s, "{}")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func help(description, name string) string {
	if description != "" {
		return description
	}
	return name
}
