package fake

import (
	"context"
	"sync"
	"time"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// Provider records every span, log entry and metric so tests can assert on them.
type Provider struct {
	tracer  *FakeTracer
	logger  *FakeLogger
	metrics *FakeMetrics
}

func NewProvider() *Provider {
	return &Provider{
		tracer:  NewFakeTracer(),
		logger:  NewFakeLogger(),
		metrics: NewFakeMetrics(),
	}
}

func (p *Provider) Tracer() observability.Tracer {
	return p.tracer
}

func (p *Provider) Logger() observability.Logger {
	return p.logger
}

func (p *Provider) Metrics() observability.Metrics {
	return p.metrics
}

type spanKey struct{}

// FakeTracer captures spans. Unlike a real tracer it never exports anything,
// but spans are stored in the returned context so SpanFromContext finds them.
type FakeTracer struct {
	mu    sync.RWMutex
	spans []*FakeSpan
}

func NewFakeTracer() *FakeTracer {
	return &FakeTracer{
		spans: make([]*FakeSpan, 0),
	}
}

func (t *FakeTracer) Start(ctx context.Context, spanName string, opts ...observability.SpanOption) (context.Context, observability.Span) {
	config := observability.NewSpanConfig(opts)

	span := &FakeSpan{
		Name:       spanName,
		Kind:       config.Kind(),
		StartTime:  time.Now(),
		Attributes: append([]observability.Field(nil), config.Attributes()...),
		Events:     make([]FakeEvent, 0),
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()

	return context.WithValue(ctx, spanKey{}, span), span
}

// SpanFromContext returns the span started on ctx, or a detached span when none exists.
func (t *FakeTracer) SpanFromContext(ctx context.Context) observability.Span {
	if span, ok := ctx.Value(spanKey{}).(*FakeSpan); ok {
		return span
	}
	return &FakeSpan{}
}

// GetSpans returns a snapshot of captured spans.
func (t *FakeTracer) GetSpans() []*FakeSpan {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]*FakeSpan, len(t.spans))
	copy(result, t.spans)
	return result
}

// SpansNamed returns captured spans with the given name, in start order.
func (t *FakeTracer) SpansNamed(name string) []*FakeSpan {
	result := make([]*FakeSpan, 0)
	for _, span := range t.GetSpans() {
		if span.Name == name {
			result = append(result, span)
		}
	}
	return result
}

func (t *FakeTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = make([]*FakeSpan, 0)
}

type FakeSpan struct {
	mu          sync.RWMutex
	Name        string
	Kind        observability.SpanKind
	StartTime   time.Time
	EndTime     *time.Time
	Attributes  []observability.Field
	Events      []FakeEvent
	Status      observability.StatusCode
	StatusDesc  string
	RecordedErr error
}

func (s *FakeSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
}

func (s *FakeSpan) SetAttributes(fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attributes = append(s.Attributes, fields...)
}

func (s *FakeSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = code
	s.StatusDesc = description
}

func (s *FakeSpan) RecordError(err error, fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordedErr = err
	s.Attributes = append(s.Attributes, fields...)
}

func (s *FakeSpan) AddEvent(name string, fields ...observability.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, FakeEvent{
		Name:      name,
		Timestamp: time.Now(),
		Fields:    fields,
	})
}

func (s *FakeSpan) Context() observability.SpanContext {
	return &FakeSpanContext{
		traceID: "fake-trace-id",
		spanID:  "fake-span-id",
		sampled: true,
	}
}

// Attribute returns the last value recorded for key. Later SetAttributes calls win.
func (s *FakeSpan) Attribute(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.Attributes) - 1; i >= 0; i-- {
		if s.Attributes[i].Key == key {
			return s.Attributes[i].Value, true
		}
	}
	return nil, false
}

// EventsNamed returns the span events with the given name.
func (s *FakeSpan) EventsNamed(name string) []FakeEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]FakeEvent, 0)
	for _, event := range s.Events {
		if event.Name == name {
			result = append(result, event)
		}
	}
	return result
}

type FakeEvent struct {
	Name      string
	Timestamp time.Time
	Fields    []observability.Field
}

type FakeSpanContext struct {
	traceID string
	spanID  string
	sampled bool
}

func (c *FakeSpanContext) TraceID() string {
	return c.traceID
}

func (c *FakeSpanContext) SpanID() string {
	return c.spanID
}

func (c *FakeSpanContext) IsSampled() bool {
	return c.sampled
}

// FakeLogger captures log entries. Children created with With share the
// parent's entry buffer.
type FakeLogger struct {
	mu      *sync.RWMutex
	entries *[]LogEntry
	fields  []observability.Field
}

func NewFakeLogger() *FakeLogger {
	entries := make([]LogEntry, 0)
	return &FakeLogger{
		mu:      &sync.RWMutex{},
		entries: &entries,
		fields:  make([]observability.Field, 0),
	}
}

func (l *FakeLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelDebug, msg, fields)
}

func (l *FakeLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelInfo, msg, fields)
}

func (l *FakeLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelWarn, msg, fields)
}

func (l *FakeLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelError, msg, fields)
}

func (l *FakeLogger) record(level observability.LogLevel, msg string, fields []observability.Field) {
	all := make([]observability.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{
		Level:     level,
		Message:   msg,
		Fields:    all,
		Timestamp: time.Now(),
	})
}

func (l *FakeLogger) With(fields ...observability.Field) observability.Logger {
	child := make([]observability.Field, 0, len(l.fields)+len(fields))
	child = append(child, l.fields...)
	child = append(child, fields...)
	return &FakeLogger{
		mu:      l.mu,
		entries: l.entries,
		fields:  child,
	}
}

func (l *FakeLogger) GetEntries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]LogEntry, len(*l.entries))
	copy(result, *l.entries)
	return result
}

// EntriesAt returns captured entries at the given level.
func (l *FakeLogger) EntriesAt(level observability.LogLevel) []LogEntry {
	result := make([]LogEntry, 0)
	for _, entry := range l.GetEntries() {
		if entry.Level == level {
			result = append(result, entry)
		}
	}
	return result
}

func (l *FakeLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = make([]LogEntry, 0)
}

type LogEntry struct {
	Level     observability.LogLevel
	Message   string
	Fields    []observability.Field
	Timestamp time.Time
}

// Field returns the value of key in the entry.
func (e LogEntry) Field(key string) (any, bool) {
	for _, field := range e.Fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

type FakeMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*FakeCounter
	histograms map[string]*FakeHistogram
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{
		counters:   make(map[string]*FakeCounter),
		histograms: make(map[string]*FakeHistogram),
	}
}

func (m *FakeMetrics) Counter(name, description, unit string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, exists := m.counters[name]; exists {
		return c
	}

	c := &FakeCounter{
		Name:        name,
		Description: description,
		Unit:        unit,
		values:      make([]CounterValue, 0),
	}
	m.counters[name] = c
	return c
}

func (m *FakeMetrics) Histogram(name, description, unit string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, exists := m.histograms[name]; exists {
		return h
	}

	h := &FakeHistogram{
		Name:        name,
		Description: description,
		Unit:        unit,
		values:      make([]HistogramValue, 0),
	}
	m.histograms[name] = h
	return h
}

func (m *FakeMetrics) GetCounter(name string) *FakeCounter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

func (m *FakeMetrics) GetHistogram(name string) *FakeHistogram {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.histograms[name]
}

type FakeCounter struct {
	mu          sync.RWMutex
	Name        string
	Description string
	Unit        string
	values      []CounterValue
}

func (c *FakeCounter) Add(ctx context.Context, value int64, fields ...observability.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, CounterValue{
		Value:     value,
		Fields:    fields,
		Timestamp: time.Now(),
	})
}

func (c *FakeCounter) Increment(ctx context.Context, fields ...observability.Field) {
	c.Add(ctx, 1, fields...)
}

func (c *FakeCounter) GetValues() []CounterValue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]CounterValue, len(c.values))
	copy(result, c.values)
	return result
}

// Total sums every recorded value.
func (c *FakeCounter) Total() int64 {
	var total int64
	for _, v := range c.GetValues() {
		total += v.Value
	}
	return total
}

type CounterValue struct {
	Value     int64
	Fields    []observability.Field
	Timestamp time.Time
}

type FakeHistogram struct {
	mu          sync.RWMutex
	Name        string
	Description string
	Unit        string
	values      []HistogramValue
}

func (h *FakeHistogram) Record(ctx context.Context, value float64, fields ...observability.Field) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, HistogramValue{
		Value:     value,
		Fields:    fields,
		Timestamp: time.Now(),
	})
}

func (h *FakeHistogram) GetValues() []HistogramValue {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]HistogramValue, len(h.values))
	copy(result, h.values)
	return result
}

type HistogramValue struct {
	Value     float64
	Fields    []observability.Field
	Timestamp time.Time
}
