package observability

// Observability bundles the three signals the SDK emits.
// Executors and facades only ever receive this interface; the concrete provider
// (noop, fake, otel, zap/prometheus adapters) is chosen by the application.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Field is a key-value pair shared by log entries, span attributes and metric labels.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates a field under the "error" key.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Compose returns a provider that takes each signal from a different source.
// Useful when logs go to zap while metrics go to prometheus, for example.
func Compose(tracer Tracer, logger Logger, metrics Metrics) Observability {
	return composite{tracer: tracer, logger: logger, metrics: metrics}
}

type composite struct {
	tracer  Tracer
	logger  Logger
	metrics Metrics
}

func (c composite) Tracer() Tracer   { return c.tracer }
func (c composite) Logger() Logger   { return c.logger }
func (c composite) Metrics() Metrics { return c.metrics }
