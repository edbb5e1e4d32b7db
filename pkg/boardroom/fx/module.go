package boardroomfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/JailtonJunior94/boardroom-go/pkg/boardroom"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/noop"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/otel"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/prom"
)

// Module provides a *boardroom.Client configured from BOARDROOM_* variables.
// Usage:
//
//	fx.New(
//	    boardroomfx.Module,
//	    fx.Invoke(func(c *boardroom.Client) { ... }),
//	)
var Module = fx.Module("boardroom",
	fx.Provide(
		boardroom.ConfigFromEnv,
		ProvideClient,
	),
)

// ModuleWithConfig provides the client from an inline config.
func ModuleWithConfig(cfg boardroom.Config) fx.Option {
	return fx.Module("boardroom",
		fx.Supply(cfg),
		fx.Provide(ProvideClient),
	)
}

// OtelModule provides observability.Observability backed by OpenTelemetry.
// The provider is flushed and shut down when the app stops.
// Usage:
//
//	fx.New(
//	    boardroomfx.Module,
//	    boardroomfx.OtelModule,
//	    fx.Supply(otel.DefaultConfig("billing-api")),
//	)
var OtelModule = fx.Module("boardroom-otel",
	fx.Provide(ProvideOtel),
)

// PromModule provides observability.Observability whose metrics are
// Prometheus collectors. It registers on the supplied prometheus.Registerer,
// or the default registerer when none is provided. Use it instead of
// OtelModule, not alongside it.
// Usage:
//
//	fx.New(
//	    boardroomfx.Module,
//	    boardroomfx.PromModule,
//	    fx.Supply(fx.Annotate(reg, fx.As(new(prometheus.Registerer)))),
//	)
var PromModule = fx.Module("boardroom-prom",
	fx.Provide(ProvidePrometheus),
)

// ClientParams contains dependencies for creating the client.
type ClientParams struct {
	fx.In

	Config        boardroom.Config
	Observability observability.Observability `optional:"true"`
	Options       []boardroom.Option          `group:"boardroom_options"`
}

// ClientResult contains the client output.
type ClientResult struct {
	fx.Out

	Client *boardroom.Client
}

// ProvideClient fails the app start with AUTH_REQUIRED when no API key is configured.
func ProvideClient(p ClientParams) (ClientResult, error) {
	opts := make([]boardroom.Option, 0, len(p.Options)+1)
	if p.Observability != nil {
		opts = append(opts, boardroom.WithObservability(p.Observability))
	}
	opts = append(opts, p.Options...)

	client, err := boardroom.NewFromConfig(p.Config, opts...)
	if err != nil {
		return ClientResult{}, err
	}
	return ClientResult{Client: client}, nil
}

// AsOption registers a boardroom.Option for ProvideClient.
//
//	fx.Provide(boardroomfx.AsOption(func() boardroom.Option {
//	    return boardroom.WithMaxRetries(5)
//	}))
func AsOption(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"boardroom_options"`))
}

// OtelParams contains dependencies for creating the OpenTelemetry provider.
type OtelParams struct {
	fx.In

	Config *otel.Config
	LC     fx.Lifecycle
}

// ObservabilityResult contains the observability output of OtelModule or PromModule.
type ObservabilityResult struct {
	fx.Out

	Observability observability.Observability
}

func ProvideOtel(p OtelParams) (ObservabilityResult, error) {
	provider, err := otel.NewProvider(context.Background(), p.Config)
	if err != nil {
		return ObservabilityResult{}, err
	}

	p.LC.Append(fx.Hook{
		OnStop: provider.Shutdown,
	})
	return ObservabilityResult{Observability: provider}, nil
}

// PromParams contains dependencies for the Prometheus-backed observability.
type PromParams struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
	Logger     observability.Logger  `optional:"true"`
}

func ProvidePrometheus(p PromParams) ObservabilityResult {
	n := noop.NewProvider()
	logger := p.Logger
	if logger == nil {
		logger = n.Logger()
	}
	metrics := prom.New(p.Registerer)
	return ObservabilityResult{Observability: observability.Compose(n.Tracer(), logger, metrics)}
}
