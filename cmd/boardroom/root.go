package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JailtonJunior94/boardroom-go/pkg/boardroom"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/noop"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/otel"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/prom"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/zaplog"
)

const serviceName = "boardroom-cli"

type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return newApp(out, errOut).rootCmd()
}

func newApp(out, errOut io.Writer) *app {
	a := &app{v: viper.New(), out: out, errOut: errOut}
	a.v.SetEnvPrefix("boardroom")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	return a
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "boardroom",
		Short: "Boardroom API client",
		Long: `boardroom talks to the Boardroom decision service.

Every flag can also be set through a BOARDROOM_* environment variable,
for example BOARDROOM_API_KEY or BOARDROOM_BASE_URL.

Examples:
  boardroom board consult "expand to the EU market?"
  boardroom board history
  boardroom agent consult cfo "what is our runway?" --new-thread
  boardroom knowledge upload ./q3-report.pdf --title "Q3 report"
  boardroom knowledge delete 01J9ZQ...`,
		Version:       boardroom.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.String("api-key", "", "API key sent in X-API-Key")
	flags.String("base-url", boardroom.DefaultBaseEndpoint, "Service base endpoint")
	flags.Duration("timeout", boardroom.DefaultTimeout, "Per-attempt timeout")
	flags.Int("max-retries", boardroom.DefaultMaxRetries, "Retries for overload and transport failures")
	flags.String("client-type", string(boardroom.ExecutionServer), "Reported client type (Server/Browser)")
	flags.String("log-level", "warn", "Log level (debug/info/warn/error)")
	flags.String("log-format", string(observability.LogFormatText), "Log format on stderr (text/json)")
	flags.String("otlp-endpoint", "", "Export traces and metrics to this OTLP collector")
	flags.Bool("otlp-insecure", false, "Disable TLS towards the OTLP collector")
	flags.Bool("metrics", false, "Print client metrics in Prometheus text format to stderr")

	for key, flag := range map[string]string{
		"api_key":       "api-key",
		"base_url":      "base-url",
		"max_retries":   "max-retries",
		"client_type":   "client-type",
		"log_level":     "log-level",
		"log_format":    "log-format",
		"otlp_endpoint": "otlp-endpoint",
		"otlp_insecure": "otlp-insecure",
		"metrics":       "metrics",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	root.AddCommand(
		a.boardCmd(),
		a.agentCmd(),
		a.knowledgeCmd(),
		a.devServerCmd(),
	)
	return root
}

func (a *app) config(cmd *cobra.Command) (boardroom.Config, error) {
	cfg := boardroom.ConfigFromViper(a.v)

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return boardroom.Config{}, err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = serviceName + "/" + boardroom.Version
	}
	return cfg, nil
}

// observability wires zap for logs and, when an OTLP endpoint is set, the
// OpenTelemetry tracer and meter. With --metrics, client metrics go to a
// Prometheus registry that is dumped to stderr on flush.
func (a *app) observability(ctx context.Context) (observability.Observability, func(context.Context) error, error) {
	logger := a.newLogger()
	n := noop.NewProvider()
	tracer, metrics := n.Tracer(), n.Metrics()
	shutdown := func(context.Context) error { return nil }

	if endpoint := a.v.GetString("otlp_endpoint"); endpoint != "" {
		cfg := otel.DefaultConfig(serviceName)
		cfg.ServiceVersion = boardroom.Version
		cfg.OTLPEndpoint = endpoint
		cfg.Insecure = a.v.GetBool("otlp_insecure")
		cfg.LogLevel = observability.ParseLogLevel(a.v.GetString("log_level"))

		provider, err := otel.NewProvider(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start telemetry: %w", err)
		}
		tracer, metrics, shutdown = provider.Tracer(), provider.Metrics(), provider.Shutdown
	}

	var registry *prometheus.Registry
	if a.v.GetBool("metrics") {
		registry = prometheus.NewRegistry()
		metrics = prom.New(registry)
	}

	flush := func(ctx context.Context) error {
		_ = logger.Sync()
		if registry != nil {
			if err := writeMetrics(a.errOut, registry); err != nil {
				return err
			}
		}
		return shutdown(ctx)
	}
	return observability.Compose(tracer, logger, metrics), flush, nil
}

func (a *app) newLogger() *zaplog.Logger {
	level := observability.ParseLogLevel(a.v.GetString("log_level"))
	if strings.EqualFold(a.v.GetString("log_format"), string(observability.LogFormatJSON)) {
		return zaplog.NewJSON(a.errOut, level)
	}
	return zaplog.NewConsole(a.errOut, level)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}

// run builds a client, performs call and prints the JSON result indented.
func (a *app) run(cmd *cobra.Command, call func(context.Context, *boardroom.Client) (boardroom.Result, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := a.config(cmd)
	if err != nil {
		return err
	}

	o11y, flush, err := a.observability(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = flush(shutdownCtx)
	}()

	client, err := boardroom.NewFromConfig(cfg, boardroom.WithObservability(o11y))
	if err != nil {
		return err
	}

	res, err := call(ctx, client)
	if err != nil {
		return err
	}
	return a.print(res)
}

func (a *app) print(res boardroom.Result) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, res, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := a.out.Write(buf.Bytes())
	return err
}
