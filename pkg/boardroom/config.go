package boardroom

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
)

// ExecutionContext is reported to the service in the X-Client-Type header.
// It is resolved once at construction and never sniffed from the runtime.
type ExecutionContext = httpclient.ClientType

const (
	ExecutionServer  ExecutionContext = httpclient.ClientTypeServer
	ExecutionBrowser ExecutionContext = httpclient.ClientTypeBrowser
)

const (
	DefaultBaseEndpoint = httpclient.DefaultBaseEndpoint
	DefaultTimeout      = httpclient.DefaultTimeout
	DefaultMaxRetries   = httpclient.DefaultMaxRetries
	Version             = httpclient.Version
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIKey     = "BOARDROOM_API_KEY"
	EnvBaseURL    = "BOARDROOM_BASE_URL"
	EnvTimeoutMS  = "BOARDROOM_TIMEOUT_MS"
	EnvMaxRetries = "BOARDROOM_MAX_RETRIES"
	EnvClientType = "BOARDROOM_CLIENT_TYPE"
)

// Config is the client configuration. Start from DefaultConfig or
// ConfigFromEnv: a literal Config{} has MaxRetries 0, which disables retries.
type Config struct {
	APIKey           string
	BaseEndpoint     string
	Timeout          time.Duration
	MaxRetries       int
	ExecutionContext ExecutionContext
	UserAgent        string
}

func DefaultConfig() Config {
	return Config{
		BaseEndpoint:     DefaultBaseEndpoint,
		Timeout:          DefaultTimeout,
		MaxRetries:       DefaultMaxRetries,
		ExecutionContext: ExecutionServer,
	}
}

// ConfigFromEnv reads the BOARDROOM_* environment variables. Unset values
// keep their defaults.
func ConfigFromEnv() Config {
	v := viper.New()
	v.SetEnvPrefix("boardroom")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return ConfigFromViper(v)
}

// ConfigFromViper reads api_key, base_url, timeout_ms, max_retries and
// client_type from v. The CLI binds its flags to the same keys.
func ConfigFromViper(v *viper.Viper) Config {
	v.SetDefault("base_url", DefaultBaseEndpoint)
	v.SetDefault("timeout_ms", DefaultTimeout.Milliseconds())
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("client_type", string(ExecutionServer))

	cfg := Config{
		APIKey:           strings.TrimSpace(v.GetString("api_key")),
		BaseEndpoint:     v.GetString("base_url"),
		Timeout:          time.Duration(v.GetInt64("timeout_ms")) * time.Millisecond,
		MaxRetries:       v.GetInt("max_retries"),
		ExecutionContext: httpclient.ParseClientType(v.GetString("client_type")),
		UserAgent:        v.GetString("user_agent"),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

func (c Config) executorConfig() httpclient.Config {
	return httpclient.Config{
		Credential:   c.APIKey,
		BaseEndpoint: c.BaseEndpoint,
		Timeout:      c.Timeout,
		MaxRetries:   c.MaxRetries,
		ClientType:   c.ExecutionContext,
		SDKVersion:   Version,
		UserAgent:    c.UserAgent,
	}
}
