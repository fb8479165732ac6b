package lansweeper

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Version is the SDK version reported in the default User-Agent.
const Version = "0.1.0"

// Defaults applied by DefaultOptions.
const (
	DefaultEndpoint         = "https://api.lansweeper.com/api/v2/graphql"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxRetryAttempts = 3
	DefaultRetryDelay       = time.Second
	DefaultMaxRetryDelay    = 30 * time.Second
)

// Options configures a Client. Build one with DefaultOptions and adjust the
// fields, or pass functional Option values to New.
type Options struct {
	// AccessToken is the LanSweeper personal access token. Required unless
	// TokenSource is set.
	AccessToken string
	Endpoint    string

	// RequestTimeout bounds each physical attempt, not the whole call.
	RequestTimeout time.Duration

	// MaxRetryAttempts is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetryAttempts      int
	RetryDelay            time.Duration
	UseExponentialBackoff bool
	MaxRetryDelay         time.Duration

	EnableRequestLogging  bool
	EnableResponseLogging bool
	// Logger receives all SDK logs. Nil discards them.
	Logger *zap.Logger

	// TokenSource supplies the access token per attempt. It takes precedence
	// over AccessToken.
	TokenSource oauth2.TokenSource
	// Transport is the innermost round tripper. Nil uses a clone of
	// http.DefaultTransport owned by the client.
	Transport http.RoundTripper
	// MetricsRegisterer, when set, receives per-attempt client metrics.
	MetricsRegisterer prometheus.Registerer
	// RateLimit throttles attempts client-side. Zero disables throttling.
	RateLimit rate.Limit
	RateBurst int

	UserAgent string
}

// DefaultOptions returns the documented defaults with no credentials.
func DefaultOptions() Options {
	return Options{
		Endpoint:              DefaultEndpoint,
		RequestTimeout:        DefaultRequestTimeout,
		MaxRetryAttempts:      DefaultMaxRetryAttempts,
		RetryDelay:            DefaultRetryDelay,
		UseExponentialBackoff: true,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		RateBurst:             1,
		UserAgent:             "lansweeper-go/" + Version,
	}
}

// Validate checks o and returns an *ArgumentError naming the first invalid
// field.
func (o Options) Validate() error {
	if o.TokenSource == nil && strings.TrimSpace(o.AccessToken) == "" {
		return &ArgumentError{Field: "AccessToken", Message: "access token is required"}
	}
	if strings.TrimSpace(o.Endpoint) == "" {
		return &ArgumentError{Field: "Endpoint", Message: "endpoint is required"}
	}
	u, err := url.Parse(o.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ArgumentError{Field: "Endpoint", Message: "endpoint must be a valid absolute URI"}
	}
	if o.RequestTimeout <= 0 {
		return &ArgumentError{Field: "RequestTimeout", Message: "request timeout must be positive"}
	}
	if o.MaxRetryAttempts < 0 {
		return &ArgumentError{Field: "MaxRetryAttempts", Message: "max retry attempts cannot be negative"}
	}
	if o.RetryDelay < 0 {
		return &ArgumentError{Field: "RetryDelay", Message: "retry delay cannot be negative"}
	}
	if o.MaxRetryDelay < 0 {
		return &ArgumentError{Field: "MaxRetryDelay", Message: "max retry delay cannot be negative"}
	}
	if o.RateLimit < 0 {
		return &ArgumentError{Field: "RateLimit", Message: "rate limit cannot be negative"}
	}
	return nil
}

// Option is a functional option for configuring a Client.
type Option func(*Options) error

// WithEndpoint overrides the GraphQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) error {
		o.Endpoint = endpoint
		return nil
	}
}

// WithRequestTimeout sets the per-attempt timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) error {
		o.RequestTimeout = d
		return nil
	}
}

// WithMaxRetryAttempts sets the number of retries. Zero disables retrying.
func WithMaxRetryAttempts(n int) Option {
	return func(o *Options) error {
		o.MaxRetryAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) error {
		o.RetryDelay = d
		return nil
	}
}

// WithExponentialBackoff toggles doubling the delay after each attempt.
func WithExponentialBackoff(enabled bool) Option {
	return func(o *Options) error {
		o.UseExponentialBackoff = enabled
		return nil
	}
}

// WithMaxRetryDelay caps the exponential delay. Zero retries without waiting.
func WithMaxRetryDelay(d time.Duration) Option {
	return func(o *Options) error {
		o.MaxRetryDelay = d
		return nil
	}
}

// WithRequestLogging logs outbound requests at Debug level. Bearer-style
// credentials in bodies are masked.
func WithRequestLogging() Option {
	return func(o *Options) error {
		o.EnableRequestLogging = true
		return nil
	}
}

// WithResponseLogging logs inbound responses at Debug level.
func WithResponseLogging() Option {
	return func(o *Options) error {
		o.EnableResponseLogging = true
		return nil
	}
}

// WithLogger sets the zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) error {
		o.Logger = l
		return nil
	}
}

// WithTokenSource supplies the access token from ts on every attempt.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *Options) error {
		o.TokenSource = ts
		return nil
	}
}

// WithTransport sets the innermost http.RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) error {
		o.Transport = rt
		return nil
	}
}

// WithMetrics registers per-attempt Prometheus metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) error {
		o.MetricsRegisterer = reg
		return nil
	}
}

// WithRateLimit throttles attempts to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) error {
		o.RateLimit = rate.Limit(rps)
		o.RateBurst = burst
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *Options) error {
		o.UserAgent = ua
		return nil
	}
}
