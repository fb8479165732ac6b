package lansweeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"github.com/jmerrifield20/lansweeper-go/internal/gqldoc"
	"github.com/jmerrifield20/lansweeper-go/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds the size of a decoded GraphQL response.
const maxResponseBytes = 32 << 20

// Client is the LanSweeper SDK entry point. It is safe for concurrent use.
type Client struct {
	opts     Options
	logger   *zap.Logger
	endpoint string

	transport http.RoundTripper
	pipeline  http.RoundTripper

	closeOnce sync.Once
	closed    atomic.Bool
}

// New creates a Client authenticated with accessToken.
//
//	c, err := lansweeper.New(os.Getenv("LANSWEEPER_TOKEN"),
//	    lansweeper.WithMaxRetryAttempts(5),
//	    lansweeper.WithLogger(logger),
//	)
func New(accessToken string, opts ...Option) (*Client, error) {
	o := DefaultOptions()
	o.AccessToken = accessToken
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return NewWithOptions(o)
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(accessToken string, opts ...Option) *Client {
	c, err := New(accessToken, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewWithOptions creates a Client from a complete Options value.
func NewWithOptions(o Options) (*Client, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := o.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	tokens := o.TokenSource
	if tokens == nil {
		tokens = pipeline.StaticToken(o.AccessToken)
	}

	cfg := pipeline.Config{
		Logger:         logger,
		TokenSource:    tokens,
		RequestTimeout: o.RequestTimeout,
		Retry: pipeline.RetryPolicy{
			MaxRetries:  o.MaxRetryAttempts,
			BaseDelay:   o.RetryDelay,
			MaxDelay:    o.MaxRetryDelay,
			Exponential: o.UseExponentialBackoff,
		},
		LogRequests:  o.EnableRequestLogging,
		LogResponses: o.EnableResponseLogging,
	}
	if o.MetricsRegisterer != nil {
		m, err := pipeline.NewMetrics(o.MetricsRegisterer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		cfg.Metrics = m
	}
	if o.RateLimit > 0 {
		burst := o.RateBurst
		if burst < 1 {
			burst = 1
		}
		cfg.Limiter = rate.NewLimiter(o.RateLimit, burst)
	}

	return &Client{
		opts:      o,
		logger:    logger,
		endpoint:  o.Endpoint,
		transport: transport,
		pipeline:  pipeline.Assemble(transport, cfg),
	}, nil
}

// Options returns the configuration the client was built with.
func (c *Client) Options() Options { return c.opts }

// Close releases idle connections held by the client's transport. It is
// safe to call more than once. Operations started after Close fail with
// ErrClientClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if ci, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
			ci.CloseIdleConnections()
		}
	})
	return nil
}

// Request is a GraphQL operation to execute.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is the GraphQL response envelope.
type Response[T any] struct {
	Data   *T             `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// HasErrors reports whether the server returned protocol errors.
func (r *Response[T]) HasErrors() bool { return len(r.Errors) > 0 }

// Execute runs req and decodes the response envelope. HTTP and transport
// failures are returned as errors; protocol errors are left in the
// envelope for the caller to inspect.
func Execute[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	var env Response[T]
	if err := c.send(ctx, req, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Query runs an arbitrary GraphQL query and returns its data. Protocol
// errors become a KindGraphQL error; a response without data becomes a
// KindAPI error.
func Query[T any](ctx context.Context, c *Client, query string, variables map[string]any) (*T, error) {
	c.logger.Debug("executing custom graphql query", zap.String("operation", gqldoc.OperationName(query)))

	env, err := Execute[T](ctx, c, Request{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL("custom GraphQL query failed", env.Errors)
	}
	if env.Data == nil {
		return nil, apierrors.New("query returned no data", nil)
	}
	return env.Data, nil
}

// Raw runs query and returns the undecoded "data" object.
func (c *Client) Raw(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	data, err := Query[json.RawMessage](ctx, c, query, variables)
	if err != nil {
		return nil, err
	}
	if string(*data) == "null" {
		return nil, apierrors.New("query returned no data", nil)
	}
	return *data, nil
}

func (c *Client) send(ctx context.Context, req Request, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if strings.TrimSpace(req.Query) == "" {
		return &ArgumentError{Field: "query", Message: "query is required"}
	}
	if info, err := gqldoc.Inspect(req.Query, req.OperationName); err == nil && info.IsSubscription() {
		return &ArgumentError{Field: "query", Message: "subscriptions are not supported"}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return &ArgumentError{Field: "variables", Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return apierrors.New("build request", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.pipeline.RoundTrip(httpReq)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &apierrors.Error{
			Kind:       apierrors.KindAPI,
			Message:    "decode response",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	return nil
}

// classify turns a pipeline failure into exactly one taxonomy error, or the
// caller's context error when the caller cancelled.
func (c *Client) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		return err
	}
	return apierrors.New("request failed", err)
}
