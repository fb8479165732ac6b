// Package pipeline implements the staged HTTP request pipeline every SDK
// call travels through. A pipeline is an ordered list of stages wrapped
// around a transport; each stage may inspect or replace the request before
// handing it to the next one and inspect the response on the way back.
package pipeline

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Stage is one link in the pipeline.
type Stage interface {
	Process(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func (f StageFunc) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	return f(req, next)
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps transport with stages. stages[0] is the outermost.
func Chain(transport http.RoundTripper, stages ...Stage) http.RoundTripper {
	next := transport
	for i := len(stages) - 1; i >= 0; i-- {
		stage, inner := stages[i], next
		next = RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return stage.Process(req, inner)
		})
	}
	return next
}

// Config selects and parameterises the stages of a pipeline.
type Config struct {
	Logger *zap.Logger

	TokenSource oauth2.TokenSource
	// AuthScheme defaults to "Token".
	AuthScheme string

	// RequestTimeout bounds each physical attempt. Zero disables it.
	RequestTimeout time.Duration

	Retry RetryPolicy

	LogRequests  bool
	LogResponses bool

	// Metrics is optional.
	Metrics *Metrics
	// Limiter is optional.
	Limiter *rate.Limiter
}

// Stages returns the configured stages, outermost first:
//
//	Errors -> Logging? -> Retry? -> Metrics? -> RateLimit? -> Auth -> Timeout?
func Stages(cfg Config) []Stage {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stages := []Stage{&Errors{Logger: logger}}
	if cfg.LogRequests || cfg.LogResponses {
		stages = append(stages, &Logging{
			Logger:    logger,
			Requests:  cfg.LogRequests,
			Responses: cfg.LogResponses,
		})
	}
	if cfg.Retry.MaxRetries > 0 {
		stages = append(stages, &Retry{
			Policy:    cfg.Retry,
			Logger:    logger,
			LogBodies: cfg.LogResponses,
		})
	}
	if cfg.Metrics != nil {
		stages = append(stages, cfg.Metrics)
	}
	if cfg.Limiter != nil {
		stages = append(stages, &RateLimit{Limiter: cfg.Limiter})
	}
	stages = append(stages, &Auth{Source: cfg.TokenSource, Scheme: cfg.AuthScheme})
	if cfg.RequestTimeout > 0 {
		stages = append(stages, &Timeout{Duration: cfg.RequestTimeout})
	}
	return stages
}

// Assemble builds the pipeline described by cfg around transport.
func Assemble(transport http.RoundTripper, cfg Config) http.RoundTripper {
	return Chain(transport, Stages(cfg)...)
}
