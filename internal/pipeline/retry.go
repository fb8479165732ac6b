package pipeline

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"go.uber.org/zap"
)

// RetryPolicy controls how many times and how far apart attempts are made.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Exponential bool
}

// Delay returns the wait after the given 0-based attempt. Exponential delays
// are min(BaseDelay*2^attempt, MaxDelay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay && d < math.MaxInt64/2; i++ {
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// Retry re-issues a request on transport failures, attempt timeouts, 429
// and 5xx responses.
type Retry struct {
	Policy RetryPolicy
	Logger *zap.Logger
	// LogBodies includes the (truncated) body of discarded responses in the
	// per-attempt log line.
	LogBodies bool

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (r *Retry) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	ctx := req.Context()
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := r.Policy.MaxRetries + 1

	var lastErr error
	for attempt := 0; ; attempt++ {
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, apierrors.New("rewind request body", err)
		}

		resp, err := next.RoundTrip(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !retryableError(err) {
				return nil, err
			}
			lastErr = err
			if attempt >= r.Policy.MaxRetries {
				return nil, apierrors.Exhausted(r.Policy.MaxRetries, lastErr)
			}
			delay := r.Policy.Delay(attempt)
			logger.Warn("request attempt failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("delay", delay),
			)
			if err := r.wait(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt >= r.Policy.MaxRetries {
			return resp, nil
		}

		delay := r.Policy.Delay(attempt)
		fields := []zap.Field{
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
		}
		body := discard(resp)
		if r.LogBodies {
			fields = append(fields, zap.String("content", Truncate(MaskSecrets(body), MaxLoggedBody)))
		}
		logger.Warn("request attempt returned retryable status, retrying", fields...)

		if err := r.wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (r *Retry) wait(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rewind returns the request to send for attempt. The first attempt uses req
// as is; later attempts get a fresh body from GetBody.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.Body = body
	return out, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// retryableError reports whether a transport-level failure may be retried.
// Typed pipeline errors (token source failures, client-side rate limiting)
// are final.
func retryableError(err error) bool {
	var apiErr *apierrors.Error
	return !errors.As(err, &apiErr)
}

// discard reads up to 64KiB of the body for logging and closes it.
func discard(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return string(b)
}
