package pipeline

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func TestMetrics_CountsEveryAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	tr := &stubTransport{script: []outcome{
		{status: http.StatusServiceUnavailable},
		{err: errors.New("connection reset")},
		{status: http.StatusOK},
	}}
	var delays []time.Duration
	rt := Chain(tr, &Retry{Policy: RetryPolicy{MaxRetries: 3}, Sleep: recordSleep(&delays)}, m)

	resp, err := rt.RoundTrip(newRequest(t, context.Background(), `{}`))
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()

	if got := testutil.ToFloat64(m.attempts.WithLabelValues("503")); got != 1 {
		t.Errorf("503 attempts = %v", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("error")); got != 1 {
		t.Errorf("error attempts = %v", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues("200")); got != 1 {
		t.Errorf("200 attempts = %v", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	b, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}
	if a.attempts != b.attempts {
		t.Error("second registration should reuse the existing counter")
	}
}

func TestRateLimit_WaitsForToken(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(30*time.Millisecond), 1)
	tr := &stubTransport{script: []outcome{{status: http.StatusOK}}}
	stage := &RateLimit{Limiter: limiter}

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := stage.Process(newRequest(t, context.Background(), `{}`), tr)
		if err != nil {
			t.Fatalf("Process %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("three calls took %v, limiter did not throttle", elapsed)
	}
}

func TestRateLimit_DeadlineTooShort(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()
	tr := &stubTransport{script: []outcome{{status: http.StatusOK}}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := (&RateLimit{Limiter: limiter}).Process(newRequest(t, ctx, `{}`), tr)
	if !errors.Is(err, apierrors.ErrRateLimit) {
		t.Fatalf("err = %v, want client-side rate limit error", err)
	}
	if tr.Calls() != 0 {
		t.Error("request went through despite the limiter")
	}
}
