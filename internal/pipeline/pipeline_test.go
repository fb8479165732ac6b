package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

func TestChain_Order(t *testing.T) {
	var trace []string
	mark := func(name string) Stage {
		return StageFunc(func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
			trace = append(trace, name+">")
			resp, err := next.RoundTrip(req)
			trace = append(trace, "<"+name)
			return resp, err
		})
	}
	transport := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		trace = append(trace, "transport")
		return response(req, http.StatusOK, "", nil), nil
	})

	rt := Chain(transport, mark("a"), mark("b"), mark("c"))
	if _, err := rt.RoundTrip(newRequest(t, context.Background(), "")); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	want := []string{"a>", "b>", "c>", "transport", "<c", "<b", "<a"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func stageNames(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, strings.TrimPrefix(fmt.Sprintf("%T", s), "*pipeline."))
	}
	return names
}

func TestStages_Order(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	full := Config{
		TokenSource:    StaticToken("t"),
		RequestTimeout: time.Second,
		Retry:          RetryPolicy{MaxRetries: 3},
		LogRequests:    true,
		Metrics:        m,
		Limiter:        rate.NewLimiter(rate.Inf, 1),
	}
	want := []string{"Errors", "Logging", "Retry", "Metrics", "RateLimit", "Auth", "Timeout"}
	if got := stageNames(Stages(full)); !reflect.DeepEqual(got, want) {
		t.Errorf("full stages = %v, want %v", got, want)
	}

	minimal := Config{TokenSource: StaticToken("t")}
	if got := stageNames(Stages(minimal)); !reflect.DeepEqual(got, []string{"Errors", "Auth"}) {
		t.Errorf("minimal stages = %v", got)
	}

	responsesOnly := Config{TokenSource: StaticToken("t"), LogResponses: true, Retry: RetryPolicy{MaxRetries: 1}}
	if got := stageNames(Stages(responsesOnly)); !reflect.DeepEqual(got, []string{"Errors", "Logging", "Retry", "Auth"}) {
		t.Errorf("responses-only stages = %v", got)
	}
}

// ── Assembled pipeline against a real server ───────────────────────────────

func TestAssemble_SuccessPassesThrough(t *testing.T) {
	authSeen := make(chan string, 1)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		authSeen <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"me":{"id":"u1"}}}`)
	}))
	defer srv.Close()

	rt := Assemble(http.DefaultTransport, Config{
		TokenSource:    StaticToken("secret-token"),
		RequestTimeout: 5 * time.Second,
		Retry:          RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond},
		LogRequests:    true,
		LogResponses:   true,
	})

	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"query":"{ me { id } }"}`))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if got := readBody(t, resp); got != `{"data":{"me":{"id":"u1"}}}` {
		t.Errorf("body = %q", got)
	}
	if got := <-authSeen; got != "Token secret-token" {
		t.Errorf("Authorization = %q", got)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("hits = %d", hits)
	}
}

func TestAssemble_ClientErrorsTranslatedWithoutRetry(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, apierrors.ErrAuthentication},
		{http.StatusBadRequest, apierrors.ErrBadRequest},
		{http.StatusNotFound, apierrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			}))
			defer srv.Close()

			rt := Assemble(http.DefaultTransport, Config{
				TokenSource: StaticToken("t"),
				Retry:       RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond},
			})
			req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
			_, err := rt.RoundTrip(req)

			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("err = %v, want %v", err, tc.sentinel)
			}
			var apiErr *apierrors.Error
			errors.As(err, &apiErr)
			if apiErr.Details != `{"message":"nope"}` || apiErr.StatusCode != tc.status {
				t.Errorf("details = %q, status = %d", apiErr.Details, apiErr.StatusCode)
			}
			if n := atomic.LoadInt32(&hits); n != 1 {
				t.Errorf("hits = %d, want 1 (no retries)", n)
			}
		})
	}
}

func TestAssemble_RateLimitWithoutRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rt := Assemble(http.DefaultTransport, Config{TokenSource: StaticToken("t")})
	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
	_, err := rt.RoundTrip(req)

	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierrors.KindRateLimit {
		t.Fatalf("err = %v, want rate limit error", err)
	}
	if apiErr.RetryAfter == nil || *apiErr.RetryAfter != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", apiErr.RetryAfter)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("hits = %d, want exactly one attempt", n)
	}
}

func TestAssemble_RateLimitRetriedThenTranslated(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rt := Assemble(http.DefaultTransport, Config{
		TokenSource: StaticToken("t"),
		Retry:       RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Exponential: true},
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{}`))
	_, err := rt.RoundTrip(req)

	if !errors.Is(err, apierrors.ErrRateLimit) {
		t.Fatalf("err = %v, want rate limit error", err)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("hits = %d, want 3", n)
	}
}

func TestErrors_LogsFailureAtErrorLevel(t *testing.T) {
	logger, logs := newObservedLogger()
	tr := &stubTransport{script: []outcome{{status: http.StatusInternalServerError, body: "boom"}}}

	_, err := (&Errors{Logger: logger}).Process(newRequest(t, context.Background(), `{}`), tr)
	if !errors.Is(err, apierrors.ErrAPI) {
		t.Fatalf("err = %v", err)
	}
	entries := logs.FilterMessage("http request failed").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].ContextMap()["content"] != "boom" {
		t.Errorf("content = %v", entries[0].ContextMap()["content"])
	}
}

func TestErrors_LoggedBodyIsTruncated(t *testing.T) {
	logger, logs := newObservedLogger()
	long := "Bearer secret-token " + strings.Repeat("x", 3*MaxLoggedBody)
	tr := &stubTransport{script: []outcome{{status: http.StatusBadGateway, body: long}}}

	_, err := (&Errors{Logger: logger}).Process(newRequest(t, context.Background(), `{}`), tr)
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Details != long {
		t.Error("Details should carry the full body")
	}

	entries := logs.FilterMessage("http request failed").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	content, _ := entries[0].ContextMap()["content"].(string)
	if !strings.HasSuffix(content, "... (truncated)") {
		t.Errorf("content not truncated: len %d", len(content))
	}
	if strings.Contains(content, "secret-token") {
		t.Error("content leaked the bearer token")
	}
}

// ── Auth ────────────────────────────────────────────────────────────────────

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errors.New("vault sealed") }

func TestAuth_HeaderAndIsolation(t *testing.T) {
	tr := &stubTransport{script: []outcome{{status: http.StatusOK}}}
	req := newRequest(t, context.Background(), `{}`)

	resp, err := (&Auth{Source: StaticToken("abc")}).Process(req, tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	resp.Body.Close()
	if tr.auth[0] != "Token abc" {
		t.Errorf("Authorization = %q", tr.auth[0])
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("Auth mutated the caller's request")
	}
}

func TestAuth_TokenSourceFailure(t *testing.T) {
	tr := &stubTransport{script: []outcome{{status: http.StatusOK}}}
	_, err := (&Auth{Source: failingSource{}}).Process(newRequest(t, context.Background(), `{}`), tr)
	if !errors.Is(err, apierrors.ErrAuthentication) {
		t.Fatalf("err = %v", err)
	}
	if tr.Calls() != 0 {
		t.Error("transport was called without a token")
	}
}

// ── Timeout ─────────────────────────────────────────────────────────────────

func TestTimeout_ContextReleasedOnClose(t *testing.T) {
	var attemptCtx context.Context
	tr := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		attemptCtx = req.Context()
		return response(req, http.StatusOK, "body", nil), nil
	})

	resp, err := (&Timeout{Duration: time.Minute}).Process(newRequest(t, context.Background(), `{}`), tr)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if attemptCtx.Err() != nil {
		t.Fatal("attempt context cancelled before the body was read")
	}
	if got := readBody(t, resp); got != "body" {
		t.Errorf("body = %q", got)
	}
	if attemptCtx.Err() == nil {
		t.Error("attempt context still live after Close")
	}
	if _, ok := attemptCtx.Deadline(); !ok {
		t.Error("attempt context has no deadline")
	}
}
