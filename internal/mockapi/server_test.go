package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testToken = "tok-123"

func post(t *testing.T, h http.Handler, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, GraphQLPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestGraphQL_unauthorized(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	for _, auth := range []string{"", "Bearer " + testToken, "Token wrong"} {
		w := post(t, s.Handler(), auth, `{"query":"query GetCurrentUser { me { id } }"}`)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: status = %d, want 401", auth, w.Code)
		}
	}
}

func TestGraphQL_currentUser(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	w := post(t, s.Handler(), "Token "+testToken, `{"query":"query GetCurrentUser { me { id email name } }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	me := decode(t, w)["data"].(map[string]any)["me"].(map[string]any)
	if me["id"] != "user-1" {
		t.Errorf("me = %v", me)
	}
}

func TestGraphQL_unknownSiteIsNull(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	body := `{"query":"query GetSiteById($siteId: ID!) { site(id: $siteId) { id } }","variables":{"siteId":"nope"}}`
	w := post(t, s.Handler(), "Token "+testToken, body)
	data := decode(t, w)["data"].(map[string]any)
	if v, ok := data["site"]; !ok || v != nil {
		t.Errorf("site = %v, want explicit null", v)
	}
}

func TestGraphQL_assetsPaginate(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	body := `{"query":"query GetAssetsPage($siteId: ID!, $limit: Int!, $cursor: String) { site(id: $siteId) { assetResources { total } } }",
		"variables":{"siteId":"site-hq","limit":2}}`
	w := post(t, s.Handler(), "Token "+testToken, body)
	res := decode(t, w)["data"].(map[string]any)["site"].(map[string]any)["assetResources"].(map[string]any)
	if res["total"] != float64(3) || len(res["items"].([]any)) != 2 {
		t.Fatalf("page = %v", res)
	}
	if next := res["pagination"].(map[string]any)["next"]; next != "2" {
		t.Errorf("next = %v, want 2", next)
	}
}

func TestGraphQL_unsupportedOperation(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	w := post(t, s.Handler(), "Token "+testToken, `{"query":"query Other { things { id } }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	errs := decode(t, w)["errors"].([]any)
	if len(errs) != 1 {
		t.Errorf("errors = %v", errs)
	}
}

func TestGraphQL_malformedBody(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	w := post(t, s.Handler(), "Token "+testToken, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGraphQL_faultInjection(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken)})
	s.InjectFault(Fault{Status: http.StatusTooManyRequests, RetryAfter: "7", Times: 2})

	body := `{"query":"query GetCurrentUser { me { id } }"}`
	for i := 0; i < 2; i++ {
		w := post(t, s.Handler(), "Token "+testToken, body)
		if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "7" {
			t.Fatalf("request %d: status = %d, Retry-After = %q", i, w.Code, w.Header().Get("Retry-After"))
		}
	}
	if w := post(t, s.Handler(), "Token "+testToken, body); w.Code != http.StatusOK {
		t.Errorf("after faults: status = %d", w.Code)
	}
	if n := len(s.Requests()); n != 3 {
		t.Errorf("recorded %d requests, want 3", n)
	}
}

func TestGraphQL_rateLimit(t *testing.T) {
	s := New(Config{Dataset: SampleDataset(testToken), RateLimitRPS: 1, RateBurst: 1})
	body := `{"query":"query GetCurrentUser { me { id } }"}`

	if w := post(t, s.Handler(), "Token "+testToken, body); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := post(t, s.Handler(), "Token "+testToken, body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(Config{Dataset: SampleDataset(testToken), Registry: reg})
	post(t, s.Handler(), "Token "+testToken, `{"query":"query GetAuthorizedSites { authorizedSites { sites { id } } }"}`)

	if got := testutil.ToFloat64(s.metrics.operations.WithLabelValues("GetAuthorizedSites")); got != 1 {
		t.Errorf("operations counter = %v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), "lansweeper_mock_requests_total") {
		t.Error("/metrics does not expose request counter")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", w.Code)
	}
}
