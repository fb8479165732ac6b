// Package mockapi is an in-process fake of the LanSweeper GraphQL API. It
// serves a fixed Dataset, checks the Token credential, and can be told to
// fail upcoming requests to exercise client retry and error handling.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/lansweeper-go/internal/gqldoc"
	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// GraphQLPath is the route the API is served on.
const GraphQLPath = "/api/v2/graphql"

// Config configures a Server.
type Config struct {
	Dataset Dataset
	// RateLimitRPS enables per-token rate limiting when positive.
	RateLimitRPS int
	RateBurst    int
	CORSOrigins  []string
	Logger       *zap.Logger
	// Registry receives the server metrics and backs /metrics. Nil creates a
	// private registry.
	Registry *prometheus.Registry
}

// Fault makes upcoming requests fail before authentication is checked.
type Fault struct {
	Status     int
	RetryAfter string
	Body       string
	// Delay stalls the response, or until the client goes away.
	Delay time.Duration
	// Times is the number of requests affected. Zero means one.
	Times int
}

// RecordedRequest is what the server saw for one request.
type RecordedRequest struct {
	Authorization string
	RequestID     string
	UserAgent     string
	Body          string
}

// Server is the mock API.
type Server struct {
	engine  *gin.Engine
	logger  *zap.Logger
	metrics *serverMetrics

	mu       sync.Mutex
	data     Dataset
	faults   []Fault
	requests []RecordedRequest
}

type gqlRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type gqlResponse struct {
	Data   any                       `json:"data"`
	Errors []lansweeper.GraphQLError `json:"errors,omitempty"`
}

// New builds a Server from cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		logger:  logger,
		metrics: newServerMetrics(reg),
		data:    cfg.Dataset,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Request-ID"},
			ExposeHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}
	engine.Use(s.metrics.middleware())
	engine.Use(requestLogger(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	engine.GET("/metrics", gin.WrapH(metricsHandler))

	api := engine.Group(GraphQLPath)
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = cfg.RateLimitRPS
		}
		api.Use(rateLimiter(cfg.RateLimitRPS, burst))
	}
	api.POST("", s.handleGraphQL)

	s.engine = engine
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// InjectFault queues f for upcoming requests.
func (s *Server) InjectFault(f Fault) {
	if f.Times <= 0 {
		f.Times = 1
	}
	s.mu.Lock()
	s.faults = append(s.faults, f)
	s.mu.Unlock()
}

// SetDataset replaces the served inventory.
func (s *Server) SetDataset(d Dataset) {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
}

// Requests returns a copy of every GraphQL request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) nextFault() (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faults) == 0 {
		return Fault{}, false
	}
	f := s.faults[0]
	s.faults[0].Times--
	if s.faults[0].Times <= 0 {
		s.faults = s.faults[1:]
	}
	return f, true
}

func (s *Server) handleGraphQL(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("could not read request body"))
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
		UserAgent:     c.GetHeader("User-Agent"),
		Body:          string(raw),
	})
	data := s.data
	s.mu.Unlock()

	if f, ok := s.nextFault(); ok {
		s.applyFault(c, f)
		return
	}

	if c.GetHeader("Authorization") != "Token "+data.Token {
		c.JSON(http.StatusUnauthorized, errorBody("Unauthorized"))
		return
	}

	var req gqlRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, errorBody("request body must be a JSON object with a query"))
		return
	}

	info, err := gqldoc.Inspect(req.Query, req.OperationName)
	if err != nil {
		c.JSON(http.StatusOK, gqlResponse{Errors: []lansweeper.GraphQLError{{
			Message:    err.Error(),
			Extensions: map[string]any{"code": "GRAPHQL_PARSE_FAILED"},
		}}})
		return
	}
	s.metrics.operations.WithLabelValues(info.Name).Inc()

	resolve, ok := resolvers[info.Name]
	if !ok {
		c.JSON(http.StatusOK, gqlResponse{Errors: []lansweeper.GraphQLError{{
			Message: fmt.Sprintf("operation %q is not supported by the mock API", info.Name),
		}}})
		return
	}
	c.JSON(http.StatusOK, resolve(data, req.Variables))
}

func (s *Server) applyFault(c *gin.Context, f Fault) {
	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-c.Request.Context().Done():
			return
		}
	}
	if f.RetryAfter != "" {
		c.Header("Retry-After", f.RetryAfter)
	}
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.Data(status, "application/json", []byte(f.Body))
}

func errorBody(msg string) gqlResponse {
	return gqlResponse{Errors: []lansweeper.GraphQLError{{Message: msg}}}
}

// ── Resolvers ───────────────────────────────────────────────────────────────

type resolver func(d Dataset, vars map[string]any) gqlResponse

var resolvers = map[string]resolver{
	"GetAuthorizedSites": resolveAuthorizedSites,
	"GetSiteById":        resolveSite,
	"GetAssetsBySite":    resolveAssets,
	"GetAssetsPage":      resolveAssets,
	"GetAssetById":       resolveAsset,
	"GetCurrentUser":     resolveCurrentUser,
}

func resolveAuthorizedSites(d Dataset, _ map[string]any) gqlResponse {
	sites := d.Sites
	if sites == nil {
		sites = []lansweeper.Site{}
	}
	return gqlResponse{Data: gin.H{"authorizedSites": gin.H{"sites": sites}}}
}

func resolveSite(d Dataset, vars map[string]any) gqlResponse {
	return gqlResponse{Data: gin.H{"site": d.site(stringVar(vars, "siteId"))}}
}

func resolveAssets(d Dataset, vars map[string]any) gqlResponse {
	siteID := stringVar(vars, "siteId")
	if d.site(siteID) == nil {
		return gqlResponse{Data: gin.H{"site": nil}}
	}

	all := d.Assets[siteID]
	limit := intVar(vars, "limit", 100)
	if limit < 0 {
		limit = 0
	}
	offset, _ := strconv.Atoi(stringVar(vars, "cursor"))
	if offset < 0 || offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	items := make([]lansweeper.Asset, 0, end-offset)
	items = append(items, all[offset:end]...)
	total := len(all)
	page := gin.H{"total": total, "items": items}

	var next *string
	if end < len(all) {
		next = lansweeper.String(strconv.Itoa(end))
	}
	page["pagination"] = lansweeper.Pagination{
		Limit:   &limit,
		Current: lansweeper.String(strconv.Itoa(offset)),
		Next:    next,
		Page:    lansweeper.String("NEXT"),
	}
	return gqlResponse{Data: gin.H{"site": gin.H{"assetResources": page}}}
}

func resolveAsset(d Dataset, vars map[string]any) gqlResponse {
	return gqlResponse{Data: gin.H{"asset": d.asset(stringVar(vars, "assetId"))}}
}

func resolveCurrentUser(d Dataset, _ map[string]any) gqlResponse {
	return gqlResponse{Data: gin.H{"me": d.User}}
}

func stringVar(vars map[string]any, key string) string {
	if v, ok := vars[key].(string); ok {
		return v
	}
	return ""
}

func intVar(vars map[string]any, key string, def int) int {
	switch v := vars[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
