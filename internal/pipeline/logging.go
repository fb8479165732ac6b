package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"

	"github.com/jmerrifield20/lansweeper-go/internal/gqldoc"
	"go.uber.org/zap"
)

// MaxLoggedBody is the number of characters of a body that are logged.
const MaxLoggedBody = 1000

const (
	maskedBearer    = "Bearer ***MASKED***"
	truncatedSuffix = "... (truncated)"
)

var bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[^\s"]+`)

// MaskSecrets replaces bearer-style credentials in s with a placeholder.
func MaskSecrets(s string) string {
	return bearerPattern.ReplaceAllString(s, maskedBearer)
}

// Truncate shortens s to max characters and marks the cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + truncatedSuffix
}

// Logging records outbound requests and inbound responses at Debug level.
type Logging struct {
	Logger    *zap.Logger
	Requests  bool
	Responses bool
}

func (l *Logging) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	requestID := req.Header.Get("X-Request-ID")

	if l.Requests {
		body := peekRequestBody(req)
		logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.String("request_id", requestID),
			zap.String("operation", operationOf(body)),
		)
		if body != "" {
			logger.Debug("http request content",
				zap.String("request_id", requestID),
				zap.String("content", MaskSecrets(body)),
			)
		}
	}

	resp, err := next.RoundTrip(req)
	if err != nil || !l.Responses {
		return resp, err
	}

	logger.Debug("http response",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.String("reason", http.StatusText(resp.StatusCode)),
	)
	if resp.Body != nil {
		b, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(b))
		if readErr != nil {
			logger.Warn("read response body for logging", zap.Error(readErr))
		} else if len(b) > 0 {
			logger.Debug("http response content",
				zap.String("request_id", requestID),
				zap.String("content", Truncate(MaskSecrets(string(b)), MaxLoggedBody)),
			)
		}
	}
	return resp, nil
}

// peekRequestBody reads the request body without consuming req.Body.
func peekRequestBody(req *http.Request) string {
	if req.GetBody == nil || req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	rc, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	return string(b)
}

// operationOf extracts the GraphQL operation name from a JSON request body.
func operationOf(body string) string {
	var payload struct {
		Query         string `json:"query"`
		OperationName string `json:"operationName"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || payload.Query == "" {
		return "unknown"
	}
	if payload.OperationName != "" {
		return payload.OperationName
	}
	return gqldoc.OperationName(payload.Query)
}
