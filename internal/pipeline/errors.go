package pipeline

import (
	"io"
	"net/http"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"go.uber.org/zap"
)

// Errors converts non-2xx responses into typed *apierrors.Error values. It
// is the outermost stage so it only ever sees the final attempt.
type Errors struct {
	Logger *zap.Logger
}

func (e *Errors) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	var body string
	if resp.Body != nil {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		body = string(b)
	}

	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error("http request failed",
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Int("status", resp.StatusCode),
		zap.String("content", Truncate(MaskSecrets(body), MaxLoggedBody)),
	)

	return nil, apierrors.FromResponse(resp.StatusCode, resp.Header, body)
}
