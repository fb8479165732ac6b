package pipeline

import (
	"net/http"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"golang.org/x/time/rate"
)

// RateLimit throttles attempts with a token bucket shared by every call made
// through the same client.
type RateLimit struct {
	Limiter *rate.Limiter
}

func (r *RateLimit) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	ctx := req.Context()
	if err := r.Limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apierrors.Error{
			Kind:    apierrors.KindRateLimit,
			Message: "client-side rate limit cannot be satisfied before the deadline",
			Cause:   err,
		}
	}
	return next.RoundTrip(req)
}
