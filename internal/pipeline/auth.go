package pipeline

import (
	"net/http"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"golang.org/x/oauth2"
)

// DefaultAuthScheme is the LanSweeper personal access token scheme.
const DefaultAuthScheme = "Token"

// Auth attaches the Authorization header to every attempt.
type Auth struct {
	Source oauth2.TokenSource
	Scheme string
}

// StaticToken returns a token source that always yields token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

func (a *Auth) Process(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if a.Source == nil {
		return nil, &apierrors.Error{Kind: apierrors.KindAuthentication, Message: "no token source configured"}
	}
	tok, err := a.Source.Token()
	if err != nil {
		return nil, &apierrors.Error{Kind: apierrors.KindAuthentication, Message: "obtain access token", Cause: err}
	}

	scheme := a.Scheme
	if scheme == "" {
		scheme = DefaultAuthScheme
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", scheme+" "+tok.AccessToken)
	return next.RoundTrip(out)
}
