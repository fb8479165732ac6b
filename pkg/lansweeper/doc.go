// Package lansweeper is a typed Go client for the LanSweeper cloud inventory
// GraphQL API.
//
// # Connecting
//
// A personal access token is all that is required:
//
//	c, err := lansweeper.New(os.Getenv("LANSWEEPER_TOKEN"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
// Options are validated eagerly. An invalid value yields an *ArgumentError
// naming the field and no client is returned.
//
// # Reading inventory
//
//	sites, err := c.ListSites(ctx)
//	for _, s := range sites {
//	    assets, err := c.ListAssets(ctx, s.ID)
//	    ...
//	}
//
// Lists are never nil: a site without assets yields an empty slice. Single
// entity lookups (GetSite, GetAsset) return an error matching ErrNotFound
// when the ID does not resolve.
//
// # Custom queries
//
// Query decodes the "data" object of any GraphQL query into a type of your
// choosing:
//
//	type result struct {
//	    Me struct{ Email string } `json:"me"`
//	}
//	r, err := lansweeper.Query[result](ctx, c, `{ me { email } }`, nil)
//
// Execute returns the full envelope instead, leaving protocol errors for the
// caller to inspect.
//
// # Request pipeline
//
// Every call passes through, outermost first: error translation, optional
// request/response logging, retry, optional metrics and client-side rate
// limiting, authentication, and the per-attempt timeout. Retries apply to
// transport failures, attempt timeouts, 429 and 5xx responses, with
// exponential backoff capped at MaxRetryDelay. Cancelling ctx aborts the
// call immediately, including any pending backoff.
//
// # Errors
//
// Failures are *Error values tagged with a Kind:
//
//	var apiErr *lansweeper.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == lansweeper.KindRateLimit {
//	    if apiErr.RetryAfter != nil {
//	        time.Sleep(*apiErr.RetryAfter)
//	    }
//	}
//
// or, equivalently, errors.Is(err, lansweeper.ErrRateLimit).
package lansweeper
