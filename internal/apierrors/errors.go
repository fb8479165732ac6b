// Package apierrors defines the error taxonomy shared by the request pipeline
// and the public SDK. Every failure a caller can observe is either an *Error
// (tagged by Kind) or an *ArgumentError.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the members of the error taxonomy.
type Kind int

const (
	// KindAPI is the generic failure: unclassified HTTP statuses, transport
	// failures after retry exhaustion, undecodable responses.
	KindAPI Kind = iota
	KindAuthentication
	KindBadRequest
	KindNotFound
	KindRateLimit
	// KindGraphQL marks protocol errors returned inside a successful response.
	KindGraphQL
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindGraphQL:
		return "graphql"
	default:
		return "api"
	}
}

// Sentinel errors for errors.Is matching. ErrAPI matches every *Error.
var (
	ErrAPI            = errors.New("lansweeper: api error")
	ErrAuthentication = errors.New("lansweeper: authentication failed")
	ErrBadRequest     = errors.New("lansweeper: bad request")
	ErrNotFound       = errors.New("lansweeper: not found")
	ErrRateLimit      = errors.New("lansweeper: rate limit exceeded")
	ErrGraphQL        = errors.New("lansweeper: graphql error")
)

// Location is a line/column position inside a GraphQL document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of the "errors" array of a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
	Locations  []Location     `json:"locations,omitempty"`
}

// Error is the single typed failure returned by the SDK.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is the HTTP status that produced the error, or 0.
	StatusCode int
	// Details holds the raw response body when one was received.
	Details string
	// RetryAfter is set for KindRateLimit when the server sent Retry-After.
	RetryAfter *time.Duration
	// GraphQLErrors is set for KindGraphQL, in server order.
	GraphQLErrors []GraphQLError

	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("lansweeper: ")
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if len(e.GraphQLErrors) > 0 {
		msgs := make([]string, 0, len(e.GraphQLErrors))
		for _, ge := range e.GraphQLErrors {
			msgs = append(msgs, ge.Message)
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, "; "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAPI:
		return true
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRateLimit:
		return e.Kind == KindRateLimit
	case ErrGraphQL:
		return e.Kind == KindGraphQL
	}
	return false
}

// ArgumentError reports an invalid argument or option. Field names the
// offending input.
type ArgumentError struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("lansweeper: invalid %s: %s", e.Field, e.Message)
}

// New returns a generic API error.
func New(message string, cause error) *Error {
	return &Error{Kind: KindAPI, Message: message, Cause: cause}
}

// NotFound returns a KindNotFound error for an entity that did not resolve.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// GraphQL returns a KindGraphQL error carrying the server's error list.
func GraphQL(message string, errs []GraphQLError) *Error {
	return &Error{Kind: KindGraphQL, Message: message, GraphQLErrors: errs}
}

// Exhausted returns the error raised when every attempt failed at the
// transport level.
func Exhausted(retries int, cause error) *Error {
	return New(fmt.Sprintf("request failed after %d retry attempts", retries), cause)
}

// FromResponse maps a non-2xx status to a typed error. body is the raw
// response payload.
func FromResponse(status int, header http.Header, body string) *Error {
	e := &Error{StatusCode: status, Details: body}
	switch status {
	case http.StatusUnauthorized:
		e.Kind = KindAuthentication
		e.Message = "authentication failed, check the access token"
	case http.StatusBadRequest:
		e.Kind = KindBadRequest
		e.Message = "bad request, check the query parameters"
	case http.StatusNotFound:
		e.Kind = KindNotFound
		e.Message = "resource not found"
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimit
		e.Message = "rate limit exceeded, wait before making more requests"
		if d, ok := ParseRetryAfter(header.Get("Retry-After"), time.Now()); ok {
			e.RetryAfter = &d
		}
	default:
		e.Kind = KindAPI
		e.Message = fmt.Sprintf("API error: %d", status)
	}
	return e
}

// ParseRetryAfter parses a Retry-After header value given either as delta
// seconds or as an HTTP-date relative to now. Past dates yield zero.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
