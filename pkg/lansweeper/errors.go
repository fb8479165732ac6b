package lansweeper

import (
	"errors"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
)

// Error is the typed failure returned by every Client operation. Inspect it
// with errors.As, or match its Kind with errors.Is and the Err* sentinels.
type Error = apierrors.Error

// Kind discriminates Error values.
type Kind = apierrors.Kind

// GraphQLError is one entry of a GraphQL response's "errors" array.
type GraphQLError = apierrors.GraphQLError

// Location is a position inside a GraphQL document.
type Location = apierrors.Location

// ArgumentError reports an invalid argument or option.
type ArgumentError = apierrors.ArgumentError

const (
	KindAPI            = apierrors.KindAPI
	KindAuthentication = apierrors.KindAuthentication
	KindBadRequest     = apierrors.KindBadRequest
	KindNotFound       = apierrors.KindNotFound
	KindRateLimit      = apierrors.KindRateLimit
	KindGraphQL        = apierrors.KindGraphQL
)

var (
	ErrAPI            = apierrors.ErrAPI
	ErrAuthentication = apierrors.ErrAuthentication
	ErrBadRequest     = apierrors.ErrBadRequest
	ErrNotFound       = apierrors.ErrNotFound
	ErrRateLimit      = apierrors.ErrRateLimit
	ErrGraphQL        = apierrors.ErrGraphQL
)

// ErrClientClosed is returned by operations invoked after Close.
var ErrClientClosed = errors.New("lansweeper: client is closed")
