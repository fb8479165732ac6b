package lansweeper

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"go.uber.org/zap"
)

type authorizedSitesData struct {
	AuthorizedSites *struct {
		Sites []Site `json:"sites"`
	} `json:"authorizedSites"`
}

type siteData struct {
	Site *Site `json:"site"`
}

// ListSites returns every site the access token is authorized for. The
// result is empty, never nil, when the token has no sites.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	c.logger.Debug("listing authorized sites")

	env, err := Execute[authorizedSitesData](ctx, c, Request{Query: queryAuthorizedSites})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL("failed to retrieve authorized sites", env.Errors)
	}
	if env.Data == nil || env.Data.AuthorizedSites == nil || env.Data.AuthorizedSites.Sites == nil {
		return []Site{}, nil
	}
	return env.Data.AuthorizedSites.Sites, nil
}

// GetSite returns the site with the given ID.
func (c *Client) GetSite(ctx context.Context, siteID string) (*Site, error) {
	if err := requireID("siteID", siteID); err != nil {
		return nil, err
	}
	c.logger.Debug("getting site", zap.String("site_id", siteID))

	env, err := Execute[siteData](ctx, c, Request{
		Query:     querySiteByID,
		Variables: map[string]any{"siteId": siteID},
	})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL(fmt.Sprintf("failed to retrieve site with ID: %s", siteID), env.Errors)
	}
	if env.Data == nil || env.Data.Site == nil {
		return nil, apierrors.NotFound(fmt.Sprintf("site with ID '%s' not found", siteID))
	}
	return env.Data.Site, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ArgumentError{Field: field, Message: "must not be empty"}
	}
	return nil
}
