package lansweeper

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/lansweeper-go/internal/apierrors"
	"go.uber.org/zap"
)

// DefaultAssetLimit is the page size used by ListAssets.
const DefaultAssetLimit = 100

type siteAssetsData struct {
	Site *struct {
		AssetResources *AssetPage `json:"assetResources"`
	} `json:"site"`
}

type assetData struct {
	Asset *Asset `json:"asset"`
}

// ListAssets returns up to DefaultAssetLimit assets of a site. The result is
// empty, never nil, when the site has no assets.
func (c *Client) ListAssets(ctx context.Context, siteID string) ([]Asset, error) {
	if err := requireID("siteID", siteID); err != nil {
		return nil, err
	}
	c.logger.Debug("listing assets", zap.String("site_id", siteID), zap.Int("limit", DefaultAssetLimit))

	env, err := Execute[siteAssetsData](ctx, c, Request{
		Query:     queryAssetsBySite,
		Variables: map[string]any{"siteId": siteID, "limit": DefaultAssetLimit},
	})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL(fmt.Sprintf("failed to retrieve assets for site: %s", siteID), env.Errors)
	}
	page := assetResources(env.Data)
	if page == nil || page.Items == nil {
		return []Asset{}, nil
	}
	return page.Items, nil
}

// ListAssetsPage returns one page of a site's assets. Pass the previous
// page's Pagination.Next as cursor, or "" for the first page.
func (c *Client) ListAssetsPage(ctx context.Context, siteID string, limit int, cursor string) (*AssetPage, error) {
	if err := requireID("siteID", siteID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, &ArgumentError{Field: "limit", Message: "must be positive"}
	}
	c.logger.Debug("listing asset page",
		zap.String("site_id", siteID),
		zap.Int("limit", limit),
		zap.String("cursor", cursor),
	)

	vars := map[string]any{"siteId": siteID, "limit": limit}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	env, err := Execute[siteAssetsData](ctx, c, Request{Query: queryAssetsPage, Variables: vars})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL(fmt.Sprintf("failed to retrieve assets for site: %s", siteID), env.Errors)
	}
	if env.Data == nil || env.Data.Site == nil {
		return nil, apierrors.NotFound(fmt.Sprintf("site with ID '%s' not found", siteID))
	}
	page := assetResources(env.Data)
	if page == nil {
		page = &AssetPage{}
	}
	if page.Items == nil {
		page.Items = []Asset{}
	}
	return page, nil
}

// GetAsset returns the asset with the given ID, including custom fields.
func (c *Client) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	if err := requireID("assetID", assetID); err != nil {
		return nil, err
	}
	c.logger.Debug("getting asset", zap.String("asset_id", assetID))

	env, err := Execute[assetData](ctx, c, Request{
		Query:     queryAssetByID,
		Variables: map[string]any{"assetId": assetID},
	})
	if err != nil {
		return nil, err
	}
	if env.HasErrors() {
		return nil, apierrors.GraphQL(fmt.Sprintf("failed to retrieve asset with ID: %s", assetID), env.Errors)
	}
	if env.Data == nil || env.Data.Asset == nil {
		return nil, apierrors.NotFound(fmt.Sprintf("asset with ID '%s' not found", assetID))
	}
	return env.Data.Asset, nil
}

func assetResources(d *siteAssetsData) *AssetPage {
	if d == nil || d.Site == nil {
		return nil
	}
	return d.Site.AssetResources
}
