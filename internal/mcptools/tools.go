// Package mcptools exposes the LanSweeper inventory as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool names.
const (
	ToolListSites    = "list_sites"
	ToolGetSite      = "get_site"
	ToolListAssets   = "list_assets"
	ToolGetAsset     = "get_asset"
	ToolCurrentUser  = "current_user"
	ToolGraphQLQuery = "graphql_query"
)

// Inventory is the read API the tools call. *lansweeper.Client satisfies it.
type Inventory interface {
	ListSites(ctx context.Context) ([]lansweeper.Site, error)
	GetSite(ctx context.Context, siteID string) (*lansweeper.Site, error)
	ListAssets(ctx context.Context, siteID string) ([]lansweeper.Asset, error)
	GetAsset(ctx context.Context, assetID string) (*lansweeper.Asset, error)
	CurrentUser(ctx context.Context) (*lansweeper.User, error)
	Raw(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// Tools returns every inventory tool bound to inv.
func Tools(inv Inventory, logger *zap.Logger) []server.ServerTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{inv: inv, logger: logger}
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolListSites,
				mcp.WithDescription("List the LanSweeper sites the access token is authorized for."),
			),
			Handler: h.wrap(ToolListSites, h.listSites),
		},
		{
			Tool: mcp.NewTool(ToolGetSite,
				mcp.WithDescription("Get a single LanSweeper site by ID."),
				mcp.WithString("site_id", mcp.Required(), mcp.Description("The site ID.")),
			),
			Handler: h.wrap(ToolGetSite, h.getSite),
		},
		{
			Tool: mcp.NewTool(ToolListAssets,
				mcp.WithDescription("List the assets of a site (first page, up to 100 assets)."),
				mcp.WithString("site_id", mcp.Required(), mcp.Description("The site ID.")),
			),
			Handler: h.wrap(ToolListAssets, h.listAssets),
		},
		{
			Tool: mcp.NewTool(ToolGetAsset,
				mcp.WithDescription("Get detailed information about one asset, including custom fields."),
				mcp.WithString("asset_id", mcp.Required(), mcp.Description("The asset ID.")),
			),
			Handler: h.wrap(ToolGetAsset, h.getAsset),
		},
		{
			Tool: mcp.NewTool(ToolCurrentUser,
				mcp.WithDescription("Show the user that owns the access token."),
			),
			Handler: h.wrap(ToolCurrentUser, h.currentUser),
		},
		{
			Tool: mcp.NewTool(ToolGraphQLQuery,
				mcp.WithDescription("Execute an arbitrary GraphQL query against the LanSweeper API. Subscriptions are rejected."),
				mcp.WithString("query", mcp.Required(), mcp.Description("The GraphQL query document.")),
				mcp.WithString("variables", mcp.Description("Optional JSON object of query variables.")),
			),
			Handler: h.wrap(ToolGraphQLQuery, h.graphqlQuery),
		},
	}
}

// Register adds every inventory tool to s.
func Register(s *server.MCPServer, inv Inventory, logger *zap.Logger) {
	s.AddTools(Tools(inv, logger)...)
}

type handlers struct {
	inv    Inventory
	logger *zap.Logger
}

type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// wrap converts a toolFunc into a handler. Errors become tool errors so the
// model sees them; the protocol-level error is always nil.
func (h *handlers) wrap(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		v, err := fn(ctx, req)
		if err != nil {
			h.logger.Warn("tool failed",
				zap.String("tool", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.logger.Debug("tool ok", zap.String("tool", name), zap.Duration("duration", time.Since(start)))
		return jsonResult(v), nil
	}
}

func (h *handlers) listSites(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	return h.inv.ListSites(ctx)
}

func (h *handlers) getSite(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.inv.GetSite(ctx, req.GetString("site_id", ""))
}

func (h *handlers) listAssets(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.inv.ListAssets(ctx, req.GetString("site_id", ""))
}

func (h *handlers) getAsset(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.inv.GetAsset(ctx, req.GetString("asset_id", ""))
}

func (h *handlers) currentUser(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	return h.inv.CurrentUser(ctx)
}

func (h *handlers) graphqlQuery(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	var vars map[string]any
	if s := req.GetString("variables", ""); s != "" {
		if err := json.Unmarshal([]byte(s), &vars); err != nil {
			return nil, fmt.Errorf("parse variables JSON: %w", err)
		}
	}
	raw, err := h.inv.Raw(ctx, req.GetString("query", ""), vars)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
