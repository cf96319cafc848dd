package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose inbox and family data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	if err := registerInboxResources(srv, deps); err != nil {
		return err
	}
	if err := registerFamilyResources(srv, deps); err != nil {
		return err
	}

	return nil
}

func registerInboxResources(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Resource("allie://inbox").
		Name("Inbox").
		Description("Active inbox items, newest first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			items, err := listInbox(ctx, app, inboxListInput{Limit: 100})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, items)
		})

	srv.Resource("allie://inbox/pending").
		Name("Items Awaiting Review").
		Description("Inbox items with suggested actions that have not been applied yet").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			items, err := listInbox(ctx, app, inboxListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, pendingReview(items))
		})

	srv.Resource("allie://inbox/errors").
		Name("Failed Items").
		Description("Inbox items whose classification failed").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			items, err := listInbox(ctx, app, inboxListInput{Status: "error"})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, items)
		})

	return nil
}

func registerFamilyResources(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Resource("allie://family/members").
		Name("Family Members").
		Description("People tasks and events can be assigned to").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			members, err := listMembers(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, members)
		})

	srv.Resource("allie://system/health").
		Name("Health").
		Description("Store, feed and broker health").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			health, err := checkHealth(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, health)
		})

	return nil
}

func pendingReview(items []queries.ItemDTO) []queries.ItemDTO {
	out := make([]queries.ItemDTO, 0, len(items))
	for _, item := range items {
		if item.PendingActions > 0 {
			out = append(out, item)
		}
	}
	return out
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
