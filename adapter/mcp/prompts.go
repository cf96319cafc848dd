package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common inbox workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	// Inbox triage prompt
	srv.Prompt("inbox_triage").
		Description("Walk through everything waiting in the family inbox and decide what to apply, retry or archive.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Inbox Triage",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me clear the family inbox. Please:

1. Read the items awaiting review from the allie://inbox/pending resource
2. Read failed items from the allie://inbox/errors resource
3. Check who is in the family using allie://family/members

For each item awaiting review:
- Summarize it in one line
- List its pending suggested actions (calendar events, tasks, contacts)
- Recommend which to apply and which to skip

For each failed item, say whether a retry is likely to help.

Ask me before changing anything. Then use inbox.apply for the actions I approve,
inbox.retry for items worth another attempt, and inbox.archive for items that need nothing.`,
						},
					},
				},
			}, nil
		})

	// Single item review prompt
	srv.Prompt("item_review").
		Description("Review one inbox item and the records its suggestions would create.").
		Argument("key", "Item key, e.g. emailInbox/abc123", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			key := args["key"]
			if key == "" {
				key = "[Please give the item key]"
			}

			return &mcp.PromptResult{
				Description: "Inbox Item Review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Review inbox item %s.

Use inbox.show to read it, then tell me:
- What the message or document is about
- Which dates, people and places it mentions
- For each suggested action, whether the title, date and assignees look right

If an event or task already exists for it, check records.related with type inbox_item.
Apply only the actions I confirm with inbox.apply.`, key),
						},
					},
				},
			}, nil
		})

	// Weekly family summary prompt
	srv.Prompt("family_week").
		Description("Summarize the coming week from calendar events and tasks created out of the inbox.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Family Week Ahead",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Give me an overview of our family's week. Please:

1. List calendar events for the next 7 days using records.events
2. List today's and upcoming tasks using records.tasks
3. Note anything still pending in allie://inbox/pending that affects this week

Group the overview by day and call out conflicts or tasks without an assignee.`,
						},
					},
				},
			}, nil
		})

	return nil
}
