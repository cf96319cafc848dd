package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type inboxListInput struct {
	IncludeArchived bool   `json:"include_archived,omitempty"`
	Source          string `json:"source,omitempty"`
	Status          string `json:"status,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

type inboxKeyInput struct {
	Key string `json:"key" jsonschema:"required"`
}

type inboxApplyInput struct {
	Key   string `json:"key" jsonschema:"required"`
	Index int    `json:"index,omitempty"`
	All   bool   `json:"all,omitempty"`
}

type inboxArchiveInput struct {
	Key       string `json:"key" jsonschema:"required"`
	Unarchive bool   `json:"unarchive,omitempty"`
}

type inboxCaptureInput struct {
	Source    string   `json:"source,omitempty"`
	Subject   string   `json:"subject,omitempty"`
	Body      string   `json:"body,omitempty"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	FileName  string   `json:"file_name,omitempty"`
	FileType  string   `json:"file_type,omitempty"`
	FileURL   string   `json:"file_url,omitempty"`
	Text      string   `json:"text,omitempty"`
	Category  string   `json:"category,omitempty"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

type inboxApplyOutput struct {
	Completed int                    `json:"completed"`
	Pending   int                    `json:"pending"`
	Failed    int                    `json:"failed"`
	Error     string                 `json:"error,omitempty"`
	Item      *queries.ItemDetailDTO `json:"item"`
}

type inboxCaptureOutput struct {
	Key string `json:"key"`
}

func registerInboxTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	app := deps.App

	srv.Tool("inbox.list").
		Description("List inbox items newest first, with processing status and action counts").
		Handler(func(ctx context.Context, input inboxListInput) ([]queries.ItemDTO, error) {
			return listInbox(ctx, app, input)
		})

	srv.Tool("inbox.show").
		Description("Show one inbox item with its AI analysis and suggested actions").
		Handler(func(ctx context.Context, input inboxKeyInput) (*queries.ItemDetailDTO, error) {
			return showItem(ctx, app, input.Key)
		})

	srv.Tool("inbox.capture").
		Description("Add an email, text message or document to the inbox").
		Handler(func(ctx context.Context, input inboxCaptureInput) (*inboxCaptureOutput, error) {
			return captureItem(ctx, app, input)
		})

	srv.Tool("inbox.apply").
		Description("Apply a suggested action by index, or all pending actions, creating calendar events, tasks or contacts").
		Handler(func(ctx context.Context, input inboxApplyInput) (*inboxApplyOutput, error) {
			return applyActions(ctx, app, input)
		})

	srv.Tool("inbox.retry").
		Description("Classify an item again, even after its automatic retries are exhausted").
		Handler(func(ctx context.Context, input inboxKeyInput) (*queries.ItemDetailDTO, error) {
			return retryItem(ctx, app, input.Key)
		})

	srv.Tool("inbox.archive").
		Description("Archive an item, or restore it with unarchive").
		Handler(func(ctx context.Context, input inboxArchiveInput) (*queries.ItemDTO, error) {
			return archiveItem(ctx, app, input)
		})

	return nil
}

func listInbox(ctx context.Context, app *cli.App, input inboxListInput) ([]queries.ItemDTO, error) {
	if err := readyInbox(ctx, app); err != nil {
		return nil, err
	}
	query := queries.ListItemsQuery{IncludeArchived: input.IncludeArchived, Limit: input.Limit}
	if input.Source != "" {
		source, ok := domain.ParseSource(input.Source)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", input.Source)
		}
		query.Source = source
	}
	if input.Status != "" {
		query.Status = domain.ParseStatus(input.Status)
	}
	return app.ListItemsHandler.Handle(ctx, query)
}

func showItem(ctx context.Context, app *cli.App, raw string) (*queries.ItemDetailDTO, error) {
	key, err := parseKey(raw)
	if err != nil {
		return nil, err
	}
	if err := readyInbox(ctx, app); err != nil {
		return nil, err
	}
	return app.GetItemHandler.Handle(ctx, queries.GetItemQuery{Key: key})
}

func captureItem(ctx context.Context, app *cli.App, input inboxCaptureInput) (*inboxCaptureOutput, error) {
	if app == nil || app.CaptureItemHandler == nil {
		return nil, errNoInbox
	}
	var source domain.Source
	if input.Source != "" {
		var ok bool
		if source, ok = domain.ParseSource(input.Source); !ok {
			return nil, fmt.Errorf("unknown source %q", input.Source)
		}
	}

	result, err := app.CaptureItemHandler.Handle(ctx, commands.CaptureItemCommand{
		FamilyID:      app.FamilyID,
		Source:        source,
		Subject:       input.Subject,
		Body:          input.Body,
		From:          input.From,
		To:            input.To,
		FileName:      input.FileName,
		FileType:      input.FileType,
		FileURL:       input.FileURL,
		ExtractedText: input.Text,
		Category:      input.Category,
		MediaURLs:     input.MediaURLs,
	})
	if err != nil {
		return nil, err
	}
	return &inboxCaptureOutput{Key: result.Key.String()}, nil
}

// applyActions reports per-action failures in the output so the caller
// still sees which records were created.
func applyActions(ctx context.Context, app *cli.App, input inboxApplyInput) (*inboxApplyOutput, error) {
	key, err := parseKey(input.Key)
	if err != nil {
		return nil, err
	}
	if err := readyInbox(ctx, app); err != nil {
		return nil, err
	}
	if app.ApplyActionHandler == nil {
		return nil, errNoInbox
	}

	result, applyErr := app.ApplyActionHandler.Handle(ctx, commands.ApplyActionCommand{
		Key:   key,
		Index: input.Index,
		All:   input.All,
	})
	if result == nil {
		return nil, applyErr
	}

	out := &inboxApplyOutput{Completed: result.Completed, Pending: result.Pending, Failed: result.Failed}
	if applyErr != nil {
		out.Error = applyErr.Error()
	}
	out.Item, err = app.GetItemHandler.Handle(ctx, queries.GetItemQuery{Key: key})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func retryItem(ctx context.Context, app *cli.App, raw string) (*queries.ItemDetailDTO, error) {
	key, err := parseKey(raw)
	if err != nil {
		return nil, err
	}
	if err := readyInbox(ctx, app); err != nil {
		return nil, err
	}
	if app.RetryItemHandler == nil {
		return nil, errNoInbox
	}
	if _, err := app.RetryItemHandler.Handle(ctx, commands.RetryItemCommand{Key: key}); err != nil {
		return nil, err
	}
	return app.GetItemHandler.Handle(ctx, queries.GetItemQuery{Key: key})
}

func archiveItem(ctx context.Context, app *cli.App, input inboxArchiveInput) (*queries.ItemDTO, error) {
	key, err := parseKey(input.Key)
	if err != nil {
		return nil, err
	}
	if err := readyInbox(ctx, app); err != nil {
		return nil, err
	}
	if app.ArchiveItemHandler == nil {
		return nil, errNoInbox
	}
	if _, err := app.ArchiveItemHandler.Handle(ctx, commands.ArchiveItemCommand{Key: key, Unarchive: input.Unarchive}); err != nil {
		return nil, err
	}
	detail, err := app.GetItemHandler.Handle(ctx, queries.GetItemQuery{Key: key})
	if err != nil {
		return nil, err
	}
	return &detail.ItemDTO, nil
}
