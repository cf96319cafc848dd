package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

const dateLayout = "2006-01-02"

var errNoInbox = errors.New("inbox requires a configured store")

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

func parseKey(value string) (domain.ItemKey, error) {
	if strings.TrimSpace(value) == "" {
		return domain.ItemKey{}, errors.New("key is required")
	}
	return domain.ParseItemKey(value)
}

// readyInbox checks the app is wired and refreshes the inbox view.
func readyInbox(ctx context.Context, app *cli.App) error {
	if app == nil || app.ListItemsHandler == nil || app.GetItemHandler == nil {
		return errNoInbox
	}
	return app.LoadInbox(ctx)
}
