package mcp

import (
	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
// With liveFeed set the caller keeps the inbox current by running the feed
// worker, so reads do not reload it.
func NewCLIApp(container *app.Container, liveFeed bool) *cli.App {
	cliApp := cli.NewApp(
		container.CaptureItemHandler,
		container.ApplyActionHandler,
		container.RetryItemHandler,
		container.ArchiveItemHandler,
		container.ListItemsHandler,
		container.GetItemHandler,
	)

	cliApp.SetFamilyID(container.Config.FamilyID)
	cliApp.SetServices(container.CalendarService, container.TaskService, container.ContactService, container.LinkingService)
	cliApp.SetMembers(container.Members())
	cliApp.SetHealth(container.Health)

	if !liveFeed {
		cliApp.SetInboxLoader(container.LoadInbox)
	}

	return cliApp
}
