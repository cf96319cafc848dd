package cli

import (
	"context"

	calendarApp "github.com/felixgeelhaar/allie/internal/calendar/application"
	contactsApp "github.com/felixgeelhaar/allie/internal/contacts/application"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	inboxCommands "github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	inboxQueries "github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	linkingApp "github.com/felixgeelhaar/allie/internal/linking/application"
	tasksApp "github.com/felixgeelhaar/allie/internal/tasks/application"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Inbox Command Handlers
	CaptureItemHandler *inboxCommands.CaptureItemHandler
	ApplyActionHandler *inboxCommands.ApplyActionHandler
	RetryItemHandler   *inboxCommands.RetryItemHandler
	ArchiveItemHandler *inboxCommands.ArchiveItemHandler

	// Inbox Query Handlers
	ListItemsHandler *inboxQueries.ListItemsHandler
	GetItemHandler   *inboxQueries.GetItemHandler

	// Records created from the inbox
	CalendarService *calendarApp.Service
	TaskService     *tasksApp.Service
	ContactService  *contactsApp.Service
	LinkingService  *linkingApp.Service
	Members         familyDomain.Repository

	Health *observability.HealthRegistry

	// loadInbox reads the current inbox; nil when a live feed keeps it current.
	loadInbox func(ctx context.Context) error

	// Family every command acts on (configured per environment)
	FamilyID string
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	captureItemHandler *inboxCommands.CaptureItemHandler,
	applyActionHandler *inboxCommands.ApplyActionHandler,
	retryItemHandler *inboxCommands.RetryItemHandler,
	archiveItemHandler *inboxCommands.ArchiveItemHandler,
	listItemsHandler *inboxQueries.ListItemsHandler,
	getItemHandler *inboxQueries.GetItemHandler,
) *App {
	return &App{
		CaptureItemHandler: captureItemHandler,
		ApplyActionHandler: applyActionHandler,
		RetryItemHandler:   retryItemHandler,
		ArchiveItemHandler: archiveItemHandler,
		ListItemsHandler:   listItemsHandler,
		GetItemHandler:     getItemHandler,
	}
}

// SetFamilyID updates the current family.
func (a *App) SetFamilyID(id string) {
	a.FamilyID = id
}

// SetServices sets the services behind the record commands.
func (a *App) SetServices(calendar *calendarApp.Service, tasks *tasksApp.Service, contacts *contactsApp.Service, linking *linkingApp.Service) {
	a.CalendarService = calendar
	a.TaskService = tasks
	a.ContactService = contacts
	a.LinkingService = linking
}

// SetMembers sets the family member directory.
func (a *App) SetMembers(members familyDomain.Repository) {
	a.Members = members
}

// SetHealth sets the dependency health registry.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// SetInboxLoader sets how one-shot commands read the current inbox.
func (a *App) SetInboxLoader(load func(ctx context.Context) error) {
	a.loadInbox = load
}

// LoadInbox refreshes the inbox view before a read.
func (a *App) LoadInbox(ctx context.Context) error {
	if a.loadInbox == nil {
		return nil
	}
	return a.loadInbox(ctx)
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
