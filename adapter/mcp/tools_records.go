package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/allie/adapter/cli"
	calendarDomain "github.com/felixgeelhaar/allie/internal/calendar/domain"
	contactsDomain "github.com/felixgeelhaar/allie/internal/contacts/domain"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	tasksDomain "github.com/felixgeelhaar/allie/internal/tasks/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type eventsInput struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type tasksInput struct {
	Column string `json:"column,omitempty"`
}

type relatedInput struct {
	Type string `json:"type" jsonschema:"required"`
	ID   string `json:"id" jsonschema:"required"`
}

type eventOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"all_day,omitempty"`
	Location string `json:"location,omitempty"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
}

type taskOutput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority"`
	Column      string   `json:"column"`
	DueAt       string   `json:"due_at,omitempty"`
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
	Source      string   `json:"source,omitempty"`
}

type contactOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Category string `json:"category,omitempty"`
}

type linkOutput struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

func registerRecordTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("records.events").
		Description("List family calendar events, optionally between two dates (YYYY-MM-DD)").
		Handler(func(ctx context.Context, input eventsInput) ([]eventOutput, error) {
			return listEvents(ctx, app, input)
		})

	srv.Tool("records.tasks").
		Description("List family tasks, optionally in one board column (today or upcoming)").
		Handler(func(ctx context.Context, input tasksInput) ([]taskOutput, error) {
			return listTasks(ctx, app, input)
		})

	srv.Tool("records.contacts").
		Description("List family contacts").
		Handler(func(ctx context.Context, input struct{}) ([]contactOutput, error) {
			return listContacts(ctx, app)
		})

	srv.Tool("records.related").
		Description("List records linked to an inbox item, event, task or contact").
		Handler(func(ctx context.Context, input relatedInput) ([]linkOutput, error) {
			return listRelated(ctx, app, input)
		})

	return nil
}

func listEvents(ctx context.Context, app *cli.App, input eventsInput) ([]eventOutput, error) {
	if app == nil || app.CalendarService == nil {
		return nil, errors.New("calendar requires a configured store")
	}
	from, err := parseDate(input.From, time.Time{})
	if err != nil {
		return nil, err
	}
	to, err := parseDate(input.To, time.Time{})
	if err != nil {
		return nil, err
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	events, err := app.CalendarService.ListEvents(ctx, app.FamilyID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]eventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, toEventOutput(e))
	}
	return out, nil
}

func toEventOutput(e calendarDomain.Event) eventOutput {
	return eventOutput{
		ID:       e.ID,
		Title:    e.Title,
		Start:    e.Start.Format(time.RFC3339),
		End:      e.End.Format(time.RFC3339),
		AllDay:   e.AllDay,
		Location: e.Location,
		Category: e.Category,
		Source:   e.Source.String(),
	}
}

func listTasks(ctx context.Context, app *cli.App, input tasksInput) ([]taskOutput, error) {
	if app == nil || app.TaskService == nil {
		return nil, errors.New("tasks require a configured store")
	}
	tasks, err := app.TaskService.ListTasks(ctx, app.FamilyID, tasksDomain.Column(input.Column))
	if err != nil {
		return nil, err
	}
	out := make([]taskOutput, 0, len(tasks))
	for _, t := range tasks {
		task := taskOutput{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    string(t.Priority),
			Column:      string(t.Column),
			AssigneeIDs: t.AssigneeIDs,
			Source:      t.Source.String(),
		}
		if t.DueAt != nil {
			task.DueAt = t.DueAt.Format(time.RFC3339)
		}
		out = append(out, task)
	}
	return out, nil
}

func listContacts(ctx context.Context, app *cli.App) ([]contactOutput, error) {
	if app == nil || app.ContactService == nil {
		return nil, errors.New("contacts require a configured store")
	}
	contacts, err := app.ContactService.ListContacts(ctx, app.FamilyID)
	if err != nil {
		return nil, err
	}
	out := make([]contactOutput, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactOutput(c))
	}
	return out, nil
}

func toContactOutput(c contactsDomain.Contact) contactOutput {
	return contactOutput{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Role: c.Role, Category: c.Category}
}

func listRelated(ctx context.Context, app *cli.App, input relatedInput) ([]linkOutput, error) {
	if app == nil || app.LinkingService == nil {
		return nil, errors.New("links require a configured store")
	}
	if input.Type == "" || input.ID == "" {
		return nil, errors.New("type and id are required")
	}
	links, err := app.LinkingService.Related(ctx, linkingDomain.Ref{Type: linkingDomain.EntityType(input.Type), ID: input.ID})
	if err != nil {
		return nil, err
	}
	out := make([]linkOutput, 0, len(links))
	for _, l := range links {
		out = append(out, linkOutput{From: l.From.String(), To: l.To.String(), Relation: l.Relation})
	}
	return out, nil
}
