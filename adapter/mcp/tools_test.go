package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/adapter/cli"
	internalApp "github.com/felixgeelhaar/allie/internal/app"
	inboxDomain "github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/pkg/config"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*cli.App, *internalApp.Container) {
	t.Helper()
	cfg := &config.Config{
		AppEnv:               "test",
		FamilyID:             "fam-1",
		StoreBackend:         config.BackendSQLite,
		SQLitePath:           filepath.Join(t.TempDir(), "allie.db"),
		StorePollInterval:    50 * time.Millisecond,
		SchedulerMaxAttempts: 3,
		SchedulerBackoff:     time.Second,
		SchedulerMaxBackoff:  time.Minute,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	app := cli.NewApp(
		container.CaptureItemHandler,
		container.ApplyActionHandler,
		container.RetryItemHandler,
		container.ArchiveItemHandler,
		container.ListItemsHandler,
		container.GetItemHandler,
	)
	app.SetFamilyID(cfg.FamilyID)
	app.SetServices(container.CalendarService, container.TaskService, container.ContactService, container.LinkingService)
	app.SetMembers(container.Members())
	app.SetHealth(container.Health)
	app.SetInboxLoader(container.LoadInbox)
	return app, container
}

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{
		"cli.health",
		"inbox.list", "inbox.show", "inbox.capture", "inbox.apply", "inbox.retry", "inbox.archive",
		"records.events", "records.tasks", "records.contacts", "records.related",
		"family.members", "family.add_member",
	} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
	assert.Error(t, RegisterCLITools(srv, ToolDependencies{}))
}

func TestInboxTools_Unwired(t *testing.T) {
	ctx := context.Background()
	app := &cli.App{}

	_, err := listInbox(ctx, app, inboxListInput{})
	assert.ErrorIs(t, err, errNoInbox)

	_, err = captureItem(ctx, app, inboxCaptureInput{Body: "hi"})
	assert.ErrorIs(t, err, errNoInbox)

	_, err = listMembers(ctx, app)
	assert.ErrorIs(t, err, errNoMembers)

	health, err := checkHealth(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestInboxTools_CaptureListShowArchive(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	captured, err := captureItem(ctx, app, inboxCaptureInput{
		Source:  "sms",
		From:    "+15551234567",
		Body:    "Piano lesson moved to Thursday 4pm",
		Subject: "",
	})
	require.NoError(t, err)
	assert.Contains(t, captured.Key, "smsInbox/")

	_, err = captureItem(ctx, app, inboxCaptureInput{Source: "pigeon", Body: "coo"})
	assert.ErrorContains(t, err, "unknown source")

	items, err := listInbox(ctx, app, inboxListInput{Source: "sms"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, captured.Key, items[0].Key)
	assert.Equal(t, "pending", items[0].Status)

	detail, err := showItem(ctx, app, captured.Key)
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", detail.From)
	assert.Empty(t, detail.Actions)

	_, err = showItem(ctx, app, "")
	assert.ErrorContains(t, err, "key is required")

	archived, err := archiveItem(ctx, app, inboxArchiveInput{Key: captured.Key})
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	items, err = listInbox(ctx, app, inboxListInput{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInboxTools_ApplyCreatesLinkedTask(t *testing.T) {
	ctx := context.Background()
	app, container := newTestApp(t)

	captured, err := captureItem(ctx, app, inboxCaptureInput{Subject: "Costume day", Body: "Bring a costume on Friday"})
	require.NoError(t, err)
	key, err := inboxDomain.ParseItemKey(captured.Key)
	require.NoError(t, err)

	var patch inboxDomain.Patch
	patch.Status(inboxDomain.StatusProcessed).
		SuggestedActions([]inboxDomain.SuggestedAction{{
			Type:   inboxDomain.ActionTask,
			Title:  "Find a costume",
			Status: inboxDomain.ActionPending,
		}})
	require.NoError(t, container.Repos.Items.Update(ctx, key, patch))

	pending, err := listInbox(ctx, app, inboxListInput{})
	require.NoError(t, err)
	assert.Len(t, pendingReview(pending), 1)

	out, err := applyActions(ctx, app, inboxApplyInput{Key: captured.Key, All: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Completed)
	assert.Empty(t, out.Error)
	require.Len(t, out.Item.Actions, 1)
	assert.Equal(t, "completed", out.Item.Actions[0].Status)

	tasks, err := listTasks(ctx, app, tasksInput{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Find a costume", tasks[0].Title)
	assert.Equal(t, captured.Key, tasks[0].Source)

	links, err := listRelated(ctx, app, relatedInput{Type: "inbox_item", ID: captured.Key})
	require.NoError(t, err)
	require.NotEmpty(t, links)
	assert.Equal(t, "task:"+tasks[0].ID, links[0].To)
}

func TestFamilyTools(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	added, err := addMember(ctx, app, addMemberInput{Name: "Emma", Role: "daughter"})
	require.NoError(t, err)
	assert.Equal(t, "child", added.Role)

	_, err = addMember(ctx, app, addMemberInput{Name: " "})
	assert.Error(t, err)

	members, err := listMembers(ctx, app)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Emma", members[0].Name)
}

func TestRecordTools_InvalidDate(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := listEvents(context.Background(), app, eventsInput{From: "next week"})
	assert.ErrorContains(t, err, "YYYY-MM-DD")

	events, err := listEvents(context.Background(), app, eventsInput{From: "2026-01-01", To: "2026-01-31"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCheckHealth(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.LoadInbox(ctx))

	health, err := checkHealth(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Checks, "database")
	assert.Contains(t, health.Checks, "inbox_feed")
}
