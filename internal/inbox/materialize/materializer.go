// Package materialize turns suggested actions on inbox items into calendar
// events, tasks and contacts, and records the outcome on the item.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	calendarDomain "github.com/felixgeelhaar/allie/internal/calendar/domain"
	contactsDomain "github.com/felixgeelhaar/allie/internal/contacts/domain"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	tasksDomain "github.com/felixgeelhaar/allie/internal/tasks/domain"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

var (
	ErrMissingStartDate   = errors.New("calendar action has no start date")
	ErrMissingTitle       = errors.New("action has no title")
	ErrMissingContactName = errors.New("contact action has no name")
	ErrUnknownActionType  = errors.New("unknown action type")
)

// ActionError reports a single action that could not be applied. The
// failure is also recorded on the action itself.
type ActionError struct {
	Item  domain.ItemKey
	Index int
	Type  domain.ActionType
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s action %d (%s): %v", e.Item, e.Index, e.Type, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// CalendarCreator creates calendar events. Creating an event whose ID
// exists returns the stored event.
type CalendarCreator interface {
	CreateEvent(ctx context.Context, event calendarDomain.Event) (calendarDomain.Event, error)
}

// TaskCreator creates tasks on the family board.
type TaskCreator interface {
	CreateTask(ctx context.Context, task tasksDomain.Task) (tasksDomain.Task, error)
}

// ContactDirectory looks contacts up by name and creates missing ones.
type ContactDirectory interface {
	FindOrCreate(ctx context.Context, contact contactsDomain.Contact) (contactsDomain.Contact, bool, error)
}

// MemberDirectory lists the people in a family.
type MemberDirectory interface {
	ListByFamily(ctx context.Context, familyID string) ([]familyDomain.Member, error)
}

// EntityLinker cross-references created records. It reports failures in
// the result rather than returning them.
type EntityLinker interface {
	Link(ctx context.Context, familyID string, a, b linkingDomain.Ref, relation string) linkingDomain.Result
}

// Config tunes materialization.
type Config struct {
	// KnownBadYear is a year the classifier is known to emit by mistake.
	// Zero disables the correction.
	KnownBadYear int
	// TargetYear replaces KnownBadYear. Zero means the current year.
	TargetYear int
	// CompanionEvents adds an all-day calendar entry for tasks with a due date.
	CompanionEvents bool
	// Location interprets dates that carry no zone.
	Location *time.Location
}

// DefaultConfig corrects 2024 to the current year and creates companion events.
func DefaultConfig() Config {
	return Config{KnownBadYear: 2024, CompanionEvents: true, Location: time.UTC}
}

// Materializer applies suggested actions.
type Materializer struct {
	store     domain.ItemStore
	calendar  CalendarCreator
	tasks     TaskCreator
	contacts  ContactDirectory
	members   MemberDirectory
	linker    EntityLinker
	publisher eventbus.Publisher
	cfg       Config
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time
}

// Deps groups the collaborators of a Materializer.
type Deps struct {
	Store     domain.ItemStore
	Calendar  CalendarCreator
	Tasks     TaskCreator
	Contacts  ContactDirectory
	Members   MemberDirectory
	Linker    EntityLinker
	Publisher eventbus.Publisher
}

// New creates a materializer. Publisher, logger and metrics may be nil.
func New(deps Deps, cfg Config, logger *slog.Logger, metrics observability.Metrics) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Materializer{
		store:     deps.Store,
		calendar:  deps.Calendar,
		tasks:     deps.Tasks,
		contacts:  deps.Contacts,
		members:   deps.Members,
		linker:    deps.Linker,
		publisher: deps.Publisher,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ApplyAction materializes the action at index and writes the outcome back
// to the item's own collection. Actions that are no longer pending are
// left alone. A failed action is recorded on the item and returned as an
// *ActionError together with the updated item.
func (m *Materializer) ApplyAction(ctx context.Context, item domain.InboxItem, index int) (domain.InboxItem, error) {
	if index < 0 || index >= len(item.SuggestedActions) {
		return item, fmt.Errorf("%w: index %d of %s", domain.ErrActionNotFound, index, item.Key())
	}
	if !item.SuggestedActions[index].IsPending() {
		m.logger.DebugContext(ctx, "action already applied",
			observability.ItemIDKey, item.ID,
			"action_index", index,
			"status", string(item.SuggestedActions[index].Status),
		)
		return item, nil
	}
	return m.apply(ctx, item.Clone(), index)
}

// ApplyAllActions applies every pending action in order. Each outcome is
// persisted before the next action runs; failures are joined.
func (m *Materializer) ApplyAllActions(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error) {
	current := item.Clone()
	var errs []error
	for i := range current.SuggestedActions {
		if !current.SuggestedActions[i].IsPending() {
			continue
		}
		updated, err := m.apply(ctx, current, i)
		current = updated
		if err != nil {
			errs = append(errs, err)
		}
	}
	return current, errors.Join(errs...)
}

func (m *Materializer) apply(ctx context.Context, item domain.InboxItem, index int) (domain.InboxItem, error) {
	action := item.SuggestedActions[index]
	logger := m.logger.With(
		observability.CollectionKey, string(item.Source.Collection()),
		observability.ItemIDKey, item.ID,
		"action_index", index,
		"action_type", string(action.Type),
	)
	src := shared.SourceRef{
		Collection:  string(item.Source.Collection()),
		ItemID:      item.ID,
		ActionIndex: index,
		Purpose:     shared.PurposeAction,
	}

	var (
		resultID, link string
		err            error
	)
	switch action.Type {
	case domain.ActionCalendar:
		resultID, link, err = m.applyCalendar(ctx, item, index, src, logger)
	case domain.ActionTask:
		resultID, link, err = m.applyTask(ctx, item, index, src, logger)
	case domain.ActionContact:
		resultID, link, err = m.applyContact(ctx, item, index, src, logger)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownActionType, action.Type)
	}

	tag := observability.T("type", string(action.Type))
	var actionErr error
	if err != nil {
		item.SuggestedActions[index].Fail(err)
		actionErr = &ActionError{Item: item.Key(), Index: index, Type: action.Type, Err: err}
		m.metrics.Counter(observability.MetricActionsFailed, 1, tag)
		logger.WarnContext(ctx, "action failed", observability.ErrorKey, err)
	} else {
		item.SuggestedActions[index].Complete(resultID, link, m.now().UTC())
		m.metrics.Counter(observability.MetricActionsApplied, 1, tag)
		logger.InfoContext(ctx, "action applied", "result_id", resultID)
	}
	item.AllieActions = domain.AllieActions(item.SuggestedActions)

	var patch domain.Patch
	patch.SuggestedActions(item.SuggestedActions).AllieActions(item.SuggestedActions)
	if perr := m.store.Update(ctx, item.Key(), patch); perr != nil {
		logger.ErrorContext(ctx, "failed to persist action outcome", observability.ErrorKey, perr)
		return item, errors.Join(actionErr, fmt.Errorf("persist actions of %s: %w", item.Key(), perr))
	}

	if m.publisher != nil {
		if perr := eventbus.PublishEvent(ctx, m.publisher, domain.NewActionApplied(item, index)); perr != nil {
			logger.WarnContext(ctx, "failed to publish action outcome", observability.ErrorKey, perr)
		}
	}
	return item, actionErr
}

// linkTo best-effort links ref to the completed actions of the given types
// on the same item. Failures are logged and counted, never returned.
func (m *Materializer) linkTo(ctx context.Context, item domain.InboxItem, skip int, ref linkingDomain.Ref, types map[domain.ActionType]linkingDomain.EntityType, logger *slog.Logger) {
	if m.linker == nil {
		return
	}
	var result linkingDomain.Result
	for i, other := range item.SuggestedActions {
		if i == skip || other.Status != domain.ActionCompleted || other.ResultID == "" {
			continue
		}
		entity, ok := types[other.Type]
		if !ok {
			continue
		}
		result.Add(m.linker.Link(ctx, item.FamilyID, ref, linkingDomain.Ref{Type: entity, ID: other.ResultID}, linkingDomain.RelationRelated))
	}
	itemRef := linkingDomain.Ref{Type: linkingDomain.EntityInboxItem, ID: item.Key().String()}
	result.Add(m.linker.Link(ctx, item.FamilyID, itemRef, ref, linkingDomain.RelationExtractedTo))
	m.reportLinks(ctx, result, logger)
}

func (m *Materializer) reportLinks(ctx context.Context, result linkingDomain.Result, logger *slog.Logger) {
	if result.OK() {
		return
	}
	m.metrics.Counter(observability.MetricLinksFailed, int64(len(result.Failed)))
	logger.WarnContext(ctx, "some links could not be written",
		"failed", len(result.Failed),
		"created", result.Created,
		observability.ErrorKey, result.Err(),
	)
}

func (m *Materializer) category(item domain.InboxItem) string {
	if item.AIAnalysis != nil && item.AIAnalysis.Category != "" {
		return item.AIAnalysis.Category
	}
	return item.Content.Category
}
