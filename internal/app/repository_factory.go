package app

import (
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	calendarDomain "github.com/felixgeelhaar/allie/internal/calendar/domain"
	calendarPersistence "github.com/felixgeelhaar/allie/internal/calendar/infrastructure/persistence"
	contactsDomain "github.com/felixgeelhaar/allie/internal/contacts/domain"
	contactsPersistence "github.com/felixgeelhaar/allie/internal/contacts/infrastructure/persistence"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	familyPersistence "github.com/felixgeelhaar/allie/internal/family/infrastructure/persistence"
	inboxDomain "github.com/felixgeelhaar/allie/internal/inbox/domain"
	inboxPersistence "github.com/felixgeelhaar/allie/internal/inbox/persistence"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	linkingPersistence "github.com/felixgeelhaar/allie/internal/linking/infrastructure/persistence"
	tasksDomain "github.com/felixgeelhaar/allie/internal/tasks/domain"
	tasksPersistence "github.com/felixgeelhaar/allie/internal/tasks/infrastructure/persistence"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

// ErrNoBackend is returned when a factory has neither a SQL connection nor
// a Firestore client.
var ErrNoBackend = errors.New("no storage backend configured")

// Repositories groups the stores of every bounded context.
type Repositories struct {
	Items    inboxDomain.ItemStore
	Events   calendarDomain.Repository
	Tasks    tasksDomain.Repository
	Contacts contactsDomain.Repository
	Members  familyDomain.Repository
	Links    linkingDomain.Repository
}

// RepositoryFactory creates repositories for the configured backend.
type RepositoryFactory struct {
	conn      database.Connection
	firestore *firestore.Client
	poll      time.Duration
	logger    *slog.Logger
}

// NewSQLRepositoryFactory builds repositories on a SQLite or PostgreSQL
// connection. poll is how often item feeds look for changes made by other
// processes.
func NewSQLRepositoryFactory(conn database.Connection, poll time.Duration, logger *slog.Logger) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, poll: poll, logger: logger}
}

// NewFirestoreRepositoryFactory builds repositories on Firestore.
func NewFirestoreRepositoryFactory(client *firestore.Client, logger *slog.Logger) *RepositoryFactory {
	return &RepositoryFactory{firestore: client, logger: logger}
}

// Build creates one repository per context.
func (f *RepositoryFactory) Build() (Repositories, error) {
	switch {
	case f.conn != nil:
		return Repositories{
			Items:    inboxPersistence.NewSQLItemStore(f.conn, f.poll, f.logger),
			Events:   calendarPersistence.NewSQLEventRepository(f.conn),
			Tasks:    tasksPersistence.NewSQLTaskRepository(f.conn),
			Contacts: contactsPersistence.NewSQLContactRepository(f.conn),
			Members:  familyPersistence.NewSQLMemberRepository(f.conn),
			Links:    linkingPersistence.NewSQLLinkRepository(f.conn),
		}, nil
	case f.firestore != nil:
		return Repositories{
			Items:    inboxPersistence.NewFirestoreItemStore(f.firestore, f.logger),
			Events:   calendarPersistence.NewFirestoreEventRepository(f.firestore),
			Tasks:    tasksPersistence.NewFirestoreTaskRepository(f.firestore),
			Contacts: contactsPersistence.NewFirestoreContactRepository(f.firestore),
			Members:  familyPersistence.NewFirestoreMemberRepository(f.firestore),
			Links:    linkingPersistence.NewFirestoreLinkRepository(f.firestore),
		}, nil
	default:
		return Repositories{}, ErrNoBackend
	}
}
