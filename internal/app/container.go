package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	calendarApp "github.com/felixgeelhaar/allie/internal/calendar/application"
	calendarSubs "github.com/felixgeelhaar/allie/internal/calendar/application/subscribers"
	"github.com/felixgeelhaar/allie/internal/calendar/infrastructure/caldav"
	contactsApp "github.com/felixgeelhaar/allie/internal/contacts/application"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	inboxCommands "github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	inboxQueries "github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	inboxWorkers "github.com/felixgeelhaar/allie/internal/inbox/application/workers"
	inboxDomain "github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/infrastructure/openai"
	"github.com/felixgeelhaar/allie/internal/inbox/materialize"
	"github.com/felixgeelhaar/allie/internal/inbox/reconcile"
	"github.com/felixgeelhaar/allie/internal/inbox/scheduler"
	inboxServices "github.com/felixgeelhaar/allie/internal/inbox/services"
	linkingApp "github.com/felixgeelhaar/allie/internal/linking/application"
	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/outbox"
	tasksApp "github.com/felixgeelhaar/allie/internal/tasks/application"
	"github.com/felixgeelhaar/allie/pkg/config"
	"github.com/felixgeelhaar/allie/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// ErrAIDisabled is returned by the classifier when no AI provider is configured.
var ErrAIDisabled = errors.New("AI provider is not configured")

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage
	DBConn      database.Connection
	Firestore   *firestore.Client
	RedisClient *redis.Client
	UnitOfWork  sharedApplication.UnitOfWork
	Repos       Repositories

	// Events. EventPublisher is what services publish through: the outbox on
	// SQL backends, otherwise the bus itself.
	EventBus        eventbus.Publisher
	EventPublisher  eventbus.Publisher
	OutboxRepo      outbox.Repository
	OutboxProcessor *outbox.Processor
	Subscribers     []eventbus.EventConsumer

	// Downstream contexts
	CalendarService *calendarApp.Service
	TaskService     *tasksApp.Service
	ContactService  *contactsApp.Service
	LinkingService  *linkingApp.Service

	// Inbox runtime
	InboxState   *reconcile.State
	Pipeline     *inboxServices.Pipeline
	Scheduler    *scheduler.Scheduler
	FeedWorker   *inboxWorkers.FeedWorker
	Materializer *materialize.Materializer

	// Inbox command handlers
	ClassifyItemHandler *inboxCommands.ClassifyItemHandler
	ApplyActionHandler  *inboxCommands.ApplyActionHandler
	RetryItemHandler    *inboxCommands.RetryItemHandler
	ArchiveItemHandler  *inboxCommands.ArchiveItemHandler
	CaptureItemHandler  *inboxCommands.CaptureItemHandler

	// Inbox query handlers
	ListItemsHandler *inboxQueries.ListItemsHandler
	GetItemHandler   *inboxQueries.GetItemHandler
}

// NewContainer wires the application for the configured backend.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	factory, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.Repos, err = factory.Build()
	if err != nil {
		c.Close()
		return nil, err
	}

	c.connectRedis(ctx)

	if err := c.initEvents(); err != nil {
		c.Close()
		return nil, err
	}

	c.CalendarService = calendarApp.NewService(c.Repos.Events, c.EventPublisher, logger)
	c.TaskService = tasksApp.NewService(c.Repos.Tasks, c.EventPublisher, logger)
	c.ContactService = contactsApp.NewService(c.Repos.Contacts, c.EventPublisher, logger)
	if c.UnitOfWork != nil {
		c.CalendarService.WithUnitOfWork(c.UnitOfWork)
		c.TaskService.WithUnitOfWork(c.UnitOfWork)
		c.ContactService.WithUnitOfWork(c.UnitOfWork)
	}
	c.LinkingService = linkingApp.NewService(c.Repos.Links, c.EventPublisher, logger)

	c.initInbox()

	logger.Info("container ready",
		"backend", cfg.StoreBackend,
		"family_id", cfg.FamilyID,
		"ai_enabled", cfg.AIEnabled(),
		"auto_process", cfg.AutoProcess,
	)
	return c, nil
}

func (c *Container) openStore(ctx context.Context) (*RepositoryFactory, error) {
	cfg := c.Config
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := firestoredb.NewClient(ctx, firestoredb.Config{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentials,
		})
		if err != nil {
			return nil, err
		}
		c.Firestore = client
		c.Logger.Info("connected to Firestore", "project_id", cfg.FirebaseProjectID)
		return NewFirestoreRepositoryFactory(client, c.Logger), nil

	case config.BackendSQLite, config.BackendPostgres, "":
		driver, err := database.ParseDriver(cfg.StoreBackend)
		if err != nil {
			return nil, err
		}
		conn, err := database.NewConnection(ctx, database.Config{
			Driver:     driver,
			URL:        cfg.DatabaseURL,
			SQLitePath: cfg.SQLitePath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migrations.Run(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		c.DBConn = conn
		c.UnitOfWork = database.NewUnitOfWork(conn)
		c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))
		c.Logger.Info("connected to database", "driver", driver)
		return NewSQLRepositoryFactory(conn, cfg.StorePollInterval, c.Logger), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}

// connectRedis is best effort in development: without Redis the retry
// budget lives in memory.
func (c *Container) connectRedis(ctx context.Context) {
	if c.Config.RedisURL == "" {
		return
	}
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, retry budget will be kept in memory", "error", err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("Redis not available, retry budget will be kept in memory", "error", err)
		_ = client.Close()
		return
	}
	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
}

func (c *Container) initEvents() error {
	cfg := c.Config

	if cfg.CalDAVEnabled() {
		syncer := caldav.NewSyncer(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, c.Logger)
		if cfg.CalDAVCalendarPath != "" {
			syncer.WithCalendarPath(cfg.CalDAVCalendarPath)
		}
		c.Subscribers = append(c.Subscribers, calendarSubs.NewCalendarSyncSubscriber(syncer, c.Logger))
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, delivering events in process", "error", err)
		} else {
			c.EventBus = publisher
		}
	}
	if c.EventBus == nil {
		bus := eventbus.NewInProcessEventBus(c.Logger)
		for _, sub := range c.Subscribers {
			bus.RegisterConsumer(sub)
		}
		c.EventBus = bus
	}

	c.EventPublisher = c.EventBus
	if c.DBConn != nil {
		c.OutboxRepo = outbox.NewSQLRepository(c.DBConn)
		c.EventPublisher = outbox.NewPublisher(c.OutboxRepo, c.Logger)
		c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventBus, outbox.DefaultProcessorConfig(), c.Logger, c.Metrics)
	}
	return nil
}

func (c *Container) initInbox() {
	cfg := c.Config

	var completer inboxServices.Completer = inboxServices.CompleterFunc(
		func(ctx context.Context, req inboxServices.CompletionRequest) (string, error) {
			return "", ErrAIDisabled
		})
	if cfg.AIEnabled() {
		completer = openai.NewCompleter(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           cfg.OpenAIModel,
			Timeout:         cfg.AITimeout,
			BreakerFailures: uint32(max(cfg.AIBreakerFailures, 0)),
			BreakerTimeout:  cfg.AIBreakerTimeout,
		}, c.Logger)
	}

	pipelineCfg := inboxServices.DefaultPipelineConfig()
	if cfg.AITemperature > 0 {
		pipelineCfg.Temperature = float32(cfg.AITemperature)
	}
	if cfg.AIMaxTokens > 0 {
		pipelineCfg.MaxTokens = cfg.AIMaxTokens
	}
	c.Pipeline = inboxServices.NewPipeline(completer, pipelineCfg, c.Logger)

	var budget scheduler.RetryBudget
	policy := scheduler.Backoff{
		MaxAttempts: cfg.SchedulerMaxAttempts,
		Base:        cfg.SchedulerBackoff,
		Max:         cfg.SchedulerMaxBackoff,
	}
	if c.RedisClient != nil {
		budget = scheduler.NewRedisBudget(c.RedisClient, policy)
	} else {
		budget = scheduler.NewMemoryBudget(policy)
	}

	c.InboxState = reconcile.NewState()
	c.ClassifyItemHandler = inboxCommands.NewClassifyItemHandler(c.Repos.Items, c.Pipeline, c.EventPublisher, c.Logger, c.Metrics)
	c.Scheduler = scheduler.New(c.InboxState, c.ClassifyItemHandler, budget, scheduler.Config{
		Stagger:     cfg.SchedulerStagger,
		ItemTimeout: cfg.SchedulerItemTimeout,
	}, c.Logger, c.Metrics)

	var enqueuer inboxWorkers.Enqueuer
	if cfg.AutoProcess {
		enqueuer = c.Scheduler
	}
	c.FeedWorker = inboxWorkers.NewFeedWorker(cfg.FamilyID, c.Repos.Items, c.InboxState, enqueuer, c.Logger, c.Metrics)

	matCfg := materialize.DefaultConfig()
	if cfg.CalendarKnownBadYear != 0 {
		matCfg.KnownBadYear = cfg.CalendarKnownBadYear
	}
	matCfg.TargetYear = cfg.CalendarTargetYear
	matCfg.Location = time.Local
	c.Materializer = materialize.New(materialize.Deps{
		Store:     c.Repos.Items,
		Calendar:  c.CalendarService,
		Tasks:     c.TaskService,
		Contacts:  c.ContactService,
		Members:   c.Repos.Members,
		Linker:    c.LinkingService,
		Publisher: c.EventPublisher,
	}, matCfg, c.Logger, c.Metrics)

	c.ApplyActionHandler = inboxCommands.NewApplyActionHandler(c.InboxState, c.Repos.Items, c.Materializer)
	c.RetryItemHandler = inboxCommands.NewRetryItemHandler(c.Scheduler)
	c.ArchiveItemHandler = inboxCommands.NewArchiveItemHandler(c.InboxState, c.Repos.Items, c.EventPublisher, c.Logger)
	c.CaptureItemHandler = inboxCommands.NewCaptureItemHandler(c.Repos.Items)

	c.ListItemsHandler = inboxQueries.NewListItemsHandler(c.InboxState)
	c.GetItemHandler = inboxQueries.NewGetItemHandler(c.InboxState)

	c.Health.Register("inbox_feed", func(ctx context.Context) observability.HealthCheckResult {
		if !c.FeedWorker.Ready() {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: "feed not loaded"}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "feed loaded"}
	})
}

// ItemStore returns the source collections of the configured backend.
func (c *Container) ItemStore() inboxDomain.ItemStore {
	return c.Repos.Items
}

// Members returns the family member directory.
func (c *Container) Members() familyDomain.Repository {
	return c.Repos.Members
}

// LoadInbox reads every collection once so one-shot callers see the
// current inbox without holding subscriptions open.
func (c *Container) LoadInbox(ctx context.Context) error {
	return c.FeedWorker.Load(ctx)
}

// StartConsumers delivers broker events to the registered subscribers and
// blocks until ctx is done. With the in-process bus, delivery happens on
// publish and this only waits.
func (c *Container) StartConsumers(ctx context.Context) error {
	if bus, ok := c.EventBus.(*eventbus.InProcessEventBus); ok {
		return bus.Start(ctx)
	}
	if len(c.Subscribers) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    c.Config.RabbitMQURL,
		Logger: c.Logger,
	}, eventbus.NewConsumerRegistry(c.Logger))
	if err != nil {
		return fmt.Errorf("failed to start event consumer: %w", err)
	}
	defer consumer.Close()
	for _, sub := range c.Subscribers {
		consumer.RegisterConsumer(sub)
	}
	return consumer.Start(ctx)
}

// Close cleans up all resources. Pending outbox messages are relayed once
// when no processor loop is running so one-shot commands still deliver.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Wait()
	}

	if c.OutboxProcessor != nil {
		if c.OutboxProcessor.IsRunning() {
			c.OutboxProcessor.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
			c.Logger.Warn("error relaying outbox", "error", err)
		}
		cancel()
	}

	if c.EventBus != nil {
		if err := c.EventBus.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			c.Logger.Warn("error closing Firestore client", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBConn.Driver())
		}
	}
}
