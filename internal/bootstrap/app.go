// Package bootstrap wires configuration into a running application: database
// or in-memory repositories, object store, queue client, extraction pipeline,
// services, handlers and finally the HTTP router. The API, worker and Lambda
// binaries all start from Build so they share one wiring path.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "ledgerly-backend/internal/auth"
	"ledgerly-backend/internal/cashflow"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/ingest"
	"ledgerly-backend/internal/peppol"
	"ledgerly-backend/internal/queue"
	"ledgerly-backend/internal/services/health"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/internal/shared/server"
	"ledgerly-backend/internal/shared/storage/db"
	"ledgerly-backend/internal/shared/storage/object"
	localstore "ledgerly-backend/internal/shared/storage/object/local"
	miniostore "ledgerly-backend/internal/shared/storage/object/minio"
	s3store "ledgerly-backend/internal/shared/storage/object/s3"
	"ledgerly-backend/internal/uploads"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/internal/users"
	"ledgerly-backend/internal/workspaces"
)

// App holds the wired dependencies of one process. The API binaries serve
// App.Router; the worker binaries run App.Pipeline against queue messages.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo      users.Repo
	WorkspacesRepo workspaces.Repo
	ContactsRepo   contacts.Repo
	DocumentsRepo  documents.Repo
	CashflowRepo   cashflow.Repo
	PeppolRepo     peppol.Repo

	UsersService      *users.Service
	WorkspacesService *workspaces.Service
	ContactsService   *contacts.Service
	DocumentsService  *documents.Service
	CashflowService   *cashflow.Service
	UsageService      *usage.Service
	PeppolService     *peppol.Service
	HealthService     *health.Service

	Extractor ingest.Extractor
	Pipeline  *ingest.Pipeline

	UsersHandler      *users.Handler
	WorkspacesHandler *workspaces.Handler
	ContactsHandler   *contacts.Handler
	DocumentsHandler  *documents.Handler
	CashflowHandler   *cashflow.Handler
	UsageHandler      *usage.Handler
	PeppolHandler     *peppol.Handler
	UploadsHandler    *uploads.Handler
	GoogleAuth        *googleauth.GoogleService
}

// Build prepares all shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil && cfg.MigrateOnStart {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.HealthService,
		GoogleAuth:        app.GoogleAuth,
		Users:             app.UsersHandler,
		Workspaces:        app.WorkspacesHandler,
		WorkspacesService: app.WorkspacesService,
		Contacts:          app.ContactsHandler,
		Documents:         app.DocumentsHandler,
		Cashflow:          app.CashflowHandler,
		Usage:             app.UsageHandler,
		Peppol:            app.PeppolHandler,
		Uploads:           app.UploadsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue returns nil when no queue is configured; documents then ingest
// inline in the API process.
func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueMode != "sqs" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

// buildExtractor picks the extraction provider. A missing Gemini key is an
// error outside dev; dev boots fall back to the deterministic stub so the
// flow stays runnable without credentials.
func buildExtractor(ctx context.Context, cfg config.Config) (ingest.Extractor, error) {
	switch cfg.ExtractProvider {
	case "stub":
		return ingest.Stub{}, nil
	case "", "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: GEMINI_API_KEY empty; using stub extractor")
				return ingest.Stub{}, nil
			}
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini extractor")
		}
		return ingest.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown EXTRACT_PROVIDER %q", cfg.ExtractProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.WorkspacesRepo = &workspaces.PGRepo{DB: app.DB}
		app.ContactsRepo = &contacts.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.CashflowRepo = &cashflow.PGRepo{DB: app.DB}
		app.PeppolRepo = &peppol.PGRepo{DB: app.DB}
		app.UsageService = usage.NewPostgresService(usage.NewPGStore(app.DB, app.Config.UsageFreeLimit))
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.WorkspacesRepo = workspaces.NewMemoryRepo()
		app.ContactsRepo = contacts.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.CashflowRepo = cashflow.NewMemoryRepo()
		app.PeppolRepo = peppol.NewMemoryRepo()
		app.UsageService = usage.NewService(app.Config.UsageFreeLimit)
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.WorkspacesService = workspaces.NewService(app.WorkspacesRepo)
	app.ContactsService = contacts.NewService(app.ContactsRepo)
	app.CashflowService = cashflow.NewService(app.CashflowRepo)

	extractor, err := buildExtractor(ctx, app.Config)
	if err != nil {
		return err
	}
	app.Extractor = extractor
	app.Pipeline = ingest.NewPipeline(app.DocumentsRepo, app.Store, app.ContactsService, extractor)

	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Repo:     app.DocumentsRepo,
		Contacts: app.ContactsService,
		Cashflow: app.CashflowService,
		Usage:    app.UsageService,
		Queue:    app.Queue,
		Ingestor: app.Pipeline,
	}

	var provider peppol.Provider
	if strings.TrimSpace(app.Config.PeppolProviderBaseURL) != "" {
		provider = peppol.NewClient(app.Config.PeppolProviderBaseURL, app.Config.PeppolProviderAPIKey)
	}
	app.PeppolService = peppol.NewService(app.PeppolRepo, provider, app.WorkspacesService)

	app.HealthService = health.NewService(app.DB)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)

	app.UsersHandler = users.NewHandler(app.UsersService)
	app.WorkspacesHandler = workspaces.NewHandler(app.WorkspacesService)
	app.ContactsHandler = contacts.NewHandler(app.ContactsService)
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.CashflowHandler = cashflow.NewHandler(app.CashflowService)
	app.UsageHandler = usage.NewHandler(app.UsageService)
	app.PeppolHandler = peppol.NewHandler(app.PeppolService, app.DocumentsService, app.ContactsService, app.WorkspacesService)
	app.UploadsHandler = uploads.NewHandler(app.Store, app.DocumentsService, app.Config.S3PresignTTL)

	return nil
}
