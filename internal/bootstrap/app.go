package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"docflow-backend/internal/actions"
	"docflow-backend/internal/audit"
	"docflow-backend/internal/dashboard"
	"docflow-backend/internal/documents"
	"docflow-backend/internal/llm"
	openai "docflow-backend/internal/llm/openai"
	"docflow-backend/internal/queue"
	"docflow-backend/internal/ratelimit"
	"docflow-backend/internal/scope"
	"docflow-backend/internal/services/health"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/server"
	"docflow-backend/internal/shared/storage/db"
	"docflow-backend/internal/shared/storage/object"
	localstore "docflow-backend/internal/shared/storage/object/local"
	miniostore "docflow-backend/internal/shared/storage/object/minio"
	s3store "docflow-backend/internal/shared/storage/object/s3"
	"docflow-backend/internal/shared/telemetry"
	"docflow-backend/internal/tags"
	"docflow-backend/internal/tasks"
	"docflow-backend/internal/usage"
	"docflow-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Presigner object.Presigner
	// Queue is nil when REDIS_ADDR is unset. Uploads extract inline unless
	// both Queue and DB are set.
	Queue     *queue.Client
	Counter   ratelimit.Counter
	Signer    *auth.Signer

	DocumentsRepo documents.Repo
	TagsRepo      tags.Repo
	AuditRepo     audit.Repo
	TasksRepo     tasks.Repo
	UsersRepo     users.Repo

	DocumentsService *documents.Service
	TagsService      *tags.Service
	AuditService     *audit.Service
	UsageService     *usage.Service
	UsersService     *users.Service
	Executor         *actions.Executor
	Pipeline         *tasks.Pipeline
	Dashboard        *dashboard.Service
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	db db.Options
}

// WithDBOptions replaces the server pool defaults, e.g. for the worker.
func WithDBOptions(opts db.Options) Option {
	return func(b *buildOptions) { b.db = opts }
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	bo := buildOptions{db: db.DefaultServerOptions()}
	for _, o := range opts {
		o(&bo)
	}

	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg, bo.db)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  buildQueue(cfg),
		Signer: signer,
	}
	if p, ok := store.(object.Presigner); ok {
		app.Presigner = p
	}
	app.Counter = buildCounter(cfg, sqlDB)

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    app.Config,
		Verifier:  signer,
		Health:    buildHealth(sqlDB),
		Documents: documents.NewHandler(app.DocumentsService),
		Actions:   actions.NewHandler(app.Executor),
		Usage:     usage.NewHandler(app.UsageService),
		Tasks:     tasks.NewHandler(app.Pipeline),
		Dashboard: dashboard.NewHandler(app.Dashboard),
		Users:     users.NewHandler(app.UsersService),
	})

	return app, nil
}

// Close releases the queue client and database pool.
func (a *App) Close() {
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config, dbOpts db.Options) (*sql.DB, error) {
	if cfg.UsesMemory() {
		telemetry.Info("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(dbOpts))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		st, err := miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := st.EnsureBucket(ensureCtx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildHealth(sqlDB *sql.DB) *health.Service {
	if sqlDB == nil {
		return health.NewService(nil)
	}
	return health.NewService(sqlDB)
}

func buildQueue(cfg config.Config) *queue.Client {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	return queue.NewClient(cfg.RedisAddr)
}

func buildCounter(cfg config.Config, sqlDB *sql.DB) ratelimit.Counter {
	if cfg.RateLimitBackend == "redis" && strings.TrimSpace(cfg.RedisAddr) != "" {
		return ratelimit.NewRedisCounter(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	if sqlDB != nil {
		return &ratelimit.PGCounter{DB: sqlDB}
	}
	return ratelimit.NewMemoryCounter()
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	cfg := app.Config

	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.TagsRepo = &tags.PGRepo{DB: app.DB}
		app.AuditRepo = &audit.PGRepo{DB: app.DB}
		app.TasksRepo = &tasks.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.UsageService = usage.NewPostgresService(usage.NewPGStore(app.DB), cfg.CreditsPerAction, cfg.MonthlyCreditLimit)
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.TagsRepo = tags.NewMemoryRepo()
		app.AuditRepo = audit.NewMemoryRepo()
		app.TasksRepo = tasks.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
		app.UsageService = usage.NewService(cfg.CreditsPerAction, cfg.MonthlyCreditLimit)
	}

	app.AuditService = audit.NewService(app.AuditRepo, telemetry.L())
	app.TagsService = tags.NewService(app.TagsRepo)

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  app.DocumentsRepo,
		Tags:  app.TagsService,
		Audit: app.AuditService,
	}
	// A worker can only see documents stored in Postgres.
	if app.Queue != nil && app.DB != nil {
		docSvc.Queue = app.Queue
	}
	app.DocumentsService = docSvc

	app.Executor = &actions.Executor{
		Usage:        app.UsageService,
		Scopes:       scope.NewResolver(app.TagsService, docSvc),
		Docs:         docSvc,
		Tags:         app.TagsService,
		Audit:        app.AuditService,
		Generator:    buildGenerator(cfg),
		Presigner:    app.Presigner,
		SnippetChars: cfg.PromptSnippetChars,
		Timeout:      cfg.LLMTimeout,
	}

	app.Pipeline = &tasks.Pipeline{
		Repo:       app.TasksRepo,
		Counter:    app.Counter,
		Audit:      app.AuditService,
		DailyLimit: cfg.WebhookDailyLimit,
	}

	app.UsersService = users.NewService(app.UsersRepo, app.AuditService)
	app.UsersService.Tokens = app.Signer

	app.Dashboard = &dashboard.Service{
		Docs:    docSvc,
		Folders: app.TagsService,
		Audit:   app.AuditService,
		Tasks:   app.TasksRepo,
	}
}

func buildGenerator(cfg config.Config) llm.Generator {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		telemetry.Warn("bootstrap.llm_fallback", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
		return llm.PlaceholderClient{}
	}
	return client
}
