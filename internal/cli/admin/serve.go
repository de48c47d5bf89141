package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/igad-hub/hubwriter/internal/api/handlers"
	"github.com/igad-hub/hubwriter/internal/config"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/openai"
	"github.com/igad-hub/hubwriter/internal/repository"
	"github.com/igad-hub/hubwriter/internal/server"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/igad-hub/hubwriter/internal/storage"
	"github.com/igad-hub/hubwriter/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the hubwriter API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	promptRepo := repository.NewPromptRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	kbChunkRepo := repository.NewKBChunkRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var blobStore service.BlobStore
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		blobStore = s3Client
	}

	var modelClient *openai.Client
	if cfg.HasOpenAI() {
		modelClient = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			GenerationModel:     cfg.GenerationModel,
		})
	}

	promptSvc := service.NewPromptService(promptRepo, auditRepo, txRunner)
	promptHandler := handlers.NewPromptHandler(promptSvc)

	var vectorHandler *handlers.VectorHandler
	if blobStore != nil && modelClient != nil {
		vectorHandler = handlers.NewVectorHandler(service.NewVectorService(blobStore, modelClient))
	} else {
		vectorHandler = handlers.NewVectorHandler(&NoOpVectorService{})
	}

	var generateHandler *handlers.GenerateHandler
	if modelClient != nil {
		var contexts service.ContextBuilder
		if blobStore != nil {
			contexts = service.NewVectorService(blobStore, modelClient)
		}
		generateHandler = handlers.NewGenerateHandler(service.NewGenerationService(promptSvc, contexts, modelClient))
	} else {
		generateHandler = handlers.NewGenerateHandler(&NoOpGenerationService{})
	}

	var retrievalHandler *handlers.RetrievalHandler
	if modelClient != nil {
		retrievalHandler = handlers.NewRetrievalHandler(
			service.NewRetrievalService(modelClient, kbChunkRepo),
			service.NewIngestService(kbChunkRepo, modelClient),
		)
	} else {
		noop := &NoOpRetrievalService{}
		retrievalHandler = handlers.NewRetrievalHandler(noop, noop)
	}

	tokens := cfg.ParseAPITokens()
	if len(tokens) == 0 {
		log.Println("warning: no API tokens configured, all authenticated routes will reject requests")
	}

	routerCfg := server.RouterConfig{
		AuthValidator:    StaticTokenValidator(tokens),
		PromptHandler:    promptHandler,
		GenerateHandler:  generateHandler,
		VectorHandler:    vectorHandler,
		RetrievalHandler: retrievalHandler,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// StaticTokenValidator validates bearer tokens against a fixed token → actor
// map loaded from configuration.
type StaticTokenValidator map[string]string

func (v StaticTokenValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	actor, ok := v[token]
	if !ok {
		return "", domain.ErrInvalidAPIToken
	}
	return actor, nil
}

type NoOpVectorService struct{}

func (s *NoOpVectorService) Store(ctx context.Context, ownerID, documentType string, embeddings [][]float32, textChunks []string, metadata map[string]string) (string, error) {
	return "", errVectorNotConfigured()
}

func (s *NoOpVectorService) Query(ctx context.Context, queryText, ownerID string, topK int, similarityThreshold float64) ([]*domain.VectorMatch, error) {
	return nil, errVectorNotConfigured()
}

func (s *NoOpVectorService) BuildContext(ctx context.Context, queryText, ownerID string, maxContextLength int) (string, error) {
	return "", errVectorNotConfigured()
}

func (s *NoOpVectorService) DeleteAll(ctx context.Context, ownerID string) (bool, error) {
	return false, errVectorNotConfigured()
}

func (s *NoOpVectorService) Statistics(ctx context.Context, ownerID string) (*domain.VectorStats, error) {
	return nil, errVectorNotConfigured()
}

type NoOpGenerationService struct{}

func (s *NoOpGenerationService) Generate(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error) {
	return nil, errModelNotConfigured()
}

func (s *NoOpGenerationService) Preview(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error) {
	return nil, errModelNotConfigured()
}

type NoOpRetrievalService struct{}

func (s *NoOpRetrievalService) Retrieve(ctx context.Context, query string, maxResults int, scoreThreshold float64) ([]*domain.RetrievedChunk, error) {
	return nil, errModelNotConfigured()
}

func (s *NoOpRetrievalService) IngestTopic(ctx context.Context, input service.IngestInput) (int, error) {
	return 0, errModelNotConfigured()
}

func errVectorNotConfigured() error {
	return domain.NewDomainError(domain.ErrCodeDependency, "vector storage not configured: S3_ENDPOINT and OPENAI_API_KEY required")
}

func errModelNotConfigured() error {
	return domain.NewDomainError(domain.ErrCodeDependency, "model provider not configured: OPENAI_API_KEY required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
