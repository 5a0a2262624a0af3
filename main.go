package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/config"
	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/handlers"
	"github.com/neetimanthan/comment-engine/pkg/logging"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
	"github.com/neetimanthan/comment-engine/pkg/services"
	"github.com/neetimanthan/comment-engine/pkg/services/workqueue"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Float64("confidence_threshold", cfg.Pipeline.ConfidenceThreshold))

	ctx := context.Background()

	// Database
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	sqlDB.Close()

	// Redis is optional; a nil client disables the clause-set cache.
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Analysis tool clients
	ingester := tools.NewIngestClient(cfg.Tools.IngestURL, cfg.Tools.IngestTimeout, logger)
	classifier := tools.NewClassifyClient(cfg.Tools.ClassifyURL, cfg.Tools.ClassifyTimeout, logger)
	summarizer := tools.NewSummarizeClient(cfg.Tools.SummarizeURL, cfg.Tools.SummarizeTimeout, logger)

	// Clause linking runs in-process unless an external linker is configured.
	var linker tools.ClauseLinker
	if cfg.Tools.ClauseLinkURL == "" {
		linker = services.NewLinkerService(
			cfg.Pipeline.SemanticThreshold,
			cfg.Pipeline.FuzzyThreshold,
			cfg.Pipeline.MaxClauseCandidates,
			logger)
	} else {
		linker = tools.NewClauseLinkClient(cfg.Tools.ClauseLinkURL, cfg.Tools.LinkTimeout, logger)
	}

	// Repositories
	store := services.NewStore(db)
	drafts := repositories.NewDraftRepository()
	clauses := repositories.NewClauseRepository()
	comments := repositories.NewCommentRepository()
	processed := repositories.NewProcessedRepository()
	predictions := repositories.NewPredictionRepository()
	summaries := repositories.NewSummaryRepository()
	audits := repositories.NewAuditRepository()
	keywords := repositories.NewKeywordRepository()
	clusters := repositories.NewClusterRepository()

	// Work queue shared by pipeline runs and post-processing jobs
	queue := workqueue.New(logger,
		workqueue.WithStrategy(workqueue.NewThrottledModelStrategy(cfg.Pipeline.QueueConcurrency)),
		workqueue.WithRetryConfig(workqueue.RetryConfig{
			MaxRetries:     cfg.Pipeline.QueueMaxRetries,
			InitialBackoff: workqueue.DefaultRetryConfig().InitialBackoff,
			MaxBackoff:     workqueue.DefaultRetryConfig().MaxBackoff,
			BackoffFactor:  workqueue.DefaultRetryConfig().BackoffFactor,
		}))
	defer queue.Cancel()

	// Services
	clauseService := services.NewClauseService(clauses, store, redisClient, logger)
	auditService := services.NewAuditService(store, audits, logger)
	postProcessor := services.NewPostProcessor(queue, store, processed, clusters, keywords,
		cfg.Pipeline.DedupeSimilarity, logger)

	pipeline := services.NewPipeline(services.PipelineDeps{
		Store:               store,
		Comments:            comments,
		Processed:           processed,
		Predictions:         predictions,
		Summaries:           summaries,
		Audits:              audits,
		Clauses:             clauseService,
		Ingester:            ingester,
		Linker:              linker,
		Classifier:          classifier,
		Summarizer:          summarizer,
		Scheduler:           postProcessor,
		ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		Logger:              logger,
	})
	dispatcher := services.NewDispatcher(queue, pipeline, auditService, logger)

	draftService := services.NewDraftService(store, drafts, clauses, clauseService, ingester, logger)
	commentService := services.NewCommentService(store, comments, processed, predictions, summaries,
		drafts, dispatcher, logger)
	analyticsService := services.NewAnalyticsService(store, drafts, comments, processed, predictions,
		keywords, clusters, logger)

	// HTTP surface
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDraftsHandler(draftService, logger).RegisterRoutes(mux)
	handlers.NewCommentsHandler(commentService, auditService, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting comment-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
