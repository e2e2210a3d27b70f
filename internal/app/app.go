package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"antiplagiarism/internal/config"
	"antiplagiarism/internal/database"
	"antiplagiarism/internal/delivery/httpd"
	"antiplagiarism/internal/repository"
	"antiplagiarism/internal/service"
	"antiplagiarism/internal/service/analyzer"
	"antiplagiarism/internal/worker"
	"antiplagiarism/internal/worker/queue"
)

type App struct {
	server   *http.Server
	logger   zerolog.Logger
	config   *config.Config
	db       *sql.DB
	pipeline worker.Pipeline
	broker   *queue.RabbitMQBroker
	memQueue *queue.MemoryQueue
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		logger: log,
		config: cfg,
	}

	works, submissions, reports, contents, err := app.buildStores(cfg, log)
	if err != nil {
		return nil, err
	}

	publisher, consumer, err := app.buildQueue(cfg, log)
	if err != nil {
		return nil, err
	}

	engine := analyzer.NewEngine(analyzer.Config{
		ShingleSize:    cfg.Analysis.ShingleSize,
		MatchThreshold: cfg.Analysis.MatchThreshold,
	})

	workerPool := worker.NewWorkerPool(cfg.Analysis.MaxWorkers, log)
	app.pipeline = worker.NewPipeline(workerPool, consumer, submissions, reports, contents, engine, log)

	workService := service.NewWorkService(works, log)
	submissionService := service.NewSubmissionService(works, submissions, reports, contents, publisher, log)
	statsService := service.NewStatsService(works, submissions, reports, log)
	wordCloudService := service.NewWordCloudService(submissions, contents, cfg.WordCloud.Endpoint, log)

	handler := httpd.NewHandler(workService, submissionService, statsService, wordCloudService, app.pipeline, cfg.Server.MaxUploadBytes, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	app.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *App) buildStores(cfg *config.Config, log zerolog.Logger) (
	repository.WorkRepository,
	repository.SubmissionRepository,
	repository.ReportRepository,
	repository.ContentStore,
	error,
) {
	switch cfg.Storage.Driver {
	case "memory":
		store := repository.NewMemoryStore()
		return store, store, store, store, nil

	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		a.db = db
		log.Info().Msg("Database connection established")

		var contents repository.ContentStore
		switch cfg.Storage.Content {
		case "minio":
			store, err := repository.NewMinIOContentStore(cfg.Storage.MinIO, log)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			contents = store
		default:
			contents = repository.NewPostgresContentStore(db, log)
		}

		return repository.NewWorkRepository(db, log),
			repository.NewSubmissionRepository(db, log),
			repository.NewReportRepository(db, log),
			contents,
			nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) buildQueue(cfg *config.Config, log zerolog.Logger) (queue.Publisher, queue.Consumer, error) {
	switch cfg.Queue.Backend {
	case "rabbitmq":
		broker, err := queue.NewRabbitMQBroker(cfg.Queue.RabbitMQ.URL, log)
		if err != nil {
			return nil, nil, err
		}

		if err := broker.SetupQueue(
			cfg.Queue.RabbitMQ.Exchange,
			cfg.Queue.RabbitMQ.QueueName,
			cfg.Queue.RabbitMQ.RoutingKey,
		); err != nil {
			broker.Close()
			return nil, nil, err
		}
		a.broker = broker

		publisher := queue.NewRabbitMQPublisher(broker.Channel(), cfg.Queue.RabbitMQ.Exchange, cfg.Queue.RabbitMQ.RoutingKey, log)
		consumer := queue.NewRabbitMQConsumer(broker.Channel(), cfg.Queue.RabbitMQ.QueueName, cfg.Queue.RabbitMQ.ConsumerTag, log)
		return publisher, consumer, nil

	case "memory":
		q := queue.NewMemoryQueue(cfg.Queue.Capacity, cfg.Queue.PublishTimeout, log)
		a.memQueue = q
		return q, q, nil

	default:
		return nil, nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

func (a *App) Run() error {
	if err := a.pipeline.Start(context.Background()); err != nil {
		a.logger.Error().Err(err).Msg("Failed to start submission pipeline")
		return err
	}

	a.logger.Info().Msgf("Starting anti-plagiarism service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down anti-plagiarism service...")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
	}

	if err := a.pipeline.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop submission pipeline")
	}

	if a.memQueue != nil {
		if err := a.memQueue.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close submission queue")
		}
	}

	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	a.logger.Info().Msg("Anti-plagiarism service stopped")
	return nil
}
