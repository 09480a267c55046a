package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/cache"
	"github.com/RubachokBoss/classroom-service/internal/config"
	"github.com/RubachokBoss/classroom-service/internal/database"
	"github.com/RubachokBoss/classroom-service/internal/delivery/httpd"
	"github.com/RubachokBoss/classroom-service/internal/middleware"
	"github.com/RubachokBoss/classroom-service/internal/repository"
	"github.com/RubachokBoss/classroom-service/internal/repository/inmem"
	"github.com/RubachokBoss/classroom-service/internal/service"
	"github.com/RubachokBoss/classroom-service/internal/service/integration"
	"github.com/RubachokBoss/classroom-service/internal/worker"
	"github.com/RubachokBoss/classroom-service/internal/worker/queue"
	"github.com/RubachokBoss/classroom-service/pkg/rabbitmq"
)

type App struct {
	server        *http.Server
	logger        zerolog.Logger
	config        *config.Config
	db            *sql.DB
	redis         *redis.Client
	publisher     integration.EventPublisher
	gradingConn   *amqp.Connection
	gradingWorker worker.GradingWorker
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{logger: log, config: cfg}

	repos, err := a.setupRepositories(ctx)
	if err != nil {
		return nil, err
	}

	files, err := a.setupFileStorage()
	if err != nil {
		a.closeResources()
		return nil, err
	}

	statsCache := cache.NewRedisStatsCache(a.setupRedis(ctx), cfg.Redis.StatsTTL, log)
	a.publisher = a.setupPublisher()

	services := service.NewServices(repos, files, a.publisher, statsCache, log)

	if cfg.RabbitMQ.Enabled {
		if err := a.setupGradingWorker(services.Grading); err != nil {
			// HTTP grading still works without the queue.
			log.Error().Err(err).Msg("Failed to set up grading worker")
		}
	}

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.CookieName, cfg.Auth.TokenTTL, log)
	handler := httpd.NewHandler(services, auth, httpd.Options{
		SignInURL:     cfg.Auth.SignInURL,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Ping:          repos.Ping,
	}, log)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	router.Use(auth.Identify)
	router.Use(middleware.RequestLogger(log))
	router.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *App) setupRepositories(ctx context.Context) (*repository.Repositories, error) {
	if a.config.Database.Driver == config.DriverMemory {
		a.logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		return inmem.NewRepositories(), nil
	}

	db, err := database.NewPostgres(ctx, a.config.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.logger.Info().Msg("Database connection established")
	return repository.NewPostgresRepositories(db, a.logger), nil
}

func (a *App) setupFileStorage() (integration.FileStorage, error) {
	cfg := a.config.MinIO
	if !cfg.Enabled {
		return integration.NewMemoryFileStorage(cfg.PublicURL), nil
	}

	return integration.NewMinIOFileStorage(integration.MinIOConfig{
		Endpoint:       cfg.Endpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		UseSSL:         cfg.UseSSL,
		PublicURL:      cfg.PublicURL,
		ConnectTimeout: cfg.ConnectTimeout,
	}, a.logger)
}

// setupRedis returns nil when Redis is disabled or unreachable; statistics
// are then computed on every request.
func (a *App) setupRedis(ctx context.Context) *redis.Client {
	cfg := a.config.Redis
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		a.logger.Error().Err(err).Str("addr", cfg.Addr).Msg("Failed to connect to Redis, statistics cache disabled")
		client.Close()
		return nil
	}

	a.redis = client
	a.logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client
}

func (a *App) setupPublisher() integration.EventPublisher {
	cfg := a.config.RabbitMQ
	if !cfg.Enabled {
		return integration.NewNoopPublisher(a.logger)
	}

	publisher, err := integration.NewRabbitMQPublisher(cfg.URL, rabbitmq.Binding{
		Exchange:   cfg.Exchange,
		Queue:      cfg.Submissions.Queue,
		RoutingKey: cfg.Submissions.RoutingKey,
	}, a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to connect to RabbitMQ, submission events disabled")
		return integration.NewNoopPublisher(a.logger)
	}

	return publisher
}

func (a *App) setupGradingWorker(grading service.GradingService) error {
	cfg := a.config.RabbitMQ

	conn, err := rabbitmq.NewConnection(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := rabbitmq.Declare(channel, rabbitmq.Binding{
		Exchange:   cfg.Exchange,
		Queue:      cfg.Grades.Queue,
		RoutingKey: cfg.Grades.RoutingKey,
	}); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare grades queue: %w", err)
	}

	consumer := queue.NewRabbitMQConsumer(channel, cfg.Grades.Queue, cfg.ConsumerTag, cfg.Prefetch, a.logger)
	pool := worker.NewWorkerPool(a.config.Worker.MaxWorkers, a.logger)

	a.gradingConn = conn
	a.gradingWorker = worker.NewGradingWorker(pool, consumer, grading, a.logger)
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	workerStarted := false
	if a.gradingWorker != nil {
		if err := a.gradingWorker.Start(workerCtx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start grading worker")
		} else {
			workerStarted = true
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().Msgf("Starting classroom service on %s", a.config.Server.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	a.logger.Info().Msg("Shutting down classroom service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server gracefully")
	}

	stopWorker()
	if workerStarted {
		a.gradingWorker.Stop()
	}

	a.closeResources()

	a.logger.Info().Msg("Classroom service stopped")
	return runErr
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close event publisher")
		}
	}

	if a.gradingConn != nil {
		if err := a.gradingConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}
