package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"task-manager/internal/cache"
	"task-manager/internal/config"
	"task-manager/internal/controller"
	"task-manager/internal/database"
	"task-manager/internal/notify"
	"task-manager/internal/queue"
	"task-manager/internal/repository/postgres"
	"task-manager/internal/routes"
	"task-manager/internal/service"
	"task-manager/internal/sweep"
	"task-manager/internal/worker"
	"task-manager/pkg/logger"
)

func main() {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	cfg := config.Get()
	logger.Setup(cfg.LogLevel)
	ctx := context.Background()

	if cfg.JWTSecret == "" {
		logger.Error(ctx, "JWT_SECRET is not set; exiting")
		os.Exit(1)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it every list read goes to the database.
	rdb, err := cache.NewClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Warn(ctx, "Redis unavailable; task cache disabled", "error", err)
	}
	taskCache := cache.NewTaskCache(rdb, time.Duration(cfg.CacheTTL)*time.Second)

	accounts := postgres.NewAccountRepo(db)
	tasks := postgres.NewTaskRepo(db)
	authSvc := service.NewAuthService(accounts, []byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	taskSvc := service.NewTaskService(tasks, taskCache)

	mailer, err := newMailer(cfg)
	if err != nil {
		logger.Error(ctx, "SMTP mailer setup failed", "error", err)
		os.Exit(1)
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	var (
		notifier  notify.Notifier
		publisher *queue.Publisher
	)
	switch cfg.NotifyTransport {
	case config.TransportKafka:
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaNotifyTopic, cfg.KafkaPartitions)
		publisher = queue.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaNotifyTopic)
		notifier = publisher
		// Consumes due notices and delivers them by mail (or log when SMTP is not configured).
		w := worker.New(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, cfg.KafkaGroupID, mailerOr(mailer))
		go func() {
			defer close(workerDone)
			w.Run(workerCtx)
		}()
	case config.TransportSMTP:
		notifier = mailerOr(mailer)
		close(workerDone)
	default:
		notifier = notify.LogNotifier{}
		close(workerDone)
	}
	logger.Info(ctx, "Notifier selected", "transport", cfg.NotifyTransport)

	sweeper := sweep.New(tasks, notifier, sweep.WithWindow(cfg.SweepWindow), sweep.WithCache(taskSvc))
	scheduler, err := sweep.NewScheduler(sweeper, cfg.SweepSchedule)
	if err != nil {
		logger.Error(ctx, "Invalid sweep schedule", "error", err)
		os.Exit(1)
	}
	scheduler.Start(ctx)

	router := routes.Router(routes.Deps{
		Auth:     controller.NewAuthHandler(authSvc),
		Tasks:    controller.NewTaskHandler(taskSvc),
		Verifier: authSvc,
		Accounts: authSvc,
		Ready: map[string]controller.Pinger{
			"database": controller.PingFunc(db.PingContext),
			"redis":    redisPinger(rdb),
		},
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Sweep scheduler stop timed out", "error", err)
	}
	stopWorker()
	<-workerDone
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error(ctx, "Kafka producer close error", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
	logger.Info(ctx, "Server stopped")
}

// newMailer returns nil when no SMTP host is configured.
func newMailer(cfg *config.Config) (*notify.Mailer, error) {
	if cfg.EmailHost == "" {
		return nil, nil
	}
	return notify.NewMailer(notify.MailerConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		From:     cfg.EmailFrom,
		Location: cfg.Location(),
	})
}

func mailerOr(m *notify.Mailer) notify.Notifier {
	if m == nil {
		return notify.LogNotifier{}
	}
	return m
}

func redisPinger(rdb *redis.Client) controller.Pinger {
	return controller.PingFunc(func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	})
}
