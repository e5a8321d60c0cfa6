package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookme/config"
	"bookme/cron"
	"bookme/database"
	bookingRepo "bookme/database/repository/booking"
	directoryRepo "bookme/database/repository/directory"
	"bookme/handlers"
	"bookme/middleware"
	"bookme/routes"
	"bookme/services/catalog"
	"bookme/services/directions"
	"bookme/services/ledger"
	"bookme/services/notification"
	"bookme/services/reminder"
	"bookme/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	cfg := config.AppConfig
	loc := config.Location()

	database.InitDB()
	utils.InitCache()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories.
	db := database.Database()
	bookings := bookingRepo.NewMongoBookingRepo(db)
	directory := directoryRepo.NewMongoDirectoryRepo(db)
	if err := bookings.EnsureIndexes(ctx); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := directory.EnsureIndexes(ctx); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure directory indexes: %v", err)
	}

	// metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// services.
	bookingLedger := ledger.New(bookings, directory, loc, logger.Named("ledger"),
		ledger.WithMetrics(ledger.NewMetrics(registry)))
	catalogService := catalog.NewService(directory, bookings, loc, logger.Named("catalog"))
	directionsClient := directions.NewClient(cfg.GoogleAPIKey, logger.Named("directions"))

	deliver := buildNotifier(ctx, cfg, logger)
	queueOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisReminderQueueDB,
	}

	// Reminders handed to a dropping transport would still be marked sent, so
	// local delivery stays off until SMTP or push is configured.
	canDeliver := deliver.Delivers()
	if !canDeliver {
		logger.Warn("no reminder transport configured (SMTP disabled, no Firebase credentials); " +
			"local reminder delivery disabled so bookings are not marked reminded without delivery")
	}
	remindersEnabled := cfg.ReminderEnabled && (canDeliver || cfg.ReminderDelivery == "queue")

	var worker *cron.ReminderWorker
	if cfg.ReminderWorkerEnabled && canDeliver {
		worker = cron.NewReminderWorker(queueOpt, deliver, logger.Named("reminder-worker"))
		if err := worker.Start(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
	}

	var (
		scheduler *reminder.Scheduler
		runner    handlers.ReminderRunner
	)
	if remindersEnabled {
		var sweepNotifier notification.Notifier = deliver
		if cfg.ReminderDelivery == "queue" {
			queueClient := asynq.NewClient(queueOpt)
			defer func() { _ = queueClient.Close() }()
			sweepNotifier = notification.NewQueueNotifier(queueClient, logger.Named("reminder-queue"))
		}

		opts := []reminder.SweeperOption{
			reminder.WithClaimer(reminder.NewRedisClaimer(utils.GetCacheClient(), cfg.ReminderClaimTTL)),
			reminder.WithMetrics(reminder.NewMetrics(registry)),
		}
		if directionsClient.Enabled() {
			opts = append(opts, reminder.WithDirections(directionsClient))
		}
		sweeper := reminder.NewSweeper(bookings, sweepNotifier, reminder.SweeperConfig{
			Window:         reminder.Window{Min: cfg.ReminderWindowMin, Max: cfg.ReminderWindowMax},
			Location:       loc,
			SendsPerSecond: cfg.ReminderSendsPerSec,
		}, logger.Named("reminder"), opts...)

		scheduler = reminder.NewScheduler(sweeper, cfg.ReminderInterval, logger.Named("reminder"))
		scheduler.Start(ctx)
		runner = scheduler
	}

	health := utils.NewHealthMonitor(utils.GetCacheClient(), database.MongoClient, 30*time.Second)
	health.Start(ctx)

	// handlers.
	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingLedger, loc),
		handlers.NewCatalogHandler(catalogService, loc),
		handlers.NewOpsHandler(directionsClient, runner),
		handlers.Health(health),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(middleware.NewRateLimiter(cfg.MaxRequestsPerMin).Middleware())

	routes.RegisterRoutes(router, handlerBundle, registry)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// buildNotifier assembles the transports reminders are delivered over.
func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) *notification.Fanout {
	transports := []notification.Notifier{
		notification.NewMailNotifier(notification.MailConfig{
			Enabled:     cfg.SMTPEnabled,
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			UseTLS:      cfg.SMTPUseTLS,
			From:        cfg.MailFrom,
			BookingsURL: cfg.BookingsURL,
		}, logger.Named("mail")),
	}

	if cfg.FirebaseCredentialsPath != "" {
		sender, err := notification.NewFirebaseSender(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Warn("push reminders disabled", zap.Error(err))
		} else {
			transports = append(transports, notification.NewPushNotifier(sender, logger.Named("push")))
		}
	}
	return notification.NewFanout(transports...)
}
