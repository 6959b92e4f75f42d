package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcampaign "github.com/dpnk/backend/internal/application/campaign"
	appdelivery "github.com/dpnk/backend/internal/application/delivery"
	appidentity "github.com/dpnk/backend/internal/application/identity"
	appinvoice "github.com/dpnk/backend/internal/application/invoice"
	appmailing "github.com/dpnk/backend/internal/application/mailing"
	apporganization "github.com/dpnk/backend/internal/application/organization"
	apppayment "github.com/dpnk/backend/internal/application/payment"
	"github.com/dpnk/backend/internal/application/reporting"
	"github.com/dpnk/backend/internal/application/results"
	apptrip "github.com/dpnk/backend/internal/application/trip"
	"github.com/dpnk/backend/internal/infrastructure/auth"
	"github.com/dpnk/backend/internal/infrastructure/cache"
	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/dpnk/backend/internal/infrastructure/delivery"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/dpnk/backend/internal/infrastructure/event"
	"github.com/dpnk/backend/internal/infrastructure/logger"
	"github.com/dpnk/backend/internal/infrastructure/mailing"
	"github.com/dpnk/backend/internal/infrastructure/payment"
	"github.com/dpnk/backend/internal/infrastructure/persistence"
	"github.com/dpnk/backend/internal/infrastructure/printing"
	"github.com/dpnk/backend/internal/infrastructure/scheduler"
	"github.com/dpnk/backend/internal/infrastructure/storage"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/dpnk/backend/internal/interfaces/http/handler"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/dpnk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

//	@title			Do práce na kole API
//	@version		1.0
//	@description	Backend of the Do práce na kole cycling challenge: registration, teams, trips, competitions, payments and deliveries
//	@termsOfService	https://www.dopracenakole.cz/obchodni-podminky

//	@contact.name	Auto*Mat
//	@contact.url	https://www.dopracenakole.cz
//	@contact.email	kontakt@dopracenakole.cz

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	load := config.Load
	if path := os.Getenv("DPNK_CONFIG_FILE"); path != "" {
		load = func() (*config.Config, error) { return config.LoadFile(path) }
	}
	cfg, err := load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, closeLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Sample: cfg.App.Env == "production",
		Fields: map[string]string{"app": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer closeLog()

	ctx := context.Background()

	// OpenTelemetry providers, no-ops when disabled
	otel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = telemetry.BridgeLogger(log, otel.Logs, cfg.Telemetry.ServiceName)

	log.Info("Starting Do práce na kole backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewSQLLogger(log, logger.ParseSQLLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))

	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := telemetry.RegisterDBPoolMetrics(sqlDB, otel.Meter.Meter("dpnk/db")); err != nil {
			log.Warn("Database pool metrics disabled", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Redis backs the token blacklist, the results cache and notification
	// idempotency. Outside production an unreachable Redis degrades to
	// process memory.
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Warn("Error closing caches", zap.Error(err))
		}
	}()
	blacklist, err := cacheFactory.TokenBlacklist(ctx)
	if err != nil {
		log.Fatal("Failed to create token blacklist", zap.Error(err))
	}
	resultsCache, err := cacheFactory.ResultsCache(ctx)
	if err != nil {
		log.Fatal("Failed to create results cache", zap.Error(err))
	}
	idempotency, err := cacheFactory.IdempotencyStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	redisClient, _ := cacheFactory.Client(ctx)

	// Repositories
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	sizeRepo := persistence.NewGormTShirtSizeRepository(db.DB)
	cityRepo := persistence.NewGormCityRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	subsidiaryRepo := persistence.NewGormSubsidiaryRepository(db.DB)
	teamRepo := persistence.NewGormTeamRepository(db.DB)
	companyAdminRepo := persistence.NewGormCompanyAdminRepository(db.DB)
	attendanceRepo := persistence.NewGormUserAttendanceRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	tripRepo := persistence.NewGormTripRepository(db.DB)
	competitionRepo := persistence.NewGormCompetitionRepository(db.DB)
	questionRepo := persistence.NewGormQuestionRepository(db.DB)
	answerRepo := persistence.NewGormAnswerRepository(db.DB)
	resultRepo := persistence.NewGormResultRepository(db.DB)
	dirtyQueue := persistence.NewGormDirtyQueue(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	commonTxRepo := persistence.NewGormCommonTransactionRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	voucherRepo := persistence.NewGormVoucherRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	packageRepo := persistence.NewGormPackageRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)
	tx := persistence.NewTransactor(db.DB)

	// Domain events are written to the outbox inside the business transaction
	// and delivered to the in-process bus by the outbox processor
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(outboxRepo, eventSerializer)
	eventBus := event.NewInMemoryEventBus(log)

	// External adapters
	files, err := storage.New(ctx, &cfg.Storage, cfg.App.BaseURL, log)
	if err != nil {
		log.Fatal("Failed to initialize file storage", zap.Error(err))
	}
	sender := newMailSender(cfg, log)
	postman := email.NewPostman(sender, cfg.App.BaseURL, log)
	gateway, err := payment.NewPayUAdapter(&payment.PayUConfig{
		GatewayURL: cfg.PayU.GatewayURL,
		PosID:      cfg.PayU.PosID,
		PosAuthKey: cfg.PayU.PosAuthKey,
		Key1:       cfg.PayU.Key1,
		Key2:       cfg.PayU.Key2,
		Timeout:    cfg.PayU.Timeout,
		NodeID:     cfg.PayU.NodeID,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize PayU gateway", zap.Error(err))
	}
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		ExecPath:       cfg.Printing.ChromePath,
		NoSandbox:      true,
		MaxConcurrent:  cfg.Printing.MaxWorkers,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		_ = renderer.Close()
	}()
	printer := printing.NewDocumentPrinter(printing.NewTemplateEngine(), renderer, log)
	avfull := delivery.NewAVFullWriter(delivery.Sender{
		Code:          cfg.Delivery.SenderCode,
		ServiceCode:   cfg.Delivery.ServiceCode,
		DefaultWeight: cfg.Delivery.DefaultWeight,
	})

	businessMetrics, err := telemetry.NewBusinessMetrics(otel.Meter.Meter("dpnk/business"), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authConfig := appidentity.DefaultAuthServiceConfig()
	authConfig.RevocationTTL = cfg.JWT.RefreshTokenExpiration
	authService := appidentity.NewAuthService(userRepo, jwtService, blacklist, authConfig, log)
	accountService := appidentity.NewAccountService(appidentity.AccountRepositories{
		Users:       userRepo,
		Attendances: attendanceRepo,
		Campaigns:   campaignRepo,
		TShirtSizes: sizeRepo,
		Coupons:     couponRepo,
	}, tx, outboxPublisher, jwtService, postman, log)
	campaignService := appcampaign.NewCampaignService(campaignRepo, sizeRepo, cityRepo, log)
	companyService := apporganization.NewCompanyService(companyRepo, subsidiaryRepo, companyAdminRepo, cityRepo, log)
	teamService := apporganization.NewTeamService(apporganization.TeamRepositories{
		Campaigns:    campaignRepo,
		Cities:       cityRepo,
		Subsidiaries: subsidiaryRepo,
		Teams:        teamRepo,
		Attendances:  attendanceRepo,
		Users:        userRepo,
	}, tx, outboxPublisher, postman, log)
	tripService := apptrip.NewTripService(campaignRepo, attendanceRepo, tripRepo, tx, outboxPublisher, files, log)
	paymentService := apppayment.NewPaymentService(apppayment.Repositories{
		Campaigns:     campaignRepo,
		Attendances:   attendanceRepo,
		Users:         userRepo,
		Teams:         teamRepo,
		Subsidiaries:  subsidiaryRepo,
		CompanyAdmins: companyAdminRepo,
		Payments:      paymentRepo,
		Common:        commonTxRepo,
		Coupons:       couponRepo,
		Vouchers:      voucherRepo,
	}, gateway, idempotency, tx, outboxPublisher, postman, log)

	resultsRepos := results.Repositories{
		Campaigns:    campaignRepo,
		Competitions: competitionRepo,
		Results:      resultRepo,
		Questions:    questionRepo,
		Answers:      answerRepo,
		Attendances:  attendanceRepo,
		Teams:        teamRepo,
		Companies:    companyRepo,
		Subsidiaries: subsidiaryRepo,
		Users:        userRepo,
		Trips:        tripRepo,
	}
	recalculator := results.NewRecalculator(resultsRepos, resultsCache, log)
	resultsService := results.NewResultsService(resultsRepos, resultsCache, recalculator, tx, outboxPublisher, log)
	flushConfig := results.DefaultFlushConfig()
	flushConfig.BatchSize = cfg.Scheduler.ResultsFlushBatch
	flusher := results.NewFlusher(dirtyQueue, recalculator, businessMetrics, flushConfig, log)

	invoiceService := appinvoice.NewInvoiceService(appinvoice.Repositories{
		Campaigns:     campaignRepo,
		Companies:     companyRepo,
		CompanyAdmins: companyAdminRepo,
		Users:         userRepo,
		Invoices:      invoiceRepo,
		Payments:      paymentRepo,
	}, printer, files, printing.Party{
		Name:        cfg.Invoicing.SupplierName,
		Street:      cfg.Invoicing.Street,
		City:        cfg.Invoicing.City,
		Zip:         cfg.Invoicing.Zip,
		ICO:         cfg.Invoicing.ICO,
		DIC:         cfg.Invoicing.DIC,
		BankAccount: cfg.Invoicing.BankAccount,
	}, cfg.Invoicing.DueDays, tx, outboxPublisher, postman, log)
	deliveryService := appdelivery.NewDeliveryService(appdelivery.Repositories{
		Campaigns:    campaignRepo,
		TShirtSizes:  sizeRepo,
		Attendances:  attendanceRepo,
		Users:        userRepo,
		Teams:        teamRepo,
		Companies:    companyRepo,
		Subsidiaries: subsidiaryRepo,
		Packages:     packageRepo,
		Batches:      batchRepo,
	}, printer, avfull, files, tx, log)
	reportService := reporting.NewReportService(reporting.Repositories{
		Campaigns:    campaignRepo,
		Cities:       cityRepo,
		TShirtSizes:  sizeRepo,
		Attendances:  attendanceRepo,
		Users:        userRepo,
		Teams:        teamRepo,
		Companies:    companyRepo,
		Subsidiaries: subsidiaryRepo,
		Trips:        tripRepo,
	}, resultsService, tx, log)

	var syncService *appmailing.SyncService
	if cfg.Mailing.Enabled {
		client, err := mailing.NewEcomailClient(&mailing.Config{
			APIURL:  cfg.Mailing.APIURL,
			APIKey:  cfg.Mailing.APIKey,
			Timeout: cfg.Mailing.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize Ecomail client", zap.Error(err))
		}
		syncService = appmailing.NewSyncService(appmailing.Repositories{
			Campaigns:    campaignRepo,
			Cities:       cityRepo,
			Attendances:  attendanceRepo,
			Users:        userRepo,
			Teams:        teamRepo,
			Subsidiaries: subsidiaryRepo,
		}, client, cfg.Scheduler.MailingSyncBatch, log)
	}

	// Event handlers. Every handler is wrapped so that a redelivered outbox
	// entry is processed once.
	eventMeter := event.WithDeliveryMeter(otel.Meter.Meter("dpnk/events"))
	eventBus.Subscribe(event.NewIdempotentHandler(results.NewDirtyMarker(dirtyQueue, log), idempotency, log,
		event.WithHandlerName("results.dirty_marker"), eventMeter))
	eventBus.Subscribe(businessMetrics)
	if syncService != nil {
		eventBus.Subscribe(event.NewIdempotentHandler(appmailing.NewSyncHandler(syncService, log), idempotency, log,
			event.WithHandlerName("mailing.sync"), eventMeter))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	outboxConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxConfig, log)
	if err := outboxProcessor.Start(ctx); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	if err := outboxProcessor.RegisterBacklogMetrics(otel.Meter.Meter("dpnk/outbox")); err != nil {
		log.Warn("Outbox backlog metrics disabled", zap.Error(err))
	}
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxConfig.BatchSize),
		zap.Duration("poll_interval", outboxConfig.PollInterval),
	)

	// Periodic jobs run on the cron trigger
	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(scheduler.Config{
			Workers:       cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, log, scheduler.WithRecorder(businessMetrics))
		entries := []scheduler.Entry{
			{Job: scheduler.JobResultsFlush, Spec: cfg.Scheduler.ResultsFlushCron},
			{Job: scheduler.JobOutboxCleanup, Spec: cfg.Scheduler.OutboxCleanupCron},
		}
		jobs.Register(scheduler.JobResultsFlush, flusher.Flush)
		jobs.Register(scheduler.JobOutboxCleanup, outboxProcessor.Cleanup)
		if syncService != nil {
			jobs.Register(scheduler.JobMailingSync, syncService.Sync)
			entries = append(entries, scheduler.Entry{
				Job:         scheduler.JobMailingSync,
				Spec:        cfg.Scheduler.MailingSyncCron,
				PerCampaign: true,
			})
		}
		trigger, err := scheduler.NewCronTrigger(scheduler.DefaultCronTriggerConfig(), jobs, campaignService, log, entries...)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		defer func() {
			_ = trigger.Stop(context.Background())
		}()
		log.Info("Scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// HTTP handlers
	var mailingSyncer handler.MailingSyncer
	if syncService != nil {
		mailingSyncer = syncService
	}
	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService, accountService),
		Account:      handler.NewAccountHandler(accountService, paymentService),
		Campaign:     handler.NewCampaignHandler(campaignService),
		Organization: handler.NewOrganizationHandler(companyService),
		Team:         handler.NewTeamHandler(teamService),
		Trip:         handler.NewTripHandler(tripService),
		Competition:  handler.NewCompetitionHandler(resultsService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Invoice:      handler.NewInvoiceHandler(invoiceService),
		Delivery:     handler.NewDeliveryHandler(deliveryService),
		Admin:        handler.NewAdminHandler(reportService, flusher, mailingSyncer),
		System:       handler.NewSystemHandler(version, healthChecks(db, redisClient)),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing and metrics
	// 4. Logger - Log requests
	// 5. Security headers, CORS and body limits
	// 6. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   middleware.DefaultTracingConfig().SkipPaths,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: otel.Meter,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))
	engine.Use(logger.GinMiddleware(log, logger.SkipPaths("/health"), logger.SlowRequests(cfg.HTTP.SlowRequestThreshold)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		MaxBytes: cfg.HTTP.MaxBodySize,
		Uploads: map[string]int64{
			"/trips/gpx":              cfg.HTTP.MaxUploadSize,
			"/admin/import/companies": cfg.HTTP.MaxUploadSize,
		},
	}))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Probe endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	authenticator := middleware.NewAuthenticator(jwtService, blacklist, log)
	jwtAuth := authenticator.Required()

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.HTTP.SwaggerEnabled,
			RequireAuth: cfg.HTTP.SwaggerRequireAuth,
			AllowedIPs:  cfg.HTTP.SwaggerAllowedIPs,
		}, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Files of the local storage backend are served by the API itself
	if cfg.Storage.Type == "local" {
		engine.Static("/files", cfg.Storage.LocalPath)
	}

	campaignConfig := middleware.DefaultCampaignConfig(campaignService)
	campaignConfig.BaseDomain = cfg.Campaign.BaseDomain
	campaignConfig.DefaultSlug = cfg.Campaign.DefaultSlug
	campaignConfig.Logger = log

	guards := router.Guards{
		Auth:         jwtAuth,
		OptionalAuth: authenticator.Optional(),
		Staff:        middleware.RequireStaff(),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		guards.AuthRateLimit = middleware.AuthRateLimit(
			middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.CampaignMiddleware(campaignConfig))
	if cfg.Telemetry.ProfilingEnabled {
		r.Use(middleware.Profiling())
	}
	router.Mount(r, handlers, guards)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newMailSender returns the SendGrid sender, or a sender that only logs
// messages when SendGrid is not configured
func newMailSender(cfg *config.Config, log *zap.Logger) email.Sender {
	if !cfg.SendGrid.Enabled {
		log.Info("SendGrid disabled, e-mails are only logged")
		return email.NewLogSender(log)
	}
	sender, err := email.NewSendGridSender(email.SendGridConfig{
		APIKey:    cfg.SendGrid.APIKey,
		FromEmail: cfg.SendGrid.FromEmail,
		FromName:  cfg.SendGrid.FromName,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize SendGrid", zap.Error(err))
	}
	return sender
}

// healthChecks probes the database and, when configured, Redis
func healthChecks(db *persistence.Database, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
