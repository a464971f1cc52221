package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	abandonSessionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/abandon_session"
	advanceSessionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/advance_session"
	cancelBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_booking"
	commitSessionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/commit_session"
	getAvailabilityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_resource_bookings"
	getScheduleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_schedule"
	getSessionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_session"
	paymentWebhookHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/payment_webhook"
	startSessionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/start_session"
	updateBookingStatusHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_booking_status"
	updateScheduleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/sessionstore"
	bookingRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	eligibilityRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/eligibility"
	entitlementRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/entitlement"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	customerServiceClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/customerservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/payment"
	bookingsService "github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
	entitlementsService "github.com/m04kA/SMC-AppointmentService/internal/service/entitlements"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	bookingSessionUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/booking_session"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

const sweepTimeout = 20 * time.Second

// storage всё, что отличается между драйверами хранения
type storage struct {
	bookings     *bookingsStorage
	schedule     scheduleService.SettingsRepository
	catalog      bookingSessionUC.Catalog
	entitlements entitlementsService.EntitlementRepository
	entRepo      bookingSessionUC.EntitlementRepository
	blockList    entitlementsService.BlockListRepository
	txManager    bookingSessionUC.TransactionManager
	close        func()
}

// bookingsStorage один репозиторий бронирований под все потребители
type bookingsStorage struct {
	slots   getAvailableSlotsUC.BookingRepository
	writer  bookingSessionUC.BookingRepository
	service bookingsService.BookingRepository
	noShows entitlementsService.NoShowCounter
}

func main() {
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from %s (storage=%s, gateway=%s)", configPath, cfg.Storage.Driver, cfg.Payments.Gateway)

	// Коллектор нужен use case'ам всегда, наружу отдаётся только при metrics.enabled
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

	// Хранилище: Postgres или память процесса
	var store *storage
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = newMemoryStorage(cfg, log)
	default:
		store = newPostgresStorage(cfg, metricsCollector, stopMetricsCh, log)
	}
	defer store.close()

	// Хранилище сессий
	var sessions bookingSessionUC.SessionStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		sessions = sessionstore.NewRedisStore(rdb)
		log.Info("Session store: redis at %s", cfg.Redis.Addr)
	} else {
		sessions = sessionstore.NewMemoryStore()
		log.Warn("Session store: in-process memory, sessions are lost on restart")
	}

	// Платёжный шлюз; nil отключает предоплату
	var gateway bookingSessionUC.PaymentGateway
	var refunder bookingsService.Refunder
	switch cfg.Payments.Gateway {
	case config.GatewayStripe:
		stripeGateway := payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.Payments.Stripe.SecretKey,
			WebhookSecret: cfg.Payments.Stripe.WebhookSecret,
			SuccessURL:    cfg.Payments.Stripe.SuccessURL,
			CancelURL:     cfg.Payments.Stripe.CancelURL,
		}, log)
		gateway, refunder = stripeGateway, stripeGateway
	case config.GatewayFake:
		fakeGateway := payment.NewFakeGateway(cfg.Payments.PublicBaseURL, cfg.Payments.FakeSecret, log)
		gateway, refunder = fakeGateway, fakeGateway
		log.Warn("Payment gateway: fake, charges are never captured")
	default:
		log.Info("Payment gateway disabled, charge settlement is not offered")
	}

	// Интеграции
	customerClient := customerServiceClient.NewClient(
		cfg.CustomerService.URL,
		time.Duration(cfg.CustomerService.Timeout)*time.Second,
		log,
	)

	var emailSender notification.EmailSender = notification.NewStubEmailSender(log)
	if sg := notification.NewSendGridSender(notification.SendGridConfig{
		APIKey:    cfg.Notifications.SendGrid.APIKey,
		FromEmail: cfg.Notifications.SendGrid.FromEmail,
		FromName:  cfg.Notifications.SendGrid.FromName,
	}, log); sg != nil {
		emailSender = sg
	}
	smsSender := notification.NewSMSClient(
		cfg.Notifications.SMS.URL,
		cfg.Notifications.SMS.APIKey,
		cfg.Notifications.SMS.Sender,
		time.Duration(cfg.Notifications.SMS.Timeout)*time.Second,
	)
	notifier := notification.NewNotifier(emailSender, smsSender, log)
	log.Info("Integration clients initialized (CustomerService=%s, SMS=%s)",
		cfg.CustomerService.URL, cfg.Notifications.SMS.URL)

	// Сервисы
	entitlementSvc := entitlementsService.NewService(
		store.entitlements,
		store.blockList,
		store.bookings.noShows,
		cfg.Booking.NoShowThreshold,
		log,
	)
	bookingSvc := bookingsService.NewService(store.bookings.service, refunder, log)
	scheduleSvc := scheduleService.NewService(store.schedule, store.catalog, log)

	// Use cases
	availabilityUseCase := getAvailableSlotsUC.NewUseCase(
		store.bookings.slots,
		store.schedule,
		metricsCollector,
		log,
	)

	sessionCfg := bookingSessionUC.DefaultConfig()
	sessionCfg.IdleTimeout = cfg.Session.IdleTimeoutDuration()
	sessionCfg.TerminalRetention = cfg.Session.TerminalRetentionDuration()
	sessionCfg.CommitLockTTL = cfg.Session.CommitLockTTLDuration()
	sessionCfg.ChargeDeadline = cfg.Session.ChargeDeadlineDuration()
	sessionCfg.EventRetention = cfg.Session.EventRetentionDuration()
	if cfg.Session.PhonePrefix != "" {
		sessionCfg.PhonePrefix = cfg.Session.PhonePrefix
	}

	sessionUseCase := bookingSessionUC.NewUseCase(sessionCfg, bookingSessionUC.Deps{
		Sessions:     sessions,
		Identity:     customerClient,
		Entitlements: entitlementSvc,
		Catalog:      store.catalog,
		Availability: availabilityUseCase,
		BookingRepo:  store.bookings.writer,
		EntRepo:      store.entRepo,
		TxManager:    store.txManager,
		Gateway:      gateway,
		Notifier:     notifier,
		Metrics:      metricsCollector,
		Logger:       log,
	})

	// Просроченные оплаты
	sweeper := cron.New(cron.WithSeconds())
	if _, err := sweeper.AddFunc(cfg.Session.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := sessionUseCase.ExpireCharges(ctx); err != nil {
			log.Error("Charge sweeper failed: %v", err)
		}
	}); err != nil {
		log.Fatal("Invalid session.sweep_schedule %q: %v", cfg.Session.SweepSchedule, err)
	}
	sweeper.Start()
	log.Info("Charge deadline sweeper scheduled (%s)", cfg.Session.SweepSchedule)

	// Handlers
	getAvailability := getAvailabilityHandler.NewHandler(availabilityUseCase, log)
	startSession := startSessionHandler.NewHandler(sessionUseCase, log)
	getSession := getSessionHandler.NewHandler(sessionUseCase, log)
	advanceSession := advanceSessionHandler.NewHandler(sessionUseCase, log)
	commitSession := commitSessionHandler.NewHandler(sessionUseCase, log)
	abandonSession := abandonSessionHandler.NewHandler(sessionUseCase, log)
	paymentWebhook := paymentWebhookHandler.NewHandler(sessionUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getResourceBookings := getResourceBookingsHandler.NewHandler(bookingSvc, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// GATEWAY ROUTES (подпись проверяется в use case)
	// ============================================================

	api.HandleFunc("/payments/webhook", paymentWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// TENANT ROUTES (требуют X-Tenant-ID header)
	// ============================================================

	tenant := api.PathPrefix("").Subrouter()
	tenant.Use(middleware.Tenant)

	// --- Доступность ---
	tenant.HandleFunc("/resources/{resourceId}/availability", getAvailability.Handle).Methods(http.MethodGet)

	// --- Сессия записи ---
	tenant.HandleFunc("/sessions", startSession.Handle).Methods(http.MethodPost)
	tenant.HandleFunc("/sessions/{sessionId}", getSession.Handle).Methods(http.MethodGet)
	tenant.HandleFunc("/sessions/{sessionId}", abandonSession.Handle).Methods(http.MethodDelete)
	tenant.HandleFunc("/sessions/{sessionId}/advance", advanceSession.Handle).Methods(http.MethodPost)
	tenant.HandleFunc("/sessions/{sessionId}/commit", commitSession.Handle).Methods(http.MethodPost)

	// --- Бронирования ---
	tenant.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	tenant.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	tenant.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	tenant.HandleFunc("/resources/{resourceId}/bookings", getResourceBookings.Handle).Methods(http.MethodGet)

	// --- Расписание ---
	tenant.HandleFunc("/schedule", getSchedule.Handle).Methods(http.MethodGet)
	tenant.HandleFunc("/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	tenant.HandleFunc("/resources/{resourceId}/schedule", getSchedule.Handle).Methods(http.MethodGet)
	tenant.HandleFunc("/resources/{resourceId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	<-sweeper.Stop().Done()
	notifier.Wait()
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

func newPostgresStorage(cfg *config.Config, collector *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) *storage {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, collector, cfg.Metrics.ServiceName, stopCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	bookings := bookingRepo.NewRepository(wrappedDB)
	entitlements := entitlementRepo.NewRepository(wrappedDB)

	return &storage{
		bookings: &bookingsStorage{
			slots:   bookings,
			writer:  bookings,
			service: bookings,
			noShows: bookings,
		},
		schedule:     scheduleRepo.NewRepository(wrappedDB),
		catalog:      catalogRepo.NewRepository(wrappedDB),
		entitlements: entitlements,
		entRepo:      entitlements,
		blockList:    eligibilityRepo.NewRepository(wrappedDB),
		txManager:    txmanager.NewTransactionManager(wrappedDB),
		close: func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close database: %v", err)
			}
		},
	}
}

func newMemoryStorage(cfg *config.Config, log *logger.Logger) *storage {
	store := memory.NewStore()
	if cfg.Storage.SeedDemo {
		seedDemo(store)
		log.Info("Memory storage seeded with demo tenant %d", demoTenantID)
	}
	log.Warn("Storage: in-process memory, data is lost on restart")

	return &storage{
		bookings: &bookingsStorage{
			slots:   store,
			writer:  store,
			service: store,
			noShows: store,
		},
		schedule:     store,
		catalog:      store,
		entitlements: store,
		entRepo:      store,
		blockList:    store,
		txManager:    memory.NewTxManager(store),
		close:        func() {},
	}
}
