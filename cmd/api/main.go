package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/university-api/config"
	"github.com/jwalitptl/university-api/internal/handler"
	courseHandler "github.com/jwalitptl/university-api/internal/handler/course"
	departmentHandler "github.com/jwalitptl/university-api/internal/handler/department"
	"github.com/jwalitptl/university-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/university-api/internal/handler/notification"
	studentHandler "github.com/jwalitptl/university-api/internal/handler/student"
	"github.com/jwalitptl/university-api/internal/middleware"
	"github.com/jwalitptl/university-api/internal/migration"
	"github.com/jwalitptl/university-api/internal/repository/postgres"
	"github.com/jwalitptl/university-api/internal/router"
	courseService "github.com/jwalitptl/university-api/internal/service/course"
	departmentService "github.com/jwalitptl/university-api/internal/service/department"
	"github.com/jwalitptl/university-api/internal/service/notification"
	studentService "github.com/jwalitptl/university-api/internal/service/student"
	"github.com/jwalitptl/university-api/internal/worker"
	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging"
	"github.com/jwalitptl/university-api/pkg/metrics"
	"github.com/jwalitptl/university-api/pkg/validator"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	factory := logger.NewFactory(&logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
	log := factory.MustLogger("api")

	if err := run(cfg, factory); err != nil {
		log.Error(err, "server stopped with error")
		_ = factory.Shutdown()
		os.Exit(1)
	}
	_ = factory.Shutdown()
}

func run(cfg *config.Config, factory *logger.Factory) error {
	log := factory.MustLogger("api")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Monitoring.Namespace, reg)

	// Initialize database
	db, err := postgres.NewDB(postgres.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.Up(db.DB, cfg.Database.Driver, factory.MustLogger("migrate")); err != nil {
			return err
		}
	}

	// Initialize repositories
	base := postgres.NewBaseRepository(db, m)
	courseRepo := postgres.NewCourseRepository(base)
	departmentRepo := postgres.NewDepartmentRepository(base)
	studentRepo := postgres.NewStudentRepository(base)

	// Notification pipeline. Open never fails; without a broker the
	// service logs notifications instead of queueing them.
	transport := messaging.Open(context.Background(), messaging.Config{
		Driver:          cfg.Notifications.Driver,
		URL:             cfg.Notifications.RedisURL,
		Queue:           cfg.Notifications.Queue,
		PoolSize:        cfg.Notifications.PoolSize,
		MinIdleConns:    cfg.Notifications.MinIdleConns,
		MaxRetries:      cfg.Notifications.MaxRetries,
		ConnectAttempts: cfg.Notifications.ConnectAttempts,
		MemoryCapacity:  cfg.Notifications.MemoryCapacity,
	}, factory.MustLogger("messaging"))
	defer transport.Close()

	notifications := notification.NewService(transport, factory.MustLogger("notifications"), m, notification.Options{
		ReceiveTimeout: cfg.Notifications.ReceiveTimeout,
		ReadMarkTTL:    cfg.Notifications.ReadMarkTTL,
	})
	emitter := notification.NewEmitter(notifications, factory.MustLogger("emitter"))
	poller := notification.NewPoller(notifications, cfg.Notifications.BatchSize)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	monitor := worker.NewQueueMonitor(transport, worker.QueueMonitorConfig{
		Queue:        cfg.Notifications.Queue,
		PollInterval: cfg.Notifications.MonitorInterval,
		WarnDepth:    cfg.Notifications.WarnDepth,
	}, factory.MustLogger("queue-monitor"), m)
	go monitor.Start(monitorCtx)

	// Initialize services
	v := validator.New()
	courseSvc := courseService.NewService(courseRepo, departmentRepo, v, emitter)
	departmentSvc := departmentService.NewService(departmentRepo, v, emitter)
	studentSvc := studentService.NewService(studentRepo, v, emitter)

	// Initialize handlers
	h := handler.NewHandler(reg)
	healthHandler := health.NewHandler(db, notifications)

	metricsPath := ""
	if cfg.Monitoring.PrometheusEnabled {
		metricsPath = cfg.Monitoring.MetricsPath
	}

	// Setup router
	r := router.NewRouter(h, healthHandler, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		MetricsPath:      metricsPath,
		CORSConfig:       middleware.DefaultCORSConfig(),
		Logger:           factory.MustLogger("http"),
		Metrics:          m,
	},
		courseHandler.NewHandler(courseSvc),
		departmentHandler.NewHandler(departmentSvc),
		studentHandler.NewHandler(studentSvc),
		notificationHandler.NewHandler(poller, notifications, factory.MustLogger("dashboard")),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "notifications_degraded", notifications.Degraded())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info("shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopMonitor()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
