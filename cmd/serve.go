package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-slots/app/auth"
	"github.com/vibast-solutions/ms-go-slots/app/controller"
	"github.com/vibast-solutions/ms-go-slots/app/ratelimit"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
	"github.com/vibast-solutions/ms-go-slots/app/service"
	"github.com/vibast-solutions/ms-go-slots/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the slots service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	subscriptionRepo := repository.NewSubscriptionRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	requestRepo := repository.NewSubscriptionRequestRepository(db)
	serviceProviderRepo := repository.NewServiceProviderRepository(db)
	countryRepo := repository.NewCountryRepository(db)
	reservationRepo := repository.NewReservationRepository(db)

	assignmentService := service.NewAssignmentService(subscriptionRepo, slotRepo, reservationRepo)
	requestService := service.NewRequestService(assignmentService, requestRepo, slotRepo, serviceProviderRepo, countryRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, serviceProviderRepo, countryRepo, requestService)
	slotController := controller.NewSlotController(requestService, subscriptionService)

	authMiddleware := auth.NewEchoMiddleware(cfg.Auth.JWTSecret)
	rateLimitStore := ratelimit.NewStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	rateLimitStore.StartJanitor(janitorCtx)

	e := setupHTTPServer(slotController, authMiddleware, rateLimitStore)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	slotController *controller.SlotController,
	authMiddleware *auth.EchoMiddleware,
	rateLimitStore *ratelimit.Store,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))

	e.GET("/health", slotController.Health)

	subscriptions := e.Group("/subscriptions", authMiddleware.RequireAuth(), ratelimit.Middleware(rateLimitStore))
	subscriptions.POST("/request", slotController.RequestSubscriptionSlot)
	subscriptions.GET("/my-slots", slotController.GetMySlots)
	subscriptions.GET("/requests", slotController.ListMyRequests)
	subscriptions.GET("/requests/:id", slotController.GetRequest)

	admin := e.Group("/admin/subscriptions", authMiddleware.RequireAuth(), authMiddleware.RequireRole(auth.RoleAdmin))
	admin.POST("", slotController.CreateSubscription)
	admin.GET("/:id", slotController.GetSubscription)
	admin.POST("/:id/release", slotController.ReleaseSlotCapacity)

	return e
}
