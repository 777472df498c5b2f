package cmd

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
	"github.com/vibast-solutions/ms-go-slots/app/service"
	"github.com/vibast-solutions/ms-go-slots/config"

	_ "github.com/go-sql-driver/mysql"
)

var fillWorker bool

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Retry pending slot requests against current capacity",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"fill_pending",
			fillWorker,
			func(cfg *config.Config) time.Duration { return cfg.Jobs.FillInterval },
			func(s *service.RequestService, ctx context.Context) error {
				return s.RunPendingFillBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().BoolVar(&fillWorker, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	worker bool,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.RequestService, ctx context.Context) error,
) {
	cfg, requestService, cleanup := mustCreateRequestService()
	defer cleanup()

	if worker {
		runWorker(name, intervalResolver(cfg), requestService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(requestService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	requestService *service.RequestService,
	fn func(s *service.RequestService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(requestService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(requestService, ctx) })
		}
	}
}

func mustCreateRequestService() (*config.Config, *service.RequestService, func()) {
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

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
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

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, requestService, cleanup
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
