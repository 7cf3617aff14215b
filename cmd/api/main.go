package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/config"
	appHTTP "github.com/cmlabs-hris/jamaica-payroll/internal/handler/http"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/cron"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/sse"
	"github.com/cmlabs-hris/jamaica-payroll/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/jamaica-payroll/internal/service/payroll"
	statutoryService "github.com/cmlabs-hris/jamaica-payroll/internal/service/statutory"
	transactionService "github.com/cmlabs-hris/jamaica-payroll/internal/service/transaction"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, cfg.Database.MigrationsDir); err != nil {
			return err
		}
	}

	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	transactionRepo := postgresql.NewTransactionRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	rateSetRepo := postgresql.NewRateSetRepository(db)

	statutorySvc := statutoryService.NewStatutoryService(rateSetRepo, payrollRepo)
	seed, err := statutoryService.LoadRateFile(cfg.Payroll.RateFile)
	if err != nil {
		return err
	}
	if err := statutorySvc.Bootstrap(ctx, seed); err != nil {
		return fmt.Errorf("error loading statutory rates: %w", err)
	}

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	payrollSvc := payrollService.NewPayrollService(
		payrollRepo,
		employeeRepo,
		transactionRepo,
		attendanceRepo,
		statutorySvc,
		hub,
		payrollService.Options{
			AcceptEntered:    cfg.Payroll.AcceptEntered,
			AllowNegativeNet: cfg.Payroll.AllowNegativeNet,
			Workers:          cfg.Payroll.Workers,
		},
	)
	transactionSvc := transactionService.NewTransactionService(transactionRepo, employeeRepo, payrollRepo)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewStatutoryHandler(statutorySvc),
		appHTTP.NewTransactionHandler(transactionSvc),
		appHTTP.NewEventsHandler(hub),
	)

	scheduler := cron.NewScheduler()
	if cfg.Cron.AutoCalculate {
		cron.NewPayrollJobs(payrollSvc, cfg.Cron.Companies).RegisterJobs(scheduler, cfg.Cron.Interval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end when the process is signalled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "version", cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
