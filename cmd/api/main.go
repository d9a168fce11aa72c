package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/config"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/hris-shift-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/idempotency"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-shift-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-shift-go/internal/repository/postgresql"
	shiftService "github.com/cmlabs-hris/hris-shift-go/internal/service/shift"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

type repositories struct {
	uow         shift.UnitOfWork
	shifts      shift.ShiftRepository
	settings    shift.SettingsRepository
	assignments shift.AssignmentRepository
	employees   employee.EmployeeRepository
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-shift"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.App.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	idempotencyStore, closeStore, err := openIdempotencyStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	shiftSvc := shiftService.NewShiftService(
		repos.uow,
		repos.shifts,
		repos.settings,
		repos.assignments,
		repos.employees,
		idempotencyStore,
		shiftService.Options{
			BulkWorkers:    cfg.Shift.BulkWorkers,
			BulkMax:        cfg.Shift.BulkMax,
			IdempotencyTTL: cfg.Shift.IdempotencyTTL,
		},
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService.JWTAuth(),
		appHTTP.NewShiftHandler(shiftSvc),
		appHTTP.NewShiftAssignmentHandler(shiftSvc),
		appHTTP.NewEmployeeShiftHandler(shiftSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server running", "addr", server.Addr, "storage", cfg.App.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		db := memory.NewDB()
		employees := memory.NewEmployeeRepository(db)
		for _, e := range fixtures.GetDemoEmployees() {
			if _, err := employees.Create(ctx, e); err != nil {
				return repositories{}, fmt.Errorf("seed demo employee %s: %w", e.EmployeeCode, err)
			}
		}
		slog.Warn("using in-memory storage, data is lost on restart", "demo_company_id", fixtures.DemoCompanyID)

		return repositories{
			uow:         memory.NewUnitOfWork(db),
			shifts:      memory.NewShiftRepository(db),
			settings:    memory.NewSettingsRepository(db),
			assignments: memory.NewAssignmentRepository(db),
			employees:   employees,
			close:       func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return repositories{}, err
		}

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return repositories{}, err
			}
		}

		return repositories{
			uow:         postgresql.NewUnitOfWork(db),
			shifts:      postgresql.NewShiftRepository(db),
			settings:    postgresql.NewShiftSettingsRepository(db),
			assignments: postgresql.NewShiftAssignmentRepository(db),
			employees:   postgresql.NewEmployeeRepository(db),
			close:       db.Close,
		}, nil
	}
}

func openIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		slog.Info("idempotency keys kept in process memory")
		return idempotency.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return idempotency.NewRedisStore(client), func() { _ = client.Close() }, nil
}
