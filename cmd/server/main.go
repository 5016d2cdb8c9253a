package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"arho/internal/plan/codes"
	"arho/internal/plan/handler"
	planmetrics "arho/internal/plan/metrics"
	"arho/internal/plan/service"
	"arho/internal/plan/store"
	"arho/internal/plan/template"
	"arho/internal/platform/config"
	"arho/internal/platform/httpserver"
	"arho/internal/platform/logger"
	httpmetrics "arho/internal/platform/metrics"
	"arho/internal/platform/redis"
	"arho/pkg/platform/audit"
	"arho/pkg/platform/audit/publisher"
	auditmemory "arho/pkg/platform/audit/store/memory"
	auditpostgres "arho/pkg/platform/audit/store/postgres"
	"arho/pkg/platform/circuit"
	"arho/pkg/platform/httputil"
	"arho/pkg/platform/middleware/metadata"
	"arho/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Plan logic lives in internal/plan.
func main() {
	cfg := config.FromEnv()
	seedPath := bindFlags(pflag.CommandLine, &cfg)
	pflag.Parse()

	log := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *seedPath, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// bindFlags overlays command line flags on the environment config.
func bindFlags(fs *pflag.FlagSet, cfg *config.Server) *string {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json, text)")
	fs.StringVar(&cfg.Database.Driver, "db-driver", cfg.Database.Driver, "database driver (pgx, postgres, sqlite)")
	fs.StringVar(&cfg.Database.URL, "db-url", cfg.Database.URL, "database DSN; empty runs on the in-memory store")
	fs.BoolVar(&cfg.Database.Migrate, "migrate", cfg.Database.Migrate, "apply the schema on start")
	fs.StringVar(&cfg.Redis.URL, "redis-url", cfg.Redis.URL, "Redis URL of the code registry cache; empty disables it")
	fs.DurationVar(&cfg.Redis.CodeCacheTTL, "code-cache-ttl", cfg.Redis.CodeCacheTTL, "expiry of the cached code registry")
	fs.IntVar(&cfg.Audit.Buffer, "audit-buffer", cfg.Audit.Buffer, "async audit buffer size; 0 delivers synchronously")
	fs.BoolVar(&cfg.Audit.Persist, "audit-persist", cfg.Audit.Persist, "persist audit events in postgres")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")
	return fs.String("seed-codes", "", "YAML file of code list values to seed before start")
}

type checker interface {
	Health(ctx context.Context) error
}

func run(ctx context.Context, cfg config.Server, seedPath string, log *slog.Logger) error {
	gateway, db, err := openGateway(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if seedPath != "" {
		data, err := os.ReadFile(seedPath)
		if err != nil {
			return fmt.Errorf("read code seed: %w", err)
		}
		list, err := codes.ParseSeed(data)
		if err != nil {
			return err
		}
		if _, err := codes.Seed(ctx, gateway, list); err != nil {
			return err
		}
	}

	var health []checker
	registry, rdb, err := openCodes(ctx, cfg.Redis, gateway, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		health = append(health, rdb)
	}
	log.Info("code registry loaded", "codes", registry.Len())

	auditStore, err := openAuditStore(ctx, cfg.Audit, db)
	if err != nil {
		return err
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	svc := service.New(gateway,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(planmetrics.New(nil)),
		service.WithGeneralGroupType(registry.GeneralGroupType()),
	)
	h := handler.New(svc, template.NewParser(registry), log)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(httpmetrics.New(nil).Middleware)
	router.Get("/healthz", healthz(db, health))
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/v1", h.Register)

	srv := httpserver.New(cfg.Addr, router, log)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting arho", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openGateway(ctx context.Context, cfg config.Database) (store.Gateway, *sql.DB, error) {
	if cfg.URL == "" {
		return store.NewInMemory(), nil, nil
	}
	db, dialect, err := store.Open(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := store.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return store.NewSQL(db, dialect), db, nil
}

// openCodes connects to Redis when configured and loads the code registry
// through it. The client is closed again when loading fails.
func openCodes(ctx context.Context, cfg config.RedisConfig, gw store.Gateway, log *slog.Logger) (*codes.Registry, *redis.Client, error) {
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	registry, err := loadCodes(ctx, cfg, rdb, gw, log)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	return registry, rdb, nil
}

func loadCodes(ctx context.Context, cfg config.RedisConfig, rdb *redis.Client, gw store.Gateway, log *slog.Logger) (*codes.Registry, error) {
	if rdb == nil {
		return codes.Load(ctx, gw)
	}
	cache := codes.NewRedisCache(rdb.Client,
		codes.WithTTL(cfg.CodeCacheTTL),
		codes.WithLogger(log),
		codes.WithBreaker(circuit.New("code-cache")),
	)
	return cache.Load(ctx, gw)
}

func openAuditStore(ctx context.Context, cfg config.Audit, db *sql.DB) (audit.Store, error) {
	if !cfg.Persist {
		return auditmemory.NewInMemoryStore(), nil
	}
	if db == nil {
		return nil, errors.New("audit persistence needs a database")
	}
	s := auditpostgres.New(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func healthz(db *sql.DB, checks []checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["status"], status["database"] = "degraded", err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		for _, c := range checks {
			if err := c.Health(ctx); err != nil {
				status["status"], status["cache"] = "degraded", err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, status)
	}
}
