package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Rrens/order-intake/internal/api"
	"github.com/Rrens/order-intake/internal/api/handler"
	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/dialog"
	"github.com/Rrens/order-intake/internal/intake/intent"
	"github.com/Rrens/order-intake/internal/intake/reply"
	"github.com/Rrens/order-intake/internal/intake/session"
	"github.com/Rrens/order-intake/internal/llm"
	"github.com/Rrens/order-intake/internal/llm/gemini"
	"github.com/Rrens/order-intake/internal/llm/ollama"
	"github.com/Rrens/order-intake/internal/logger"
	"github.com/Rrens/order-intake/internal/platform/zalo"
	"github.com/Rrens/order-intake/internal/repository/mongo"
	"github.com/Rrens/order-intake/internal/repository/mysql"
	"github.com/Rrens/order-intake/internal/repository/postgres"
	"github.com/Rrens/order-intake/internal/repository/redis"
	"github.com/Rrens/order-intake/internal/repository/sqlite"
	"github.com/Rrens/order-intake/internal/security"
	"github.com/Rrens/order-intake/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// backends holds the open connections so they can be closed on shutdown
type backends struct {
	pg      *postgres.DB
	lite    *sql.DB
	rdb     *redis.Client
	erp     *sql.DB
	audit   *mongo.AuditSink
	checks  map[string]handler.Pinger
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Server failed")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("sessions", cfg.Storage.Sessions).
		Str("records", cfg.Storage.Records).
		Msg("Starting order intake server")

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	svc, err := buildService(cfg, b)
	if err != nil {
		return err
	}

	routes := api.Routes{
		Webhook: handler.NewWebhookHandler(svc, cfg.Server.MiddlewareTimeout),
		Checks:  b.checks,
	}
	if b.rdb != nil && cfg.Security.RateLimit.Enabled && cfg.Security.RateLimit.WebhookPerMinute > 0 {
		limit := cfg.Security.RateLimit.WebhookPerMinute
		routes.Limiter = redis.NewRateLimiter(b.rdb, limit, limit/10)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, routes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		svc.Drain()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{checks: map[string]handler.Pinger{}}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	if cfg.Storage.Sessions == "postgres" || cfg.Storage.Records == "postgres" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		b.pg = db
		b.closers = append(b.closers, db.Close)
		b.checks["postgres"] = db
	}

	if cfg.Storage.Sessions == "sqlite" || cfg.Storage.Records == "sqlite" {
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return fail(fmt.Errorf("failed to open sqlite: %w", err))
		}
		b.lite = db
		b.closers = append(b.closers, func() { db.Close() })
		b.checks["sqlite"] = pingFunc(db.PingContext)
	}

	if cfg.Storage.Sessions == "redis" || cfg.Intake.DistributedLock || cfg.Security.RateLimit.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.Storage.Sessions == "redis" {
				return fail(fmt.Errorf("failed to connect to redis: %w", err))
			}
			log.Warn().Err(err).Msg("Redis unavailable, running without lock, rate limit and order cache")
		} else {
			b.rdb = rdb
			b.closers = append(b.closers, func() { rdb.Close() })
			b.checks["redis"] = rdb
		}
	}

	erp, err := mysql.Open(ctx, cfg.ERP)
	if err != nil {
		return fail(fmt.Errorf("failed to connect to erp: %w", err))
	}
	b.erp = erp
	b.closers = append(b.closers, func() { erp.Close() })
	b.checks["erp"] = pingFunc(erp.PingContext)

	if cfg.Audit.Enabled {
		sink, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("Audit sink unavailable, turns will not be audited")
		} else {
			b.audit = sink
			b.closers = append(b.closers, func() { sink.Close() })
		}
	}

	return b, nil
}

func buildService(cfg *config.Config, b *backends) (*service.IntakeService, error) {
	var codec security.PhoneCodec = security.PlainPhones{}
	if cfg.Security.PhoneKey != "" {
		cipher, err := security.NewPhoneCipher([]byte(cfg.Security.PhoneKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create phone cipher: %w", err)
		}
		codec = cipher
	} else {
		log.Warn().Msg("security.phone_key not set, phone numbers are stored in plain text")
	}

	var sessions domain.SessionStore
	switch cfg.Storage.Sessions {
	case "postgres":
		sessions = postgres.NewSessionStore(b.pg.Pool)
	case "sqlite":
		sessions = sqlite.NewSessionStore(b.lite)
	case "redis":
		sessions = redis.NewSessionStore(b.rdb)
	}

	var messages domain.MessageLog
	var registrations domain.RegistrationStore
	switch cfg.Storage.Records {
	case "postgres":
		messages = postgres.NewMessageLog(b.pg.Pool)
		registrations = postgres.NewRegistrationStore(b.pg.Pool, codec)
	case "sqlite":
		messages = sqlite.NewMessageLog(b.lite)
		registrations = sqlite.NewRegistrationStore(b.lite, codec)
	}

	var orders domain.OrderService = mysql.NewOrderStore(b.erp, cfg.ERP.OrderPrefix)
	if b.rdb != nil {
		orders = redis.NewOrderListCache(b.rdb, orders)
	}

	platform := zalo.NewClient(cfg.Zalo)

	var history domain.HistoryProvider = platform
	if cfg.Intake.HistorySource == "log" {
		history = domain.HistoryFromLog{Log: messages, Limit: cfg.Intake.HistoryLimit}
	}

	classifier, err := intent.New(cfg.Intake.Phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to compile intake phrases: %w", err)
	}
	machine := dialog.NewMachine(classifier)

	deps := service.Dependencies{
		Machine:       machine,
		Composer:      reply.NewComposer(cfg.Intake.Brand, cfg.Intake.SupportPhone),
		Reconstructor: session.NewReconstructor(machine, history, cfg.Intake.HistoryTimeout),
		Sessions:      sessions,
		Registrations: registrations,
		Orders:        orders,
		Sender:        platform,
		Messages:      messages,
	}

	if cfg.Intake.AssistantEnabled {
		if assistant := buildAssistant(cfg); assistant != nil {
			deps.Assistant = assistant
		}
	}
	if b.audit != nil {
		deps.Audit = b.audit
	}
	if b.rdb != nil {
		if cfg.Security.RateLimit.Enabled {
			deps.Limiter = redis.NewRateLimiter(b.rdb, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		}
		if cfg.Intake.DistributedLock {
			deps.Lock = redis.NewCustomerLock(b.rdb, cfg.Intake.LockTTL)
		}
	}

	return service.NewIntakeService(deps, service.Options{
		OrderTimeout:   cfg.Intake.OrderTimeout,
		SendTimeout:    cfg.Intake.SendTimeout,
		MaxSaveRetries: cfg.Intake.MaxSaveRetries,
		ListLimit:      cfg.ERP.ListLimit,
	}), nil
}

func buildAssistant(cfg *config.Config) *llm.Assistant {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)
	if p := gemini.NewProvider(cfg.LLM.Gemini); p.IsConfigured() {
		router.RegisterProvider(p)
	}
	if p := ollama.NewProvider(cfg.LLM.Ollama); p.IsConfigured() {
		router.RegisterProvider(p)
	}
	if _, err := router.Available(); err != nil {
		log.Warn().Err(err).Msg("Assistant enabled but no LLM provider is configured")
		return nil
	}
	log.Info().Strs("providers", router.ListProviders()).Str("default", router.DefaultProvider()).Msg("Assistant enabled")
	return llm.NewAssistant(router, cfg.Intake.Brand, cfg.Intake.SupportPhone, cfg.LLM.Timeout)
}
