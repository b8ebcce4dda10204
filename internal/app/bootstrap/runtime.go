package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	"github.com/nischalstumbeti/contestzen/internal/adapters/cache"
	eventadapter "github.com/nischalstumbeti/contestzen/internal/adapters/events"
	"github.com/nischalstumbeti/contestzen/internal/adapters/export"
	httpadapter "github.com/nischalstumbeti/contestzen/internal/adapters/http"
	"github.com/nischalstumbeti/contestzen/internal/adapters/mail"
	"github.com/nischalstumbeti/contestzen/internal/adapters/postgres"
	"github.com/nischalstumbeti/contestzen/internal/adapters/security"
	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// Runtime owns the shared connections. The API, worker and CLI entry points each drive one.
type Runtime struct {
	cfg     Config
	logger  *slog.Logger
	db      *gorm.DB
	redis   *redis.Client
	repos   postgres.Repositories
	service *application.Service
}

// Option adjusts runtime construction for a particular entry point.
type Option func(*options)

type options struct {
	logHandler  func(level slog.Level) slog.Handler
	autoMigrate *bool
}

// WithLogHandler replaces the default JSON handler on stdout.
func WithLogHandler(build func(level slog.Level) slog.Handler) Option {
	return func(o *options) { o.logHandler = build }
}

// WithAutoMigrate overrides AUTO_MIGRATE.
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) { o.autoMigrate = &enabled }
}

func NewRuntime(ctx context.Context, configPath string, opts ...Option) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.autoMigrate != nil {
		cfg.AutoMigrate = *o.autoMigrate
	}
	level := parseLevel(cfg.LogLevel)
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if o.logHandler != nil {
		handler = o.logHandler(level)
	}
	logger := slog.New(handler).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	signer, err := newSigner(cfg)
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}
	if cfg.JWTPrivateKeyPEM == "" {
		logger.WarnContext(ctx, "using ephemeral jwt signing key, sessions will not survive a restart",
			"module", "bootstrap", "layer", "runtime", "operation", "new_signer", "outcome", "degraded")
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			TokenTTL:               cfg.TokenTTL,
			SessionTTL:             cfg.SessionTTL,
			SessionAbsoluteTTL:     cfg.SessionAbsoluteTTL,
			FailedLoginThreshold:   cfg.FailedLoginThreshold,
			LockoutDuration:        cfg.LockoutDuration,
			OTPTTL:                 cfg.OTPTTL,
			OTPIssueLimit:          cfg.OTPIssueLimit,
			OTPIssueWindow:         cfg.OTPRateWindow,
			OTPVerifyLimit:         cfg.OTPVerifyLimit,
			OTPVerifyWindow:        cfg.OTPRateWindow,
			MagicLinkTTL:           cfg.MagicLinkTTL,
			ContestName:            cfg.ContestName,
			PublicBaseURL:          cfg.PublicBaseURL,
			DefaultRedirectURI:     cfg.DefaultRedirectURI,
			AllowedRedirectOrigins: cfg.AllowedRedirectOrigins,
			TransitionPolicy:       cfg.TransitionPolicy,
			SettingsCacheTTL:       cfg.SettingsCacheTTL,
			DefaultUploadEnabled:   cfg.DefaultUploadEnabled,
			AnalyticsDays:          cfg.AnalyticsDays,
		},
		Participants:  repos.Participants,
		Mutations:     repos.Mutations,
		Codes:         repos.Codes,
		Submissions:   repos.Submissions,
		Admins:        repos.Admins,
		Sessions:      repos.Sessions,
		Settings:      repos.Settings,
		FormFields:    repos.FormFields,
		CMS:           repos.CMS,
		Announcements: repos.Announcements,
		Analytics:     repos.Analytics,
		Outbox:        repos.Outbox,
		Lockouts:      cache.NewRedisLockoutStore(redisClient),
		Revocations:   cache.NewRedisSessionRevocationStore(redisClient),
		MagicLinks:    cache.NewRedisMagicLinkStore(redisClient),
		SettingsCache: cache.NewRedisSettingsCache(redisClient),
		Hasher:        security.NewBcryptHasher(cfg.BcryptRounds),
		TokenSigner:   signer,
		Mailer:        mailer,
		Workbook:      export.NewXLSXWriter(),
	})

	return &Runtime{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		redis:   redisClient,
		repos:   repos,
		service: service,
	}, nil
}

func Build(ctx context.Context, configPath string, opts ...Option) (*Runtime, error) {
	return NewRuntime(ctx, configPath, opts...)
}

func (r *Runtime) Service() *application.Service { return r.service }

func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (r *Runtime) Migrate(ctx context.Context) error {
	return postgres.RunMigrations(ctx, r.db)
}

func (r *Runtime) Close() {
	_ = r.redis.Close()
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := httpadapter.NewHandler(r.service)
	router := httpadapter.NewRouter(handler, httpadapter.Options{
		AuthRatePerMinute: r.cfg.AuthRatePerMinute,
		AuthBurst:         r.cfg.AuthBurst,
		AllowedOrigins:    r.cfg.AllowedOrigins,
		Readiness: []httpadapter.ReadinessCheck{
			{Name: "postgres", Check: func(ctx context.Context) error { return postgres.Ping(ctx, r.db) }},
			{Name: "redis", Check: func(ctx context.Context) error { return r.redis.Ping(ctx).Err() }},
		},
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.Close()
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	r.logger.InfoContext(ctx, "api listening",
		"module", "bootstrap", "layer", "runtime", "operation", "run_api", "outcome", "started",
		"http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "module", "bootstrap", "layer", "runtime", "operation", "run_api", "outcome", "failure", "error", runErr)
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	r.Close()
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, closer := r.newPublisher(ctx)
	outbox := eventadapter.NewOutboxWorker(r.logger, r.repos.Outbox, publisher, eventadapter.OutboxWorkerConfig{
		Interval:   r.cfg.OutboxPollInterval,
		BatchSize:  r.cfg.OutboxBatchSize,
		ClaimTTL:   r.cfg.OutboxClaimTTL,
		MaxRetries: r.cfg.OutboxMaxRetries,
	})
	reaper := eventadapter.NewCodeReaper(r.logger, r.service, r.cfg.CodeReapInterval, r.cfg.CodeReapBatchSize)

	errCh := make(chan error, 2)
	go func() {
		if err := outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	if closer != nil {
		_ = closer.Close()
	}
	r.Close()
	return runErr
}

func (r *Runtime) newPublisher(ctx context.Context) (ports.EventPublisher, io.Closer) {
	if len(r.cfg.KafkaBrokers) == 0 {
		return eventadapter.NewLogPublisher(r.logger), nil
	}
	kafkaPublisher, err := eventadapter.NewKafkaPublisher(r.cfg.KafkaBrokers, r.cfg.KafkaPrefix, nil)
	if err != nil {
		r.logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher",
			"module", "bootstrap", "layer", "runtime", "operation", "new_publisher", "outcome", "degraded", "error", err)
		return eventadapter.NewLogPublisher(r.logger), nil
	}
	return kafkaPublisher, kafkaPublisher
}

func newSigner(cfg Config) (*security.JWTSigner, error) {
	if cfg.JWTPrivateKeyPEM != "" {
		return security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTIssuer, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	}
	return security.NewEphemeralJWTSigner(cfg.JWTKeyID, cfg.JWTIssuer)
}

// newMailer falls back to logging mail when no SMTP host is configured.
func newMailer(cfg Config, logger *slog.Logger) (ports.Mailer, error) {
	if cfg.SMTPHost == "" {
		return mail.NewLogMailer(logger), nil
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.SMTPTimeout,
	})
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
