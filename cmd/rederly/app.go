package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rederly/client/internal/auth"
	"rederly/client/internal/backend"
	"rederly/client/internal/config"
	"rederly/client/internal/db"
	"rederly/client/internal/guard"
	"rederly/client/internal/overrides"
	"rederly/client/internal/policy/engine"
	"rederly/client/internal/security"
	"rederly/client/internal/session"
	"rederly/client/internal/session/repository"
	"rederly/client/internal/telemetry"
	telemetryotel "rederly/client/internal/telemetry/otel"
	"rederly/client/internal/telemetry/producer"
)

const shutdownTimeout = 5 * time.Second

// app wires the client components for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	repo      repository.Repository
	store     *session.Store
	policy    *engine.OPAEvaluator
	api       *backend.Client
	guard     *guard.Guard
	auth      *auth.Service
	overrides *overrides.Controller
	closers   []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	var sealer *security.Sealer
	if cfg.SessionSealKey != "" {
		if sealer, err = security.NewSealer([]byte(cfg.SessionSealKey)); err != nil {
			return nil, err
		}
	}
	a.repo = repo
	a.store = session.NewStore(repo, sealer, logger)

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	a.closers = append(a.closers, providers.Shutdown)
	metrics, err := telemetryotel.NewMetrics(providers.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}

	emitter := telemetry.MultiEmitter{
		telemetry.LogEmitter{Logger: logger},
		telemetryotel.NewEventEmitter(providers.LoggerProvider),
	}
	if kp := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic, logger); kp != nil {
		emitter = append(emitter, kp)
		a.closers = append(a.closers, func(context.Context) error { return kp.Close() })
	}

	var policies engine.PolicySource
	if cfg.RoutePolicyPath != "" {
		policies = engine.FileSource{Path: cfg.RoutePolicyPath}
	}
	evaluator, err := engine.NewOPAEvaluator(ctx, policies, logger)
	if err != nil {
		return nil, fmt.Errorf("route policy: %w", err)
	}
	a.policy = evaluator

	a.api = backend.NewClient(cfg.BackendURL, cfg.Timeout(), a.sessionToken, emitter, logger)
	a.guard = guard.New(a.store, a.api, evaluator, metrics, logger)
	a.auth = auth.NewService(a.api, a.store, a.guard, emitter, logger)
	a.overrides = overrides.NewController(a.api, a.store, emitter, metrics, logger)
	a.overrides.SetSessionGuard(a.guard)
	return a, nil
}

func (a *app) openRepository(ctx context.Context) (repository.Repository, error) {
	switch a.cfg.SessionBackend {
	case config.SessionBackendMemory:
		return repository.NewMemoryRepository(), nil
	case config.SessionBackendRedis:
		client, err := repository.NewRedisClient(a.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return repository.NewRedisRepository(client, a.cfg.SessionClientID), nil
	case config.SessionBackendPostgres:
		conn, err := db.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("session database: %w", err)
		}
		a.closers = append(a.closers, closeDB(conn))
		return repository.NewPostgresRepository(conn, a.cfg.SessionClientID), nil
	default:
		return repository.NewFileRepository(a.cfg.SessionFile), nil
	}
}

func closeDB(conn *sql.DB) func(context.Context) error {
	return func(context.Context) error { return conn.Close() }
}

// sessionToken is the backend client's token source.
func (a *app) sessionToken(ctx context.Context) string {
	s, err := a.store.Current(ctx)
	if err != nil || !s.Valid() {
		return ""
	}
	return s.Token
}

// close drains pending telemetry and releases every resource, newest first.
func (a *app) close() {
	if !telemetry.Drain(telemetry.ShutdownDrainDuration) {
		a.logger.Warn("telemetry drain timed out")
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.WithError(err).Warn("shutdown")
	}
}
