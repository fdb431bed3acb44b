package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"trialreg/internal/audit"
	auditmemory "trialreg/internal/audit/store/memory"
	auditpostgres "trialreg/internal/audit/store/postgres"
	authservice "trialreg/internal/auth/service"
	userStore "trialreg/internal/auth/store/user"
	jwttoken "trialreg/internal/jwt_token"
	"trialreg/internal/platform/config"
	"trialreg/internal/platform/kafka"
	platformmetrics "trialreg/internal/platform/metrics"
	"trialreg/internal/platform/postgres"
	"trialreg/internal/platform/redis"
	"trialreg/internal/registry/closeout"
	"trialreg/internal/registry/eligibility"
	registrymetrics "trialreg/internal/registry/metrics"
	"trialreg/internal/registry/service"
	registrystore "trialreg/internal/registry/store"
	registrymemory "trialreg/internal/registry/store/memory"
	registrypostgres "trialreg/internal/registry/store/postgres"
)

// auditBackend is what the recorder, the admin log and the relay need from
// an audit store.
type auditBackend interface {
	audit.Store
	audit.Outbox
}

// app holds the wired process: the router, the background workers and the
// resources to release on exit.
type app struct {
	router    http.Handler
	workers   []func(ctx context.Context) error
	closers   []func() error
	storeKind string

	registry *service.Service
	auth     *authservice.Service
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	policy := eligibility.Policy{
		AgeMin:      cfg.Eligibility.AgeMin,
		AgeMax:      cfg.Eligibility.AgeMax,
		WashoutDays: cfg.Eligibility.WashoutDays,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var (
		regStore   service.Store
		regTx      service.StoreTx
		auditStore auditBackend
		users      authservice.UserStore
		authOpts   []authservice.Option
		db         *sql.DB
		pgStore    *registrypostgres.Store
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, err
			}
		}
		pgStore = registrypostgres.New(db)
		pgTx := newPostgresTx(db, cfg.Database.TxTimeout)
		regStore = pgStore
		regTx = registryTx{postgresTx: pgTx, store: pgStore}
		auditStore = auditpostgres.New(db)
		users = userStore.NewPostgres(db)
		authOpts = append(authOpts, authservice.WithTx(userTx{postgresTx: pgTx}))
		a.storeKind = "postgres"
	} else {
		mem := registrymemory.New()
		regStore = mem
		regTx = registrymemory.NewTx(mem)
		auditStore = auditmemory.New()
		users = userStore.New()
		a.storeKind = "memory"
		log.Warn("DATABASE_URL not set; records are kept in memory only")
	}

	regMetrics := registrymetrics.New()
	auditMetrics := audit.NewMetrics()
	recorder := audit.NewRecorder(auditStore, audit.WithLogger(log), audit.WithMetrics(auditMetrics))

	regOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(regMetrics),
		service.WithEngine(eligibility.New(policy)),
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var healthChecks []func(context.Context) error
	if db != nil {
		healthChecks = append(healthChecks, db.PingContext)
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		healthChecks = append(healthChecks, redisClient.Health)
		seq := registrystore.NewRedisCodeSequence(redisClient.Client)
		if pgStore != nil {
			if err := seedCodeSequence(ctx, seq, pgStore); err != nil {
				return nil, err
			}
		}
		regOpts = append(regOpts, service.WithCodeSequence(seq))
	}

	a.registry = service.New(regStore, regTx, recorder, regOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	authOpts = append(authOpts, authservice.WithLogger(log), authservice.WithTokenTTL(cfg.Auth.AccessTokenTTL))
	a.auth = authservice.New(users, jwtService, recorder, authOpts...)
	if err := a.auth.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if kafkaClient != nil {
		a.closers = append(a.closers, closeKafka(kafkaClient))
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka.AuditTopic, 1); err != nil {
			return nil, err
		}
		relay := audit.NewRelay(auditStore, audit.NewKafkaSink(kafkaClient, cfg.Kafka.AuditTopic),
			audit.WithRelayInterval(cfg.Kafka.RelayInterval),
			audit.WithRelayBatch(cfg.Kafka.RelayBatch),
			audit.WithRelayLogger(log),
			audit.WithRelayMetrics(auditMetrics),
		)
		a.workers = append(a.workers, relay.Run)
	}

	if cfg.Closeout.Enabled {
		sweeper := closeout.New(a.registry,
			closeout.WithInterval(cfg.Closeout.Interval),
			closeout.WithLogger(log),
		)
		a.workers = append(a.workers, sweeper.Run)
	}

	a.router = newRouter(routerDeps{
		logger:    log,
		metrics:   platformmetrics.New(),
		registry:  a.registry,
		auth:      a.auth,
		auditLog:  recorder,
		validator: jwttoken.NewJWTServiceAdapter(jwtService),
		health:    healthChecks,
	})
	ok = true
	return a, nil
}

// seedCodeSequence raises the Redis counter of the current year above every
// code already stored, so a flushed or new Redis never reissues a code.
func seedCodeSequence(ctx context.Context, seq *registrystore.RedisCodeSequence, st *registrypostgres.Store) error {
	year := time.Now().Year()
	floor, err := st.MaxCodeSequence(ctx, year)
	if err != nil {
		return err
	}
	return seq.Seed(ctx, year, floor)
}

func closeKafka(client *kgo.Client) func() error {
	return func() error {
		client.Close()
		return nil
	}
}
