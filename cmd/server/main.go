// Command server runs the custodial fund governance service: treasury core,
// proposal engine, policy engine and emergency engine behind one HTTP API.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custodia/internal/audit"
	audithandler "custodia/internal/audit/handler"
	"custodia/internal/emergency"
	emergencyhandler "custodia/internal/emergency/handler"
	emergencymetrics "custodia/internal/emergency/metrics"
	"custodia/internal/jwttoken"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	platformpostgres "custodia/internal/platform/postgres"
	platformredis "custodia/internal/platform/redis"
	"custodia/internal/policy"
	policyhandler "custodia/internal/policy/handler"
	policymetrics "custodia/internal/policy/metrics"
	"custodia/internal/proposal"
	proposalhandler "custodia/internal/proposal/handler"
	proposalmetrics "custodia/internal/proposal/metrics"
	httptransport "custodia/internal/transport/http"
	"custodia/internal/treasury"
	treasuryhandler "custodia/internal/treasury/handler"
	treasurymetrics "custodia/internal/treasury/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores default to in-memory and upgrade to Postgres when a DSN is set.
	var (
		healthChecks   []httptransport.HealthCheck
		treasuryStore  treasury.Store  = treasury.NewInMemory()
		proposalStore  proposal.Store  = proposal.NewInMemory()
		emergencyStore emergency.Store = emergency.NewInMemory()
		policyStore    policy.Store    = policy.NewInMemoryStore()
		auditStore     audit.Store     = audit.NewInMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if err := platformpostgres.Migrate(ctx, db); err != nil {
			return err
		}
		treasuryStore = treasury.NewPostgres(db)
		proposalStore = proposal.NewPostgres(db)
		emergencyStore = emergency.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		healthChecks = append(healthChecks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		log.Info("postgres stores enabled")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		policyStore = policy.NewRedisStore(redisClient.Client)
		healthChecks = append(healthChecks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
		log.Info("redis policy store enabled")
	}

	// Audit events always land in the durable store; Kafka delivery, when
	// configured, runs through an async worker.
	sinks := audit.Tee{audit.NewPublisher(auditStore)}
	kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	var worker *audit.Worker
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		async := audit.NewAsyncPublisher(256)
		worker = audit.NewWorker(kafkaPublisher, async.Events(), log)
		sinks = append(sinks, async)
		log.Info("kafka audit publisher enabled", "topic", cfg.Kafka.AuditTopic)
	}

	treasurySvc := treasury.NewService(treasuryStore,
		treasury.WithLogger(log),
		treasury.WithAuditPublisher(sinks),
		treasury.WithMetrics(treasurymetrics.New()),
	)
	policySvc := policy.NewService(policyStore,
		policy.WithLogger(log),
		policy.WithAuditPublisher(sinks),
		policy.WithMetrics(policymetrics.New()),
	)
	proposalSvc := proposal.NewService(proposalStore, treasurySvc,
		proposal.WithPolicyChecker(policySvc),
		proposal.WithLogger(log),
		proposal.WithAuditPublisher(sinks),
		proposal.WithMetrics(proposalmetrics.New()),
	)
	emergencySvc := emergency.NewService(emergencyStore, treasurySvc,
		emergency.WithCooldown(cfg.EmergencyCooldown),
		emergency.WithLogger(log),
		emergency.WithAuditPublisher(sinks),
		emergency.WithMetrics(emergencymetrics.New()),
	)

	auditReader := audit.NewPublisher(auditStore)
	router := httptransport.NewRouter(httptransport.Handlers{
		Treasury:  treasuryhandler.New(treasurySvc, log),
		Proposal:  proposalhandler.New(proposalSvc, log),
		Policy:    policyhandler.New(policySvc, log),
		Emergency: emergencyhandler.New(emergencySvc, log),
		Audit:     audithandler.New(auditReader, log),
	}, jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer), log, healthChecks...)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
