// Command server runs the token sale service. All wiring happens here; the
// domain packages stay free of environment and lifecycle concerns.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"mintgate/internal/auth"
	authHandler "mintgate/internal/auth/handler"
	"mintgate/internal/events"
	"mintgate/internal/jwttoken"
	"mintgate/internal/ledger"
	"mintgate/internal/oracle"
	oracleHandler "mintgate/internal/oracle/handler"
	"mintgate/internal/phase"
	phaseHandler "mintgate/internal/phase/handler"
	"mintgate/internal/platform/config"
	"mintgate/internal/platform/httpserver"
	"mintgate/internal/platform/logger"
	"mintgate/internal/platform/metrics"
	platformRedis "mintgate/internal/platform/redis"
	"mintgate/internal/roles"
	rolesHandler "mintgate/internal/roles/handler"
	"mintgate/internal/sale"
	saleHandler "mintgate/internal/sale/handler"
	"mintgate/internal/treasury"
	httptransport "mintgate/internal/transport/http"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		phaseStore phase.Store
		roleStore  roles.Store
		saleStore  sale.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		phaseStore = phase.NewPostgresStore(db)
		roleStore = roles.NewPostgresStore(db)
		saleStore = sale.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		phaseStore = phase.NewInMemoryStore()
		roleStore = roles.NewInMemoryStore()
		saleStore = sale.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	// Payment reference fencing: Redis when configured.
	var idem sale.IdempotencyStore = sale.NewInMemoryIdempotencyStore()
	redisClient, err := platformRedis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		idem = sale.NewRedisIdempotencyStore(redisClient.Client)
		log.Info("using redis idempotency store")
	}

	// Event pipeline: Kafka when configured, in-memory otherwise. Events flow
	// through a buffered channel so emitters never block on the sink.
	var sink events.Sink = events.NewMemorySink()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	}
	pub := events.NewChannelPublisher(256, log)
	worker := events.NewWorker(pub, sink, log)

	// Services.
	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "mintgate")
	authSvc := auth.NewService(auth.NewInMemoryStore(), jwtSvc)
	roleSvc := roles.NewService(roleStore, cfg.OwnerAccount)
	phaseSvc := phase.NewService(phaseStore, roleSvc, pub, log, phase.NewMetrics())
	oracleSvc := oracle.NewService(
		oracle.NewHTTPGateway(cfg.OracleURL, nil),
		roleSvc, pub, log, oracle.NewMetrics(),
	)
	engine := sale.NewEngine(sale.Params{
		Phases:   phaseSvc,
		Oracle:   oracleSvc,
		Ledger:   ledger.NewHTTPLedger(cfg.LedgerURL, nil),
		Treasury: treasury.NewHTTPTreasury(cfg.LedgerURL, nil),
		Store:    saleStore,
		Idem:     idem,
		Authz:    roleSvc,
		Pub:      pub,
		Logger:   log,
		Metrics:  sale.NewMetrics(),
		Wallet:   cfg.WalletAccount,
	})

	if cfg.OwnerSecret != "" {
		if err := authSvc.Register(ctx, cfg.OwnerAccount, cfg.OwnerSecret); err != nil {
			return err
		}
		log.Info("seeded owner credentials", "account", cfg.OwnerAccount)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:           authHandler.New(authSvc, log),
		Phases:         phaseHandler.New(phaseSvc, log),
		Sale:           saleHandler.New(engine, log),
		Oracle:         oracleHandler.New(oracleSvc, log),
		Roles:          rolesHandler.New(roleSvc, log),
		JWT:            jwttoken.NewMiddlewareAdapter(jwtSvc),
		Logger:         log,
		Metrics:        metrics.New(),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting mintgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
