// Command server runs the HTTP API together with the in-process
// user-events consumer, mirroring the single-process deployment. The
// standalone worker in cmd/consumer runs the consumer alone.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"userhub/internal/event"
	"userhub/internal/event/consumer"
	"userhub/internal/event/ledger"
	"userhub/internal/event/publisher"
	"userhub/internal/health"
	"userhub/internal/platform/config"
	"userhub/internal/platform/httpserver"
	"userhub/internal/platform/kafka"
	"userhub/internal/platform/logger"
	"userhub/internal/platform/metrics"
	"userhub/internal/platform/postgres"
	"userhub/internal/platform/redis"
	jwttoken "userhub/internal/token"
	httptransport "userhub/internal/transport/http"
	"userhub/internal/user"
	userhandler "userhub/internal/user/handler"
	userservice "userhub/internal/user/service"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.UsingDefaultSigningKey() {
		log.Warn("JWT_SIGNING_KEY is unset; using the insecure development fallback")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	broker, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	if err := broker.EnsureTopic(ctx); err != nil {
		// Brokers with auto-creation enabled still work without this.
		log.Warn("topic bootstrap failed", "topic", broker.Topic(), "error", err)
	}

	m := metrics.New()
	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.TokenTTL)
	pub := publisher.New(broker, broker.Topic(), log, m)

	var led ledger.Ledger = ledger.NewMemory()
	if rdb != nil {
		led = ledger.NewRedis(rdb)
	}
	userCreated := consumer.NewUserCreatedHandler(led, log, m)
	cons := consumer.New(
		func(ctx context.Context) (consumer.Session, error) { return broker.DialGroup(ctx) },
		map[event.Kind]consumer.Handler{
			event.KindUserCreated: userCreated.Handle,
		},
		log, m,
	)

	users := user.NewPostgresStore(db)
	svc := userservice.New(users, pub, tokens, log, m)
	uh := userhandler.New(svc, log, jwttoken.NewMiddlewareAdapter(tokens))

	agg := health.NewAggregator(cfg.ProbeTimeout)
	agg.RegisterProbe("database", db.PingContext)
	agg.RegisterProbe("kafka", broker.Health)
	if rdb != nil {
		agg.RegisterProbe("redis", rdb.Health)
	}
	hh := health.NewHandler(agg, log)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(log, m, uh, hh))

	if err := cons.Start(ctx); err != nil {
		log.Error("consumer failed to start", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting userhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
		if err := cons.Stop(shutdownCtx); err != nil {
			log.Error("consumer shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
