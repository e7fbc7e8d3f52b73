// Command consumer runs the user-events worker on its own, for deployments
// that scale the consumer group independently of the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userhub/internal/event"
	"userhub/internal/event/consumer"
	"userhub/internal/event/ledger"
	"userhub/internal/platform/config"
	"userhub/internal/platform/kafka"
	"userhub/internal/platform/logger"
	"userhub/internal/platform/metrics"
	"userhub/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	m := metrics.New()
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

	if err := cons.Start(ctx); err != nil {
		log.Error("consumer failed to start", "error", err)
		os.Exit(1)
	}
	log.Info("consumer is running", "topic", broker.Topic())

	<-ctx.Done()
	log.Info("shutting down consumer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cons.Stop(shutdownCtx); err != nil {
		log.Error("consumer shutdown failed", "error", err)
		os.Exit(1)
	}
}
