package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	catalogService "charitydrive/internal/catalog/service"
	catalogStore "charitydrive/internal/catalog/store"
	"charitydrive/internal/ledger"
	"charitydrive/internal/marketplace/ports"
	marketplaceStore "charitydrive/internal/marketplace/store"
	"charitydrive/internal/platform/config"
	"charitydrive/internal/platform/kafka"
	"charitydrive/internal/platform/postgres"
	"charitydrive/internal/platform/redis"
	ratelimitMiddleware "charitydrive/internal/ratelimit/middleware"
	"charitydrive/internal/ratelimit/store/bucket"
	audit "charitydrive/pkg/platform/audit"
	"charitydrive/pkg/platform/audit/publisher"
	kafkasink "charitydrive/pkg/platform/audit/publishers/kafka"
	natssink "charitydrive/pkg/platform/audit/publishers/nats"
	auditmemory "charitydrive/pkg/platform/audit/store/memory"
	auditpostgres "charitydrive/pkg/platform/audit/store/postgres"
	"charitydrive/pkg/platform/audit/worker"
)

const (
	topicPartitions  = 3
	topicReplication = 1
	auditBufferSize  = 256
)

// infra holds the backends selected from configuration. Postgres, when
// configured, backs every store and the credit ledger in one database so a
// bid debits credit and updates fulfillment in the same transaction.
type infra struct {
	backend      string
	catalogStore catalogService.Store
	stateStore   ports.StateStore
	ledger       ports.Ledger
	publisher    *publisher.Publisher
	relay        *worker.Relay
	// limiterStore is nil when redis is not configured; the limiter then
	// counts in memory.
	limiterStore ratelimitMiddleware.Store
	checks       map[string]func(context.Context) error

	closers []func()
}

func (i *infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func buildInfra(ctx context.Context, cfg config.Server, accts accounts, log *slog.Logger) (_ *infra, err error) {
	in := &infra{checks: map[string]func(context.Context) error{}}
	defer func() {
		if err != nil {
			in.Close()
		}
	}()

	var auditStore audit.Store
	var outbox *auditpostgres.Store

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		in.closers = append(in.closers, func() { _ = redisClient.Close() })
		in.limiterStore = bucket.NewRedis(redisClient.Client)
		in.checks["redis"] = redisClient.Health
	}

	if cfg.Postgres.DSN != "" {
		db, err := openPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = db.Close() })
		in.checks["postgres"] = db.PingContext

		cs := catalogStore.NewPostgres(db)
		if err := cs.EnsureOwner(ctx, accts.catalogOwner); err != nil {
			return nil, fmt.Errorf("seed catalog owner: %w", err)
		}
		ms := marketplaceStore.NewPostgres(db)
		if err := ms.Init(ctx, accts.operator, accts.marketplace); err != nil {
			return nil, fmt.Errorf("init marketplace state: %w", err)
		}
		outbox = auditpostgres.New(db)

		in.backend = "postgres"
		in.catalogStore = cs
		in.stateStore = ms
		in.ledger = ledger.NewPostgres(db)
		auditStore = outbox
	} else {
		in.backend = "memory"
		in.catalogStore = catalogStore.NewInMemory(accts.catalogOwner)
		in.stateStore = marketplaceStore.NewInMemory(accts.operator, accts.marketplace)
		in.ledger = ledger.NewMemory()
		auditStore = auditmemory.NewInMemoryStore()
		if redisClient != nil {
			in.backend = "memory+redis"
			in.ledger = ledger.NewRedis(redisClient.Client)
		}
	}

	pubOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(auditBufferSize),
	}

	if cfg.NATS.URL != "" {
		nc, err := natssink.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = nc.Drain() })
		pubOpts = append(pubOpts, publisher.WithSink(natssink.NewSink(nc, cfg.NATS.Subject)))
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		in.closers = append(in.closers, producer.Close)
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, topicPartitions, topicReplication); err != nil {
			return nil, err
		}
		sink := kafkasink.NewSink(producer, cfg.Kafka.Topic)
		if outbox != nil {
			in.relay = worker.NewRelay(outbox, sink, worker.WithLogger(log))
		} else {
			pubOpts = append(pubOpts, publisher.WithSink(sink))
		}
	}

	in.publisher = publisher.NewPublisher(auditStore, pubOpts...)
	in.closers = append(in.closers, in.publisher.Close)
	return in, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
