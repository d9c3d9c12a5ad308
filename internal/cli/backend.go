package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizhub-service/internal/app"
	"quizhub-service/internal/config"
	"quizhub-service/internal/infra/memory"
	mongostore "quizhub-service/internal/infra/mongo"
	pgstore "quizhub-service/internal/infra/postgres"
	redisinfra "quizhub-service/internal/infra/redis"
)

// backend holds the persistence and cache adapters selected by config.
type backend struct {
	store      app.Store
	answerKeys app.AnswerKeyRepository
	feeds      app.FeedRepository
	tokens     app.TokenStore
	closers    []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend picks Postgres when a URL is configured, else Mongo, else the
// in-memory store. Redis, when configured, backs caches and tokens.
func openBackend(ctx context.Context, cfg config.Config, log *logrus.Logger) (*backend, error) {
	b := &backend{}
	var loader app.AnswerKeyLoader

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		db := openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres pool: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		b.store = pgstore.NewStore(db)
		loader = pgstore.NewAnswerKeyLoader(pool)
		log.Info("using postgres store")

	case cfg.Mongo.URI != "":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		if err := client.Ping(ctx, nil); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping mongo: %w", err)
		}

		store := mongostore.NewStore(client, cfg.Mongo.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.store = store
		loader = memory.NewStoreLoader(store)
		log.WithField("database", cfg.Mongo.Database).Info("using mongo store")

	default:
		store := memory.NewStore()
		b.store = store
		loader = memory.NewStoreLoader(store)
		log.Warn("no database configured, using in-memory store")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		b.answerKeys = redisinfra.NewAnswerKeyCache(client, loader, quizTTL)
		b.feeds = redisinfra.NewFeedRegistry(client)
		b.tokens = redisinfra.NewTokenStore(client)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis caches")
	} else {
		b.answerKeys = memory.NewAnswerKeyCache(loader, quizTTL)
		b.feeds = memory.NewFeedRegistry()
		b.tokens = memory.NewTokenStore()
	}
	return b, nil
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}
