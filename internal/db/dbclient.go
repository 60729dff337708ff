package db

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Database struct {
	dbName               string
	miningCollection     string
	deploymentCollection string
	client               *mongo.Client
}

// New connects to mongo and pings it, retrying with backoff up to
// cfg.ConnectMaxRetries times. Exhausting the budget is fatal for callers.
func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	client, err := retry.DoWithData(
		func() (*mongo.Client, error) {
			client, err := mongo.Connect(ctx, model.ClientOptions(&cfg))
			if err != nil {
				return nil, err
			}
			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
			return client, nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectMaxRetries),
		retry.Delay(cfg.ConnectRetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("mongo is unreachable, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo at %s: %w", cfg.Address, err)
	}

	return &Database{
		dbName:               cfg.DbName,
		miningCollection:     cfg.MiningCollection,
		deploymentCollection: cfg.DeploymentCollection,
		client:               client,
	}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}

func (db *Database) mining() *mongo.Collection {
	return db.collection(db.miningCollection)
}

func (db *Database) deployments() *mongo.Collection {
	return db.collection(db.deploymentCollection)
}
