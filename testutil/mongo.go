package testutil

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	mongoUsername = "user"
	mongoPassword = "password"
	mongoDatabase = "test-database"

	// this version corresponds to docker tag for mongodb
	// it should be in sync with mongo version used in production
	mongoVersion = "7.0.5"
)

// SetupMongoContainer starts a mongodb container and waits until it accepts
// connections. The returned cleanup function MUST be called in the end to
// remove docker resources.
func SetupMongoContainer() (*config.DbConfig, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, err
	}

	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	randomString, err := RandomAlphaNum(3)
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       "db4e-mongo-tests-" + randomString,
		Repository: "mongo",
		Tag:        mongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + mongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + mongoPassword,
			"MONGO_INITDB_DATABASE=" + mongoDatabase,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("failed to purge resource: %v", err)
		}
	}

	// get host port (randomly chosen) that is mapped to mongo port inside container
	cfg := &config.DbConfig{
		Username:             mongoUsername,
		Password:             mongoPassword,
		DbName:               mongoDatabase,
		Address:              fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")),
		MiningCollection:     "mining",
		DeploymentCollection: "depl",
		ConnectMaxRetries:    5,
		ConnectRetryInterval: 500 * time.Millisecond,
	}

	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, model.ClientOptions(cfg))
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)
		return client.Ping(ctx, nil)
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("mongo did not become ready: %w", err)
	}

	return cfg, cleanup, nil
}

// ResetCollections removes every document from the given collections.
func ResetCollections(ctx context.Context, cfg *config.DbConfig, collections ...string) error {
	client, err := mongo.Connect(ctx, model.ClientOptions(cfg))
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	for _, name := range collections {
		if _, err := client.Database(cfg.DbName).Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to reset %s: %w", name, err)
		}
	}
	return nil
}
