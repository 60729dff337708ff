package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/db4e/db4e-supervisor/internal/config"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type index struct {
	Keys    bson.D
	Unique  bool
	Partial bson.M
	Name    string
}

func docTypeStrings(docTypes []types.DocType) []string {
	out := make([]string, 0, len(docTypes))
	for _, d := range docTypes {
		out = append(out, d.String())
	}
	return out
}

func miningIndexes() []index {
	keyed := append(types.DiscreteDocTypes(), types.BucketDocTypes()...)

	return []index{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}, Name: "timestamp"},
		{
			// one document per event minute or bucket hour
			Keys:    bson.D{{Key: "doc_type", Value: 1}, {Key: "timestamp", Value: 1}},
			Unique:  true,
			Partial: bson.M{"doc_type": bson.M{"$in": docTypeStrings(keyed)}},
			Name:    "doc_type_timestamp_unique",
		},
		{
			Keys:    bson.D{{Key: "doc_type", Value: 1}},
			Unique:  true,
			Partial: bson.M{"doc_type": bson.M{"$in": docTypeStrings(types.SingletonDocTypes())}},
			Name:    "singleton_unique",
		},
		{
			Keys:    bson.D{{Key: "doc_type", Value: 1}, {Key: "worker_name", Value: 1}},
			Unique:  true,
			Partial: bson.M{"doc_type": types.DocWorker.String()},
			Name:    "worker_unique",
		},
	}
}

func deploymentIndexes() []index {
	return []index{
		{
			// the collection also holds templates keyed the same way
			Keys:    bson.D{{Key: "component", Value: 1}, {Key: "instance", Value: 1}},
			Unique:  true,
			Partial: bson.M{"doc_type": DeploymentDocType},
			Name:    "component_instance_unique",
		},
	}
}

// Setup creates the collections and indexes the supervisor relies on.
// It is safe to run on every start.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	client, err := mongo.Connect(ctx, ClientOptions(cfg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("failed to disconnect setup client")
		}
	}()

	database := client.Database(cfg.DbName)

	collections := map[string][]index{
		cfg.MiningCollection:     miningIndexes(),
		cfg.DeploymentCollection: deploymentIndexes(),
	}
	for name, indexes := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		for _, idx := range indexes {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and indexes created successfully")
	return nil
}

// ClientOptions builds mongo client options from the db config. Auth is
// only attached when a username is configured.
func ClientOptions(cfg *config.DbConfig) *options.ClientOptions {
	opts := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	return opts
}

// namespaceExistsCode is returned by mongo when the collection already exists
const namespaceExistsCode = 48

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	err := database.CreateCollection(ctx, collectionName)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
		return nil
	}
	return err
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	opts := options.Index().SetUnique(idx.Unique).SetName(idx.Name)
	if idx.Partial != nil {
		opts.SetPartialFilterExpression(idx.Partial)
	}

	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: opts,
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, collectionName, err)
	}

	log.Ctx(ctx).Debug().Str("collection", collectionName).Str("index", idx.Name).Msg("index created")
	return nil
}
