package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) InsertEvent(ctx context.Context, event *model.EventDocument) (bool, error) {
	filter := bson.M{
		"doc_type":  event.DocType,
		"timestamp": event.Timestamp,
	}
	update := bson.M{"$setOnInsert": event}
	opts := options.Update().SetUpsert(true)

	res, err := db.mining().UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// another pipeline inserted the same key between our match and insert
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}

	return res.UpsertedCount == 1, nil
}

func (db *Database) UpsertGauge(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error {
	filter := bson.M{"doc_type": metric.Gauge()}
	update := bson.M{
		"$set": bson.M{
			"hashrate":  hashrate,
			"timestamp": observed.UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.mining().UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) UpsertHashrateBucket(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error {
	return db.upsertBucket(ctx, metric, observed, bson.M{"hashrate": hashrate})
}

func (db *Database) UpsertMinersBucket(ctx context.Context, miners int64, observed time.Time) error {
	return db.upsertBucket(ctx, types.DocSidechainMiners, observed, bson.M{"num_miners": miners})
}

// upsertBucket overwrites the value of the bucket covering the observation hour.
func (db *Database) upsertBucket(ctx context.Context, docType types.DocType, observed time.Time, value bson.M) error {
	filter := bson.M{
		"doc_type":  docType,
		"timestamp": BucketHour(observed),
	}
	update := bson.M{"$set": value}
	opts := options.Update().SetUpsert(true)

	_, err := db.mining().UpdateOne(ctx, filter, update, opts)
	return err
}

// BucketHour is the bucket key for an observation time.
func BucketHour(observed time.Time) time.Time {
	return observed.UTC().Truncate(time.Hour)
}

func (db *Database) SetSharePosition(ctx context.Context, position string, observed time.Time) error {
	filter := bson.M{"doc_type": types.DocSharePosition}
	update := bson.M{
		"$set": bson.M{
			"position":  position,
			"timestamp": observed.UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.mining().UpdateOne(ctx, filter, update, opts)
	return err
}

// CreditWallet increments the balance and records the payment time in one
// single-document update, so a payment is counted at most once however often
// it is seen.
func (db *Database) CreditWallet(ctx context.Context, paidAt time.Time, amount decimal.Decimal) (bool, error) {
	inc, err := primitive.ParseDecimal128(amount.String())
	if err != nil {
		return false, fmt.Errorf("invalid wallet amount %s: %w", amount, err)
	}

	paidAt = paidAt.UTC()
	filter := bson.M{
		"doc_type": types.DocWalletBalance,
		"credited": bson.M{"$ne": paidAt},
	}
	update := bson.M{
		"$inc":  bson.M{"balance": inc},
		"$push": bson.M{"credited": paidAt},
	}

	res, err := db.mining().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// the wallet exists already: either it lists this payment or it was
		// created concurrently by another pipeline
		res, err = db.mining().UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return false, err
	}

	return res.ModifiedCount+res.UpsertedCount == 1, nil
}

func (db *Database) UpsertWorker(ctx context.Context, workerName string, hashrate int64, observed time.Time) error {
	filter := bson.M{
		"doc_type":    types.DocWorker,
		"worker_name": workerName,
	}
	update := bson.M{
		"$set": bson.M{
			"hashrate":  hashrate,
			"timestamp": observed.UTC(),
			"active":    true,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.mining().UpdateOne(ctx, filter, update, opts)
	return err
}

// GetWalletBalance returns zero when no payment was ever recorded.
func (db *Database) GetWalletBalance(ctx context.Context) (decimal.Decimal, error) {
	var doc model.WalletBalanceDocument
	err := db.mining().FindOne(ctx, bson.M{"doc_type": types.DocWalletBalance}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(doc.Balance.String())
}

func (db *Database) GetGauge(ctx context.Context, metric types.DocType) (*model.GaugeDocument, error) {
	return db.findGauge(ctx, bson.M{"doc_type": metric.Gauge()})
}

func (db *Database) GetBucket(ctx context.Context, docType types.DocType, observed time.Time) (*model.GaugeDocument, error) {
	return db.findGauge(ctx, bson.M{
		"doc_type":  docType,
		"timestamp": BucketHour(observed),
	})
}

func (db *Database) findGauge(ctx context.Context, filter bson.M) (*model.GaugeDocument, error) {
	var doc model.GaugeDocument
	err := db.mining().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{
			Key:     fmt.Sprint(filter["doc_type"]),
			Message: "gauge not found",
		}
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (db *Database) GetSharePosition(ctx context.Context) (*model.SharePositionDocument, error) {
	var doc model.SharePositionDocument
	err := db.mining().FindOne(ctx, bson.M{"doc_type": types.DocSharePosition}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{
			Key:     types.DocSharePosition.String(),
			Message: "share position not found",
		}
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (db *Database) GetWorker(ctx context.Context, workerName string) (*model.WorkerDocument, error) {
	var doc model.WorkerDocument
	filter := bson.M{"doc_type": types.DocWorker, "worker_name": workerName}
	err := db.mining().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{
			Key:     workerName,
			Message: "worker not found",
		}
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindEvents returns the discrete events of one type ordered by timestamp.
func (db *Database) FindEvents(ctx context.Context, docType types.DocType) ([]model.EventDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := db.mining().Find(ctx, bson.M{"doc_type": docType}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []model.EventDocument
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
