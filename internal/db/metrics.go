package db

import (
	"context"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) InsertEvent(ctx context.Context, event *model.EventDocument) (inserted bool, err error) {
	//nolint:errcheck
	d.run("InsertEvent", func() error {
		inserted, err = d.db.InsertEvent(ctx, event)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertGauge(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error {
	return d.run("UpsertGauge", func() error {
		return d.db.UpsertGauge(ctx, metric, hashrate, observed)
	})
}

func (d *DbWithMetrics) UpsertHashrateBucket(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error {
	return d.run("UpsertHashrateBucket", func() error {
		return d.db.UpsertHashrateBucket(ctx, metric, hashrate, observed)
	})
}

func (d *DbWithMetrics) UpsertMinersBucket(ctx context.Context, miners int64, observed time.Time) error {
	return d.run("UpsertMinersBucket", func() error {
		return d.db.UpsertMinersBucket(ctx, miners, observed)
	})
}

func (d *DbWithMetrics) SetSharePosition(ctx context.Context, position string, observed time.Time) error {
	return d.run("SetSharePosition", func() error {
		return d.db.SetSharePosition(ctx, position, observed)
	})
}

func (d *DbWithMetrics) CreditWallet(ctx context.Context, paidAt time.Time, amount decimal.Decimal) (credited bool, err error) {
	//nolint:errcheck
	d.run("CreditWallet", func() error {
		credited, err = d.db.CreditWallet(ctx, paidAt, amount)
		return err
	})
	return
}

func (d *DbWithMetrics) UpsertWorker(ctx context.Context, workerName string, hashrate int64, observed time.Time) error {
	return d.run("UpsertWorker", func() error {
		return d.db.UpsertWorker(ctx, workerName, hashrate, observed)
	})
}

func (d *DbWithMetrics) GetDeployment(ctx context.Context, component types.Component, instance string) (result *model.DeploymentDocument, err error) {
	//nolint:errcheck
	d.run("GetDeployment", func() error {
		result, err = d.db.GetDeployment(ctx, component, instance)
		return err
	})
	return
}

func (d *DbWithMetrics) GetDeploymentByID(ctx context.Context, id primitive.ObjectID) (result *model.DeploymentDocument, err error) {
	//nolint:errcheck
	d.run("GetDeploymentByID", func() error {
		result, err = d.db.GetDeploymentByID(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) ListDeployments(ctx context.Context, component types.Component) (result []model.DeploymentDocument, err error) {
	//nolint:errcheck
	d.run("ListDeployments", func() error {
		result, err = d.db.ListDeployments(ctx, component)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateDeployment(ctx context.Context, id primitive.ObjectID, update DeploymentUpdate) error {
	return d.run("UpdateDeployment", func() error {
		return d.db.UpdateDeployment(ctx, id, update)
	})
}

func (d *DbWithMetrics) DeleteDeployment(ctx context.Context, id primitive.ObjectID) error {
	return d.run("DeleteDeployment", func() error {
		return d.db.DeleteDeployment(ctx, id)
	})
}

// run records latency of f under method label. Not found errors are
// expected outcomes and are not counted as failures.
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	failure := err != nil && !IsNotFoundError(err)
	metrics.RecordDbLatency(duration, method, failure)
	return err
}
