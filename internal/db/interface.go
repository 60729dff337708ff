package db

import (
	"context"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockery --name=DbInterface --output=../../tests/mocks --outpkg=mocks --filename=mock_db_client.go
type DbInterface interface {
	Ping(ctx context.Context) error
	MiningStore
	DeploymentStore
}

// MiningStore persists everything derived from pool logs. Every write is a
// single-document atomic operation.
type MiningStore interface {
	// InsertEvent stores a discrete event unless one with the same
	// (doc_type, timestamp) exists. inserted is false for duplicates.
	InsertEvent(ctx context.Context, event *model.EventDocument) (inserted bool, err error)
	UpsertGauge(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error
	UpsertHashrateBucket(ctx context.Context, metric types.DocType, hashrate string, observed time.Time) error
	UpsertMinersBucket(ctx context.Context, miners int64, observed time.Time) error
	SetSharePosition(ctx context.Context, position string, observed time.Time) error
	// CreditWallet adds amount to the wallet balance unless the payment
	// made at paidAt was already credited. credited is false for repeats.
	CreditWallet(ctx context.Context, paidAt time.Time, amount decimal.Decimal) (credited bool, err error)
	UpsertWorker(ctx context.Context, workerName string, hashrate int64, observed time.Time) error
}

type DeploymentStore interface {
	GetDeployment(ctx context.Context, component types.Component, instance string) (*model.DeploymentDocument, error)
	GetDeploymentByID(ctx context.Context, id primitive.ObjectID) (*model.DeploymentDocument, error)
	ListDeployments(ctx context.Context, component types.Component) ([]model.DeploymentDocument, error)
	UpdateDeployment(ctx context.Context, id primitive.ObjectID, update DeploymentUpdate) error
	DeleteDeployment(ctx context.Context, id primitive.ObjectID) error
}
