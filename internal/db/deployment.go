package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DeploymentUpdate lists the record fields the supervisor may write. Nil
// fields are left untouched.
type DeploymentUpdate struct {
	Op     *types.Op
	Enable *bool
	Status *types.DeploymentStatus
}

func (u DeploymentUpdate) toBson(now time.Time) bson.M {
	set := bson.M{"updated": now.UTC()}
	if u.Op != nil {
		set["op"] = *u.Op
	}
	if u.Enable != nil {
		set["enable"] = *u.Enable
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	return set
}

func (db *Database) SaveNewDeployment(ctx context.Context, doc *model.DeploymentDocument) (primitive.ObjectID, error) {
	doc.DocType = model.DeploymentDocType
	if doc.Updated.IsZero() {
		doc.Updated = time.Now().UTC()
	}

	res, err := db.deployments().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, &DuplicateKeyError{
				Key:     doc.Key(),
				Message: "deployment already exists",
			}
		}
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (db *Database) GetDeployment(ctx context.Context, component types.Component, instance string) (*model.DeploymentDocument, error) {
	filter := bson.M{
		"doc_type":  model.DeploymentDocType,
		"component": component,
		"instance":  instance,
	}
	return db.findDeployment(ctx, filter, component.String()+"/"+instance)
}

func (db *Database) GetDeploymentByID(ctx context.Context, id primitive.ObjectID) (*model.DeploymentDocument, error) {
	return db.findDeployment(ctx, bson.M{"_id": id}, id.Hex())
}

func (db *Database) findDeployment(ctx context.Context, filter bson.M, key string) (*model.DeploymentDocument, error) {
	var doc model.DeploymentDocument
	err := db.deployments().FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     key,
				Message: "deployment not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) ListDeployments(ctx context.Context, component types.Component) ([]model.DeploymentDocument, error) {
	filter := bson.M{
		"doc_type":  model.DeploymentDocType,
		"component": component,
	}
	cursor, err := db.deployments().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deployments []model.DeploymentDocument
	if err := cursor.All(ctx, &deployments); err != nil {
		return nil, err
	}

	return deployments, nil
}

func (db *Database) UpdateDeployment(ctx context.Context, id primitive.ObjectID, update DeploymentUpdate) error {
	res, err := db.deployments().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update.toBson(time.Now())})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id.Hex(),
			Message: "deployment not found",
		}
	}

	return nil
}

func (db *Database) DeleteDeployment(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.deployments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete deployment %s: %w", id.Hex(), err)
	}

	if res.DeletedCount == 0 {
		return &NotFoundError{
			Key:     id.Hex(),
			Message: "deployment not found",
		}
	}

	return nil
}
