//go:build integration

package db_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/db4e/db4e-supervisor/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func fakeDeployment(c types.Component) *model.DeploymentDocument {
	return &model.DeploymentDocument{
		Component: c,
		Instance:  gofakeit.LetterN(8),
		Enable:    gofakeit.Bool(),
		Status:    types.StatusStopped,
		Version:   gofakeit.AppVersion(),
		Config:    "/opt/db4e/" + gofakeit.LetterN(6) + ".ini",
	}
}

func TestDeployments(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	pool := fakeDeployment(types.ComponentPool)
	poolID, err := testDB.SaveNewDeployment(ctx, pool)
	require.NoError(t, err)

	miner := fakeDeployment(types.ComponentMiner)
	miner.P2PoolID = &poolID
	minerID, err := testDB.SaveNewDeployment(ctx, miner)
	require.NoError(t, err)

	t.Run("duplicate instance", func(t *testing.T) {
		dup := fakeDeployment(types.ComponentPool)
		dup.Instance = pool.Instance
		_, err := testDB.SaveNewDeployment(ctx, dup)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
	t.Run("same instance name under another component", func(t *testing.T) {
		node := fakeDeployment(types.ComponentNode)
		node.Instance = pool.Instance
		_, err := testDB.SaveNewDeployment(ctx, node)
		require.NoError(t, err)
	})
	t.Run("get", func(t *testing.T) {
		got, err := testDB.GetDeployment(ctx, types.ComponentPool, pool.Instance)
		require.NoError(t, err)
		assert.Equal(t, poolID, got.ID)
		assert.Equal(t, pool.Version, got.Version)
		assert.Equal(t, model.DeploymentDocType, got.DocType)

		got, err = testDB.GetDeploymentByID(ctx, minerID)
		require.NoError(t, err)
		require.NotNil(t, got.P2PoolID)
		assert.Equal(t, poolID, *got.P2PoolID)
	})
	t.Run("get missing", func(t *testing.T) {
		_, err := testDB.GetDeployment(ctx, types.ComponentMiner, "absent")
		assert.True(t, db.IsNotFoundError(err))

		_, err = testDB.GetDeploymentByID(ctx, primitive.NewObjectID())
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("list by component", func(t *testing.T) {
		pools, err := testDB.ListDeployments(ctx, types.ComponentPool)
		require.NoError(t, err)
		require.Len(t, pools, 1)
		assert.Equal(t, pool.Instance, pools[0].Instance)

		cores, err := testDB.ListDeployments(ctx, types.ComponentCore)
		require.NoError(t, err)
		assert.Empty(t, cores)
	})
	t.Run("update only touches given fields", func(t *testing.T) {
		err := testDB.UpdateDeployment(ctx, minerID, db.DeploymentUpdate{
			Op:     pkg.Ptr(types.OpNone),
			Enable: pkg.Ptr(true),
		})
		require.NoError(t, err)

		got, err := testDB.GetDeploymentByID(ctx, minerID)
		require.NoError(t, err)
		assert.True(t, got.Enable)
		assert.Equal(t, types.OpNone, got.Op)
		assert.Equal(t, types.StatusStopped, got.Status)
		assert.Equal(t, miner.Config, got.Config)

		err = testDB.UpdateDeployment(ctx, minerID, db.DeploymentUpdate{Status: pkg.Ptr(types.StatusRunning)})
		require.NoError(t, err)
		got, err = testDB.GetDeploymentByID(ctx, minerID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusRunning, got.Status)
		assert.True(t, got.Enable)
	})
	t.Run("update missing", func(t *testing.T) {
		err := testDB.UpdateDeployment(ctx, primitive.NewObjectID(), db.DeploymentUpdate{Enable: pkg.Ptr(false)})
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("delete", func(t *testing.T) {
		require.NoError(t, testDB.DeleteDeployment(ctx, minerID))

		_, err := testDB.GetDeploymentByID(ctx, minerID)
		assert.True(t, db.IsNotFoundError(err))

		err = testDB.DeleteDeployment(ctx, minerID)
		assert.True(t, db.IsNotFoundError(err))
	})
}

func TestDeployments_TemplatesShareCollection(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	client, err := mongo.Connect(ctx, model.ClientOptions(testConfig))
	require.NoError(t, err)
	defer client.Disconnect(ctx)
	collection := client.Database(testConfig.DbName).Collection(testConfig.DeploymentCollection)

	core := &model.DeploymentDocument{Component: types.ComponentCore, Status: types.StatusRunning}
	_, err = testDB.SaveNewDeployment(ctx, core)
	require.NoError(t, err)

	// templates carry the same component and instance keys as records
	for i := 0; i < 2; i++ {
		_, err = collection.InsertOne(ctx, bson.M{
			"doc_type":  "template",
			"component": types.ComponentCore,
			"instance":  "",
		})
		require.NoError(t, err)
	}

	records, err := testDB.ListDeployments(ctx, types.ComponentCore)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
