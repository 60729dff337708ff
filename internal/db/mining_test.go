//go:build integration

package db_test

import (
	"sync"
	"testing"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/db4e/db4e-supervisor/pkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func decimal128(t *testing.T, s string) *primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return &d
}

func TestInsertEvent(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	blockTime := time.Date(2024, 11, 9, 19, 52, 0, 0, time.UTC)
	block := &model.EventDocument{DocType: types.DocBlockFound, Timestamp: blockTime}

	t.Run("first insert is new", func(t *testing.T) {
		inserted, err := testDB.InsertEvent(ctx, block)
		require.NoError(t, err)
		assert.True(t, inserted)
	})
	t.Run("same key is a duplicate", func(t *testing.T) {
		inserted, err := testDB.InsertEvent(ctx, block)
		require.NoError(t, err)
		assert.False(t, inserted)

		events, err := testDB.FindEvents(ctx, types.DocBlockFound)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
	t.Run("other doc type at the same minute is distinct", func(t *testing.T) {
		share := &model.EventDocument{
			DocType:   types.DocShareFound,
			Timestamp: blockTime,
			Worker:    "rig1",
			IPAddr:    "192.168.0.10",
			Effort:    pkg.Ptr(62.78),
		}
		inserted, err := testDB.InsertEvent(ctx, share)
		require.NoError(t, err)
		assert.True(t, inserted)
	})
	t.Run("share dedup ignores worker", func(t *testing.T) {
		share := &model.EventDocument{
			DocType:   types.DocShareFound,
			Timestamp: blockTime,
			Worker:    "rig2",
			IPAddr:    "192.168.0.11",
		}
		inserted, err := testDB.InsertEvent(ctx, share)
		require.NoError(t, err)
		assert.False(t, inserted)

		events, err := testDB.FindEvents(ctx, types.DocShareFound)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "rig1", events[0].Worker)
		require.NotNil(t, events[0].Effort)
		assert.InDelta(t, 62.78, *events[0].Effort, 1e-9)
	})
	t.Run("concurrent inserts of one key store one event", func(t *testing.T) {
		event := &model.EventDocument{
			DocType:   types.DocBlockFound,
			Timestamp: blockTime.Add(time.Hour),
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			newCount int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inserted, err := testDB.InsertEvent(ctx, event)
				assert.NoError(t, err)
				if inserted {
					mu.Lock()
					newCount++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, newCount)
	})
}

func TestWallet(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	balance, err := testDB.GetWalletBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	payments := []struct {
		paidAt time.Time
		amount string
	}{
		{time.Date(2024, 11, 9, 19, 52, 0, 0, time.UTC), "0.000450146392"},
		{time.Date(2024, 11, 10, 7, 12, 0, 0, time.UTC), "0.100144968685"},
	}
	for _, p := range payments {
		credited, err := testDB.CreditWallet(ctx, p.paidAt, decimal.RequireFromString(p.amount))
		require.NoError(t, err)
		assert.True(t, credited)
	}

	// crediting a payment again leaves the balance alone
	for _, p := range payments {
		credited, err := testDB.CreditWallet(ctx, p.paidAt, decimal.RequireFromString(p.amount))
		require.NoError(t, err)
		assert.False(t, credited)
	}

	balance, err = testDB.GetWalletBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.100595115077", balance.String())
}

func TestWallet_ConcurrentCredits(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()
	paidAt := time.Date(2025, 6, 3, 1, 7, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		credited int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := testDB.CreditWallet(ctx, paidAt, decimal.RequireFromString("0.1"))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				credited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credited)
	balance, err := testDB.GetWalletBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.1", balance.String())
}

func TestPaymentEventKeepsExactAmount(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	payment := &model.EventDocument{
		DocType:   types.DocXmrPayment,
		Timestamp: time.Date(2024, 11, 10, 3, 14, 0, 0, time.UTC),
		Payment:   decimal128(t, "0.000450146392"),
	}
	inserted, err := testDB.InsertEvent(ctx, payment)
	require.NoError(t, err)
	require.True(t, inserted)

	events, err := testDB.FindEvents(ctx, types.DocXmrPayment)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Payment)
	assert.Equal(t, "0.000450146392", events[0].Payment.String())
}

func TestGaugesAndBuckets(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()

	first := time.Date(2024, 11, 9, 19, 5, 0, 0, time.UTC)
	second := first.Add(20 * time.Minute)
	nextHour := first.Add(time.Hour)

	require.NoError(t, testDB.UpsertGauge(ctx, types.DocPoolHashrate, "12.3 KH/s", first))
	require.NoError(t, testDB.UpsertHashrateBucket(ctx, types.DocPoolHashrate, "12.3 KH/s", first))
	require.NoError(t, testDB.UpsertGauge(ctx, types.DocPoolHashrate, "14.1 KH/s", second))
	require.NoError(t, testDB.UpsertHashrateBucket(ctx, types.DocPoolHashrate, "14.1 KH/s", second))
	require.NoError(t, testDB.UpsertHashrateBucket(ctx, types.DocPoolHashrate, "9.8 KH/s", nextHour))

	t.Run("gauge keeps the last value", func(t *testing.T) {
		gauge, err := testDB.GetGauge(ctx, types.DocPoolHashrate)
		require.NoError(t, err)
		assert.Equal(t, "14.1 KH/s", gauge.Hashrate)
		assert.Equal(t, second, gauge.Timestamp.UTC())
	})
	t.Run("bucket keeps the last value of its hour", func(t *testing.T) {
		bucket, err := testDB.GetBucket(ctx, types.DocPoolHashrate, first)
		require.NoError(t, err)
		assert.Equal(t, "14.1 KH/s", bucket.Hashrate)

		bucket, err = testDB.GetBucket(ctx, types.DocPoolHashrate, nextHour)
		require.NoError(t, err)
		assert.Equal(t, "9.8 KH/s", bucket.Hashrate)
	})
	t.Run("miners bucket", func(t *testing.T) {
		require.NoError(t, testDB.UpsertMinersBucket(ctx, 41, first))
		require.NoError(t, testDB.UpsertMinersBucket(ctx, 43, second))

		bucket, err := testDB.GetBucket(ctx, types.DocSidechainMiners, first)
		require.NoError(t, err)
		require.NotNil(t, bucket.NumMiners)
		assert.Equal(t, int64(43), *bucket.NumMiners)
	})
	t.Run("missing gauge", func(t *testing.T) {
		_, err := testDB.GetGauge(ctx, types.DocMainchainHashrate)
		require.Error(t, err)
	})
}

func TestSharePositionAndWorkers(t *testing.T) {
	t.Cleanup(func() {
		resetDatabase(t)
	})
	ctx := t.Context()
	now := time.Date(2024, 11, 9, 20, 0, 0, 0, time.UTC)

	require.NoError(t, testDB.SetSharePosition(ctx, "[.....1...2]", now))
	require.NoError(t, testDB.SetSharePosition(ctx, "[...........]", now.Add(time.Minute)))

	pos, err := testDB.GetSharePosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[...........]", pos.Position)

	require.NoError(t, testDB.UpsertWorker(ctx, "rig1", 3210, now))
	require.NoError(t, testDB.UpsertWorker(ctx, "rig1", 4020, now.Add(time.Minute)))
	require.NoError(t, testDB.UpsertWorker(ctx, "rig2", 1500, now))

	worker, err := testDB.GetWorker(ctx, "rig1")
	require.NoError(t, err)
	assert.Equal(t, int64(4020), worker.Hashrate)
	assert.True(t, worker.Active)

	worker, err = testDB.GetWorker(ctx, "rig2")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), worker.Hashrate)
}
