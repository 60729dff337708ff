package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/db4e/db4e-supervisor/internal/db"
	"github.com/db4e/db4e-supervisor/internal/db/model"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
)

type eventKey struct {
	docType   types.DocType
	timestamp time.Time
}

type bucketKey struct {
	docType types.DocType
	hour    time.Time
}

// memStore mirrors the mongo semantics of db.MiningStore in memory.
type memStore struct {
	mu            sync.Mutex
	events        map[eventKey]model.EventDocument
	gauges        map[types.DocType]string
	buckets       map[bucketKey]string
	miners        map[bucketKey]int64
	sharePosition string
	wallet        decimal.Decimal
	credited      map[time.Time]bool
	workers       map[string]int64

	// walletFailures makes the next n CreditWallet calls fail
	walletFailures int
	// insertFailures makes the next n InsertEvent calls fail
	insertFailures int
}

var errStoreUnavailable = errors.New("store unavailable")

var _ db.MiningStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		events:   map[eventKey]model.EventDocument{},
		gauges:   map[types.DocType]string{},
		buckets:  map[bucketKey]string{},
		miners:   map[bucketKey]int64{},
		wallet:   decimal.Zero,
		credited: map[time.Time]bool{},
		workers:  map[string]int64{},
	}
}

func (m *memStore) InsertEvent(_ context.Context, event *model.EventDocument) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertFailures > 0 {
		m.insertFailures--
		return false, errStoreUnavailable
	}

	key := eventKey{event.DocType, event.Timestamp}
	if _, ok := m.events[key]; ok {
		return false, nil
	}
	m.events[key] = *event
	return true, nil
}

func (m *memStore) UpsertGauge(_ context.Context, metric types.DocType, hashrate string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metric.Gauge()] = hashrate
	return nil
}

func (m *memStore) UpsertHashrateBucket(_ context.Context, metric types.DocType, hashrate string, observed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucketKey{metric, db.BucketHour(observed)}] = hashrate
	return nil
}

func (m *memStore) UpsertMinersBucket(_ context.Context, miners int64, observed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.miners[bucketKey{types.DocSidechainMiners, db.BucketHour(observed)}] = miners
	return nil
}

func (m *memStore) SetSharePosition(_ context.Context, position string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sharePosition = position
	return nil
}

func (m *memStore) CreditWallet(_ context.Context, paidAt time.Time, amount decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.walletFailures > 0 {
		m.walletFailures--
		return false, errStoreUnavailable
	}
	if m.credited[paidAt] {
		return false, nil
	}
	m.credited[paidAt] = true
	m.wallet = m.wallet.Add(amount)
	return true, nil
}

func (m *memStore) failWallet(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.walletFailures = n
}

func (m *memStore) failInserts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertFailures = n
}

func (m *memStore) balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallet
}

func (m *memStore) UpsertWorker(_ context.Context, workerName string, hashrate int64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[workerName] = hashrate
	return nil
}

func (m *memStore) eventCount(docType types.DocType) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.events {
		if key.docType == docType {
			n++
		}
	}
	return n
}

func (m *memStore) snapshot() map[eventKey]model.EventDocument {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[eventKey]model.EventDocument, len(m.events))
	for k, v := range m.events {
		out[k] = v
	}
	return out
}
