package model

import (
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventDocument is an immutable point-in-time occurrence parsed from a pool
// log. Only the fields relevant to its doc_type are set.
type EventDocument struct {
	DocType   types.DocType         `bson:"doc_type"`
	Timestamp time.Time             `bson:"timestamp"`
	Worker    string                `bson:"worker,omitempty"`
	IPAddr    string                `bson:"ip_addr,omitempty"`
	Effort    *float64              `bson:"effort,omitempty"`
	Payment   *primitive.Decimal128 `bson:"payment,omitempty"`
}

// GaugeDocument holds the latest value of a realtime metric (rt_*) or an
// hourly bucket. Hashrates are kept verbatim with their unit suffix.
type GaugeDocument struct {
	DocType   types.DocType `bson:"doc_type"`
	Timestamp time.Time     `bson:"timestamp"`
	Hashrate  string        `bson:"hashrate,omitempty"`
	NumMiners *int64        `bson:"num_miners,omitempty"`
}

type SharePositionDocument struct {
	DocType   types.DocType `bson:"doc_type"`
	Position  string        `bson:"position"`
	Timestamp time.Time     `bson:"timestamp"`
}

// WalletBalanceDocument lists the timestamps of every payment included in
// the balance.
type WalletBalanceDocument struct {
	DocType  types.DocType        `bson:"doc_type"`
	Balance  primitive.Decimal128 `bson:"balance"`
	Credited []time.Time          `bson:"credited"`
}

// WorkerDocument hashrate is normalized to H/s, unlike gauges.
type WorkerDocument struct {
	DocType    types.DocType `bson:"doc_type"`
	WorkerName string        `bson:"worker_name"`
	Hashrate   int64         `bson:"hashrate"`
	Timestamp  time.Time     `bson:"timestamp"`
	Active     bool          `bson:"active"`
}
