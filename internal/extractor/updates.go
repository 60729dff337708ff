package extractor

import (
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
)

// Update is a typed change derived from one log line. The set of
// implementations is closed.
type Update interface {
	update()
}

// DiscreteEvent is a share, block or payout recorded once per
// (DocType, Timestamp). Timestamp has minute resolution.
type DiscreteEvent struct {
	DocType   types.DocType
	Timestamp time.Time
	Worker    string
	IPAddr    string
	Effort    float64
	Payment   decimal.Decimal
}

// Hashrate overwrites both the realtime gauge and the current hour bucket
// of Metric. Value keeps the daemon's unit suffix, e.g. "3.105 GH/s".
type Hashrate struct {
	Metric   types.DocType
	Value    string
	Observed time.Time
}

// SidechainMinersRefresh asks the sink to read the sidechain miner count
// from the pool's API directory.
type SidechainMinersRefresh struct {
	Observed time.Time
}

type SharePosition struct {
	Position string
	Observed time.Time
}

// WorkerStat hashrate is normalized to H/s.
type WorkerStat struct {
	Worker   string
	IPAddr   string
	Hashrate int64
	Observed time.Time
}

func (DiscreteEvent) update()        {}
func (Hashrate) update()             {}
func (SidechainMinersRefresh) update() {}
func (SharePosition) update()        {}
func (WorkerStat) update()           {}
