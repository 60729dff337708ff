package types

// DocType is the doc_type discriminator of documents in the mining collection.
type DocType string

func (d DocType) String() string {
	return string(d)
}

// Discrete events, recorded once per (doc_type, timestamp).
const (
	DocBlockFound DocType = "block_found"
	DocShareFound DocType = "share_found"
	DocXmrPayment DocType = "xmr_payment"
)

// Hourly buckets, one per (doc_type, hour).
const (
	DocMainchainHashrate DocType = "mainchain_hashrate"
	DocSidechainHashrate DocType = "sidechain_hashrate"
	DocPoolHashrate      DocType = "pool_hashrate"
	DocSidechainMiners   DocType = "sidechain_miners"
)

// Singletons.
const (
	DocSharePosition DocType = "share_position"
	DocWalletBalance DocType = "wallet_balance"
	DocWorker        DocType = "worker"
)

const gaugePrefix = "rt_"

// Gauge returns the realtime singleton doc_type for a bucket metric,
// e.g. rt_pool_hashrate.
func (d DocType) Gauge() DocType {
	return DocType(gaugePrefix + string(d))
}

func DiscreteDocTypes() []DocType {
	return []DocType{DocBlockFound, DocShareFound, DocXmrPayment}
}

func BucketDocTypes() []DocType {
	return []DocType{DocMainchainHashrate, DocSidechainHashrate, DocPoolHashrate, DocSidechainMiners}
}

// SingletonDocTypes are documents overwritten in place, one per doc_type.
func SingletonDocTypes() []DocType {
	return []DocType{
		DocMainchainHashrate.Gauge(),
		DocSidechainHashrate.Gauge(),
		DocPoolHashrate.Gauge(),
		DocSharePosition,
		DocWalletBalance,
	}
}
