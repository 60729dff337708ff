package model

import (
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DeploymentDocType = "deployment"

// DeploymentDocument is the desired and last observed state of one
// component instance. Records are created by the setup tooling, the
// supervisor only writes status, op, enable and updated.
type DeploymentDocument struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty"`
	DocType   string                 `bson:"doc_type"`
	Component types.Component        `bson:"component"`
	Instance  string                 `bson:"instance"`
	Remote    bool                   `bson:"remote"`
	Enable    bool                   `bson:"enable"`
	Op        types.Op               `bson:"op"`
	Status    types.DeploymentStatus `bson:"status"`
	// upstream references, pool -> node and miner -> pool
	MonerodID *primitive.ObjectID `bson:"monerod_id,omitempty"`
	P2PoolID  *primitive.ObjectID `bson:"p2pool_id,omitempty"`
	Version   string              `bson:"version"`
	Config    string              `bson:"config"`
	Stdin     string              `bson:"stdin,omitempty"`
	LogFile   string              `bson:"log_file,omitempty"`
	Updated   time.Time           `bson:"updated"`
}

// Key identifies a deployment for logging and pipeline bookkeeping.
func (d *DeploymentDocument) Key() string {
	if d.Instance == "" {
		return d.Component.String()
	}
	return d.Component.String() + "/" + d.Instance
}
