package types

import "fmt"

// DeploymentStatus is the last observed or attempted state of a deployment
type DeploymentStatus string

const (
	StatusRunning      DeploymentStatus = "running"
	StatusStopped      DeploymentStatus = "stopped"
	StatusNotInstalled DeploymentStatus = "not_installed"
)

func (s DeploymentStatus) String() string {
	return string(s)
}

// Op is a pending command on a deployment record, cleared once applied.
type Op string

const (
	OpNone    Op = ""
	OpEnable  Op = "enable"
	OpDisable Op = "disable"
	OpDelete  Op = "delete"

	// records written by older tooling spell the empty op out
	opNoneLiteral Op = "none"
)

func (o Op) String() string {
	return string(o)
}

func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case opNoneLiteral:
		return OpNone, nil
	case OpNone, OpEnable, OpDisable, OpDelete:
		return Op(s), nil
	default:
		return OpNone, fmt.Errorf("invalid op: %s", s)
	}
}
