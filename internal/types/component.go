package types

import "fmt"

type Component string

const (
	ComponentNode  Component = "node"
	ComponentPool  Component = "pool"
	ComponentMiner Component = "miner"
	ComponentCore  Component = "core"
	ComponentRepo  Component = "repo"
)

func (c Component) String() string {
	return string(c)
}

func ParseComponent(s string) (Component, error) {
	switch Component(s) {
	case ComponentNode, ComponentPool, ComponentMiner, ComponentCore, ComponentRepo:
		return Component(s), nil
	default:
		return "", fmt.Errorf("unknown component: %s", s)
	}
}

func Components() []Component {
	return []Component{ComponentNode, ComponentPool, ComponentMiner, ComponentCore, ComponentRepo}
}
