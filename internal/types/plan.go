package types

import "fmt"

// PlanNode is one (name, version) pair in an install session. Nodes live
// in the Plan's flat slice; Deps and Dependents are indexes into that
// slice, never pointers.
type PlanNode struct {
	Name    string
	Version string
	Entry   VersionEntry
	State   NodeState

	Deps       []int
	Dependents []int
}

// ID renders the node identity as name@version.
func (n PlanNode) ID() string {
	return fmt.Sprintf("%s@%s", n.Name, n.Version)
}

// Plan is a topologically ordered sequence of nodes: every dependency
// precedes its dependents. Plans are session-scoped and never persisted.
type Plan struct {
	Nodes []PlanNode
}

// Names returns node identities in plan order.
func (p Plan) Names() []string {
	out := make([]string, 0, len(p.Nodes))
	for _, node := range p.Nodes {
		out = append(out, node.Name)
	}
	return out
}

// IndexOf returns the position of the named package, or -1.
func (p Plan) IndexOf(name string) int {
	for i, node := range p.Nodes {
		if node.Name == name {
			return i
		}
	}
	return -1
}
