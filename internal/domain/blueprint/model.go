package blueprint

import "time"

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the editable payload of a node.
type NodeData struct {
	Label  string                 `json:"label" yaml:"label"`
	Config map[string]interface{} `json:"config" yaml:"config"`
}

// Node is one instance of a registry type placed on the canvas.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Blueprint is the whole graph of a project.
type Blueprint struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Nodes     []Node    `json:"nodes" yaml:"nodes"`
	Edges     []Edge    `json:"edges" yaml:"edges"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// State is what the store holds: the blueprint plus the node shown in the
// config panel. Selected is a weak reference and may dangle.
type State struct {
	Blueprint Blueprint `json:"blueprint"`
	Selected  string    `json:"selectedNodeId,omitempty"`
}

// DefaultName is used for blueprints created without one.
const DefaultName = "Untitled Blueprint"

// NodeByID returns the last node with id. Duplicate ids are tolerated and
// the most recently added one wins.
func (b Blueprint) NodeByID(id string) (Node, bool) {
	if i := b.lastIndex(id); i >= 0 {
		return b.Nodes[i], true
	}
	return Node{}, false
}

// HasNode reports whether any node carries id.
func (b Blueprint) HasNode(id string) bool {
	return b.lastIndex(id) >= 0
}

func (b Blueprint) lastIndex(id string) int {
	for i := len(b.Nodes) - 1; i >= 0; i-- {
		if b.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy sharing no slices or maps with b.
func (b Blueprint) Clone() Blueprint {
	out := b
	out.Nodes = make([]Node, len(b.Nodes))
	for i, n := range b.Nodes {
		out.Nodes[i] = n.Clone()
	}
	out.Edges = append(make([]Edge, 0, len(b.Edges)), b.Edges...)
	return out
}

// Clone returns a deep copy of the node, including its config.
func (n Node) Clone() Node {
	out := n
	out.Data.Config = CloneConfig(n.Data.Config)
	return out
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{Blueprint: s.Blueprint.Clone(), Selected: s.Selected}
}

// CloneConfig deep-copies a JSON-like config map. A nil map becomes an empty
// one so merges never hit a nil map.
func CloneConfig(c map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return CloneConfig(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
