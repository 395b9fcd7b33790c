package blueprint

import (
	"fmt"
	"time"
)

// Effect classifies what an action did to the state.
type Effect int

const (
	// EffectNone means the action was a no-op. The state, including
	// UpdatedAt, is returned untouched.
	EffectNone Effect = iota
	// EffectView means only the selection changed.
	EffectView
	// EffectGraph means the blueprint itself changed and UpdatedAt moves.
	EffectGraph
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectView:
		return "view"
	case EffectGraph:
		return "graph"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Action is one store transition. Implementations mutate the private copy of
// the state they are given and report the effect.
type Action interface {
	Kind() string
	apply(s *State) Effect
}

// Reduce applies a to s and returns the next state. s is never modified.
// When the action changes the graph, UpdatedAt is set to now. No action can
// fail: ids that do not resolve make the action a no-op.
func Reduce(s State, a Action, now time.Time) (State, Effect) {
	if a == nil {
		return s, EffectNone
	}

	next := s.Clone()
	effect := a.apply(&next)
	switch effect {
	case EffectNone:
		return s, EffectNone
	case EffectGraph:
		next.Blueprint.UpdatedAt = now
	}
	return next, effect
}

// AddNodes appends nodes as given. Duplicate ids are not rejected.
type AddNodes struct {
	Nodes []Node `json:"nodes"`
}

func (AddNodes) Kind() string { return "addNodes" }

func (a AddNodes) apply(s *State) Effect {
	if len(a.Nodes) == 0 {
		return EffectNone
	}
	for _, n := range a.Nodes {
		s.Blueprint.Nodes = append(s.Blueprint.Nodes, n.Clone())
	}
	return EffectGraph
}

// AddEdges appends edges as given. Endpoints are not checked; use Connect
// for a checked insert.
type AddEdges struct {
	Edges []Edge `json:"edges"`
}

func (AddEdges) Kind() string { return "addEdges" }

func (a AddEdges) apply(s *State) Effect {
	if len(a.Edges) == 0 {
		return EffectNone
	}
	s.Blueprint.Edges = append(s.Blueprint.Edges, a.Edges...)
	return EffectGraph
}

// UpdateNodeConfig shallow-merges Patch into the config of the node with
// NodeID. Top-level keys in Patch replace existing ones, others are kept.
type UpdateNodeConfig struct {
	NodeID string                 `json:"nodeId"`
	Patch  map[string]interface{} `json:"partial"`
}

func (UpdateNodeConfig) Kind() string { return "updateNodeConfig" }

func (a UpdateNodeConfig) apply(s *State) Effect {
	i := s.Blueprint.lastIndex(a.NodeID)
	if i < 0 {
		return EffectNone
	}
	cfg := s.Blueprint.Nodes[i].Data.Config
	if cfg == nil {
		cfg = make(map[string]interface{}, len(a.Patch))
	}
	for k, v := range a.Patch {
		cfg[k] = cloneValue(v)
	}
	s.Blueprint.Nodes[i].Data.Config = cfg
	return EffectGraph
}

// SelectNode sets the selection. An empty NodeID clears it. Unknown ids are
// stored as-is and resolve to no node on lookup.
type SelectNode struct {
	NodeID string `json:"nodeId"`
}

func (SelectNode) Kind() string { return "selectNode" }

func (a SelectNode) apply(s *State) Effect {
	if s.Selected == a.NodeID {
		return EffectNone
	}
	s.Selected = a.NodeID
	return EffectView
}

// RemoveNode deletes every node with NodeID and every edge touching it.
type RemoveNode struct {
	NodeID string `json:"nodeId"`
}

func (RemoveNode) Kind() string { return "removeNode" }

func (a RemoveNode) apply(s *State) Effect {
	changed := false

	nodes := s.Blueprint.Nodes[:0]
	for _, n := range s.Blueprint.Nodes {
		if n.ID == a.NodeID {
			changed = true
			continue
		}
		nodes = append(nodes, n)
	}
	s.Blueprint.Nodes = nodes

	edges := s.Blueprint.Edges[:0]
	for _, e := range s.Blueprint.Edges {
		if e.Source == a.NodeID || e.Target == a.NodeID {
			changed = true
			continue
		}
		edges = append(edges, e)
	}
	s.Blueprint.Edges = edges

	if !changed {
		return EffectNone
	}
	if s.Selected == a.NodeID {
		s.Selected = ""
	}
	return EffectGraph
}

// SetState merges a partial blueprint: nodes and edges are concatenated and
// the name is replaced when Name is set.
type SetState struct {
	Name  *string `json:"name,omitempty"`
	Nodes []Node  `json:"nodes,omitempty"`
	Edges []Edge  `json:"edges,omitempty"`
}

func (SetState) Kind() string { return "setState" }

func (a SetState) apply(s *State) Effect {
	effect := EffectNone
	if a.Name != nil && *a.Name != s.Blueprint.Name {
		s.Blueprint.Name = *a.Name
		effect = EffectGraph
	}
	if (AddNodes{Nodes: a.Nodes}).apply(s) == EffectGraph {
		effect = EffectGraph
	}
	if (AddEdges{Edges: a.Edges}).apply(s) == EffectGraph {
		effect = EffectGraph
	}
	return effect
}

// MoveNode sets the position of the node with NodeID.
type MoveNode struct {
	NodeID   string   `json:"nodeId"`
	Position Position `json:"position"`
}

func (MoveNode) Kind() string { return "moveNode" }

func (a MoveNode) apply(s *State) Effect {
	i := s.Blueprint.lastIndex(a.NodeID)
	if i < 0 || s.Blueprint.Nodes[i].Position == a.Position {
		return EffectNone
	}
	s.Blueprint.Nodes[i].Position = a.Position
	return EffectGraph
}

// RemoveEdge deletes every edge with EdgeID.
type RemoveEdge struct {
	EdgeID string `json:"edgeId"`
}

func (RemoveEdge) Kind() string { return "removeEdge" }

func (a RemoveEdge) apply(s *State) Effect {
	edges := s.Blueprint.Edges[:0]
	removed := false
	for _, e := range s.Blueprint.Edges {
		if e.ID == a.EdgeID {
			removed = true
			continue
		}
		edges = append(edges, e)
	}
	s.Blueprint.Edges = edges
	if !removed {
		return EffectNone
	}
	return EffectGraph
}

// Connect appends an edge only when both endpoints exist. When ID is empty
// a deterministic id is derived from the endpoints and handles.
type Connect struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

func (Connect) Kind() string { return "connect" }

func (a Connect) apply(s *State) Effect {
	if !s.Blueprint.HasNode(a.Source) || !s.Blueprint.HasNode(a.Target) {
		return EffectNone
	}
	edgeID := a.ID
	if edgeID == "" {
		edgeID = fmt.Sprintf("e-%s%s-%s%s", a.Source, a.SourceHandle, a.Target, a.TargetHandle)
	}
	s.Blueprint.Edges = append(s.Blueprint.Edges, Edge{
		ID:           edgeID,
		Source:       a.Source,
		Target:       a.Target,
		SourceHandle: a.SourceHandle,
		TargetHandle: a.TargetHandle,
	})
	return EffectGraph
}

// Rename replaces the blueprint name.
type Rename struct {
	Name string `json:"name"`
}

func (Rename) Kind() string { return "rename" }

func (a Rename) apply(s *State) Effect {
	if a.Name == s.Blueprint.Name {
		return EffectNone
	}
	s.Blueprint.Name = a.Name
	return EffectGraph
}

// Reset replaces the whole blueprint, for loading a template or an import.
// The selection is cleared and the blueprint id is kept when the new one has
// none.
type Reset struct {
	Blueprint Blueprint `json:"blueprint"`
}

func (Reset) Kind() string { return "reset" }

func (a Reset) apply(s *State) Effect {
	next := a.Blueprint.Clone()
	if next.ID == "" {
		next.ID = s.Blueprint.ID
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = s.Blueprint.CreatedAt
	}
	s.Blueprint = next
	s.Selected = ""
	return EffectGraph
}
