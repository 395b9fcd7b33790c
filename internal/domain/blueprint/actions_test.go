package blueprint

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
)

func node(id, nodeType string) Node {
	return Node{
		ID:   id,
		Type: nodeType,
		Data: NodeData{Label: id, Config: map[string]interface{}{}},
	}
}

func edge(id, src, dst string) Edge {
	return Edge{ID: id, Source: src, Target: dst}
}

func baseState() State {
	return State{Blueprint: Blueprint{
		ID:        "bp_test",
		Name:      "Test",
		Nodes:     []Node{node("a", "erc20-stylus"), node("b", "frontend-scaffold"), node("c", "wallet-auth")},
		Edges:     []Edge{edge("e1", "a", "b"), edge("e2", "c", "b")},
		CreatedAt: t0,
		UpdatedAt: t0,
	}}
}

func nodeIDs(bp Blueprint) []string {
	out := make([]string, 0, len(bp.Nodes))
	for _, n := range bp.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func edgeIDs(bp Blueprint) []string {
	out := make([]string, 0, len(bp.Edges))
	for _, e := range bp.Edges {
		out = append(out, e.ID)
	}
	return out
}

func TestReduceNoOps(t *testing.T) {
	name := "Test"
	tests := []struct {
		name   string
		action Action
	}{
		{name: "update missing node", action: UpdateNodeConfig{NodeID: "zzz", Patch: map[string]interface{}{"k": 1}}},
		{name: "remove missing node", action: RemoveNode{NodeID: "zzz"}},
		{name: "move missing node", action: MoveNode{NodeID: "zzz", Position: Position{X: 5}}},
		{name: "remove missing edge", action: RemoveEdge{EdgeID: "zzz"}},
		{name: "connect missing source", action: Connect{Source: "zzz", Target: "a"}},
		{name: "connect missing target", action: Connect{Source: "a", Target: "zzz"}},
		{name: "add nothing", action: AddNodes{}},
		{name: "add no edges", action: AddEdges{}},
		{name: "set same name", action: SetState{Name: &name}},
		{name: "rename to same", action: Rename{Name: "Test"}},
		{name: "select unchanged", action: SelectNode{NodeID: ""}},
		{name: "nil action", action: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := baseState()
			after, effect := Reduce(before, tt.action, t1)
			assert.Equal(t, EffectNone, effect)
			assert.Equal(t, baseState(), after)
			assert.Equal(t, t0, after.Blueprint.UpdatedAt)
		})
	}
}

func TestUpdateNodeConfigShallowMerge(t *testing.T) {
	s := baseState()
	s.Blueprint.Nodes[0].Data.Config = map[string]interface{}{
		"name":  "Old",
		"extra": map[string]interface{}{"nested": 1},
	}

	s, effect := Reduce(s, UpdateNodeConfig{NodeID: "a", Patch: map[string]interface{}{"symbol": "CRDL"}}, t1)
	require.Equal(t, EffectGraph, effect)
	s, _ = Reduce(s, UpdateNodeConfig{NodeID: "a", Patch: map[string]interface{}{
		"name":  "New",
		"extra": map[string]interface{}{"other": 2},
	}}, t1)

	cfg := s.Blueprint.Nodes[0].Data.Config
	assert.Equal(t, "New", cfg["name"])
	assert.Equal(t, "CRDL", cfg["symbol"])
	assert.Equal(t, map[string]interface{}{"other": 2}, cfg["extra"], "merge is shallow")
	assert.Equal(t, t1, s.Blueprint.UpdatedAt)
}

func TestUpdateNodeConfigNilConfig(t *testing.T) {
	s := baseState()
	s.Blueprint.Nodes[1].Data.Config = nil

	s, effect := Reduce(s, UpdateNodeConfig{NodeID: "b", Patch: map[string]interface{}{"styling": "tailwind"}}, t1)
	require.Equal(t, EffectGraph, effect)
	assert.Equal(t, "tailwind", s.Blueprint.Nodes[1].Data.Config["styling"])
}

func TestDuplicateIDsUseLastNode(t *testing.T) {
	s := baseState()
	s, _ = Reduce(s, AddNodes{Nodes: []Node{node("a", "auction")}}, t1)
	require.Len(t, s.Blueprint.Nodes, 4)

	n, ok := s.Blueprint.NodeByID("a")
	require.True(t, ok)
	assert.Equal(t, "auction", n.Type)

	s, _ = Reduce(s, UpdateNodeConfig{NodeID: "a", Patch: map[string]interface{}{"k": "v"}}, t1)
	assert.Empty(t, s.Blueprint.Nodes[0].Data.Config)
	assert.Equal(t, "v", s.Blueprint.Nodes[3].Data.Config["k"])

	s, _ = Reduce(s, RemoveNode{NodeID: "a"}, t1)
	assert.Equal(t, []string{"b", "c"}, nodeIDs(s.Blueprint))
}

func TestRemoveNodeCascades(t *testing.T) {
	s := baseState()
	s, _ = Reduce(s, SelectNode{NodeID: "b"}, t1)

	s, effect := Reduce(s, RemoveNode{NodeID: "b"}, t1)
	require.Equal(t, EffectGraph, effect)
	assert.Equal(t, []string{"a", "c"}, nodeIDs(s.Blueprint))
	assert.Empty(t, s.Blueprint.Edges)
	assert.Empty(t, s.Selected)
}

func TestRemoveNodeKeepsOtherSelection(t *testing.T) {
	s := baseState()
	s, _ = Reduce(s, SelectNode{NodeID: "c"}, t1)
	s, _ = Reduce(s, RemoveNode{NodeID: "a"}, t1)
	assert.Equal(t, "c", s.Selected)
	assert.Equal(t, []string{"e2"}, edgeIDs(s.Blueprint))
}

func TestRemoveNodeDropsDanglingEdgesOfUnknownNode(t *testing.T) {
	s := baseState()
	s, _ = Reduce(s, AddEdges{Edges: []Edge{edge("ghost", "a", "nowhere")}}, t1)

	s, effect := Reduce(s, RemoveNode{NodeID: "nowhere"}, t1)
	assert.Equal(t, EffectGraph, effect)
	assert.Equal(t, []string{"e1", "e2"}, edgeIDs(s.Blueprint))
	assert.Len(t, s.Blueprint.Nodes, 3)
}

func TestSelectNodeIsViewOnly(t *testing.T) {
	s, effect := Reduce(baseState(), SelectNode{NodeID: "a"}, t1)
	assert.Equal(t, EffectView, effect)
	assert.Equal(t, "a", s.Selected)
	assert.Equal(t, t0, s.Blueprint.UpdatedAt)

	s, effect = Reduce(s, SelectNode{}, t1)
	assert.Equal(t, EffectView, effect)
	assert.Empty(t, s.Selected)
}

func TestSetStateConcatenates(t *testing.T) {
	name := "Applied"
	s, effect := Reduce(baseState(), SetState{
		Name:  &name,
		Nodes: []Node{node("d", "maxxit-agent")},
		Edges: []Edge{edge("e3", "d", "b")},
	}, t1)

	require.Equal(t, EffectGraph, effect)
	assert.Equal(t, "Applied", s.Blueprint.Name)
	assert.Equal(t, []string{"a", "b", "c", "d"}, nodeIDs(s.Blueprint))
	assert.Equal(t, []string{"e1", "e2", "e3"}, edgeIDs(s.Blueprint))

	s, _ = Reduce(s, SetState{Nodes: []Node{node("e", "auction")}}, t1)
	assert.Equal(t, "Applied", s.Blueprint.Name, "name kept when not given")
}

func TestConnect(t *testing.T) {
	s, effect := Reduce(baseState(), Connect{ID: "e9", Source: "a", Target: "c", SourceHandle: "out"}, t1)
	require.Equal(t, EffectGraph, effect)
	last := s.Blueprint.Edges[len(s.Blueprint.Edges)-1]
	assert.Equal(t, Edge{ID: "e9", Source: "a", Target: "c", SourceHandle: "out"}, last)

	s, _ = Reduce(s, Connect{Source: "c", Target: "a"}, t1)
	assert.Equal(t, "e-c-a", s.Blueprint.Edges[len(s.Blueprint.Edges)-1].ID)
}

func TestMoveRemoveEdgeRenameReset(t *testing.T) {
	s, effect := Reduce(baseState(), MoveNode{NodeID: "a", Position: Position{X: 10, Y: 20}}, t1)
	require.Equal(t, EffectGraph, effect)
	assert.Equal(t, Position{X: 10, Y: 20}, s.Blueprint.Nodes[0].Position)

	_, effect = Reduce(s, MoveNode{NodeID: "a", Position: Position{X: 10, Y: 20}}, t1)
	assert.Equal(t, EffectNone, effect, "same position is a no-op")

	s, _ = Reduce(s, RemoveEdge{EdgeID: "e1"}, t1)
	assert.Equal(t, []string{"e2"}, edgeIDs(s.Blueprint))

	s, _ = Reduce(s, Rename{Name: "Renamed"}, t1)
	assert.Equal(t, "Renamed", s.Blueprint.Name)

	s, _ = Reduce(s, SelectNode{NodeID: "a"}, t1)
	s, effect = Reduce(s, Reset{Blueprint: Blueprint{Name: "Fresh"}}, t1)
	require.Equal(t, EffectGraph, effect)
	assert.Equal(t, "bp_test", s.Blueprint.ID)
	assert.Equal(t, t0, s.Blueprint.CreatedAt)
	assert.Equal(t, t1, s.Blueprint.UpdatedAt)
	assert.Empty(t, s.Blueprint.Nodes)
	assert.Empty(t, s.Selected)
}

func TestReduceDoesNotAlias(t *testing.T) {
	before := baseState()
	patch := map[string]interface{}{"list": []interface{}{"x"}}

	after, _ := Reduce(before, UpdateNodeConfig{NodeID: "a", Patch: patch}, t1)
	patch["list"].([]interface{})[0] = "mutated"
	assert.Equal(t, []interface{}{"x"}, after.Blueprint.Nodes[0].Data.Config["list"])
	assert.NotContains(t, before.Blueprint.Nodes[0].Data.Config, "list")

	nodes := []Node{node("z", "auction")}
	after, _ = Reduce(before, AddNodes{Nodes: nodes}, t1)
	nodes[0].Data.Config["k"] = "v"
	assert.Empty(t, after.Blueprint.Nodes[3].Data.Config)
}

// Random add/remove/connect sequences never leave an edge pointing at a
// missing node.
func TestNoDanglingEdgesAfterAddRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := State{Blueprint: Blueprint{CreatedAt: t0, UpdatedAt: t0}}

	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("n%d", rng.Intn(20))
		var a Action
		switch rng.Intn(3) {
		case 0:
			a = AddNodes{Nodes: []Node{node(id, "auction")}}
		case 1:
			a = RemoveNode{NodeID: id}
		default:
			a = Connect{Source: id, Target: fmt.Sprintf("n%d", rng.Intn(20))}
		}
		s, _ = Reduce(s, a, t1)

		for _, e := range s.Blueprint.Edges {
			require.True(t, s.Blueprint.HasNode(e.Source), "step %d: dangling source %s", i, e.Source)
			require.True(t, s.Blueprint.HasNode(e.Target), "step %d: dangling target %s", i, e.Target)
		}
	}
}
