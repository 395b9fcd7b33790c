package blueprint

import (
	"sync"
	"time"
)

// Observer is notified after every dispatch. kind is the action kind.
type Observer func(kind string, effect Effect)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp UpdatedAt.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithObserver registers an observer called after every dispatch.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Store holds the state of one editing session. Dispatch calls are
// serialized; readers get deep copies.
type Store struct {
	mu        sync.RWMutex
	state     State
	clock     func() time.Time
	observers []Observer

	subMu  sync.Mutex
	subs   map[uint64]chan State
	nextID uint64
	closed bool
}

// NewStore creates a store holding bp. Zero timestamps are set from the
// clock and an empty name becomes DefaultName.
func NewStore(bp Blueprint, opts ...Option) *Store {
	s := &Store{
		clock: time.Now,
		subs:  make(map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}

	bp = bp.Clone()
	now := s.clock()
	if bp.Name == "" {
		bp.Name = DefaultName
	}
	if bp.CreatedAt.IsZero() {
		bp.CreatedAt = now
	}
	if bp.UpdatedAt.IsZero() {
		bp.UpdatedAt = bp.CreatedAt
	}
	s.state = State{Blueprint: bp}
	return s
}

// Dispatch applies a and returns a copy of the resulting state.
func (s *Store) Dispatch(a Action) (State, Effect) {
	s.mu.Lock()
	next, effect := Reduce(s.state, a, s.clock())
	s.state = next
	snapshot := next.Clone()
	if effect != EffectNone {
		// publishing under mu keeps subscriber order equal to apply order
		s.publish(snapshot)
	}
	s.mu.Unlock()

	kind := ""
	if a != nil {
		kind = a.Kind()
	}
	for _, o := range s.observers {
		o(kind, effect)
	}
	return snapshot, effect
}

// AddNodes appends nodes.
func (s *Store) AddNodes(nodes ...Node) { s.Dispatch(AddNodes{Nodes: nodes}) }

// AddEdges appends edges without checking endpoints.
func (s *Store) AddEdges(edges ...Edge) { s.Dispatch(AddEdges{Edges: edges}) }

// UpdateNodeConfig shallow-merges patch into a node's config.
func (s *Store) UpdateNodeConfig(nodeID string, patch map[string]interface{}) {
	s.Dispatch(UpdateNodeConfig{NodeID: nodeID, Patch: patch})
}

// SelectNode sets the selection; "" clears it.
func (s *Store) SelectNode(nodeID string) { s.Dispatch(SelectNode{NodeID: nodeID}) }

// RemoveNode deletes a node and its edges.
func (s *Store) RemoveNode(nodeID string) { s.Dispatch(RemoveNode{NodeID: nodeID}) }

// SetState concatenates nodes and edges and optionally renames.
func (s *Store) SetState(partial SetState) { s.Dispatch(partial) }

// MoveNode repositions a node.
func (s *Store) MoveNode(nodeID string, pos Position) {
	s.Dispatch(MoveNode{NodeID: nodeID, Position: pos})
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(edgeID string) { s.Dispatch(RemoveEdge{EdgeID: edgeID}) }

// Connect adds an edge between two existing nodes.
func (s *Store) Connect(c Connect) { s.Dispatch(c) }

// Rename sets the blueprint name.
func (s *Store) Rename(name string) { s.Dispatch(Rename{Name: name}) }

// Reset replaces the blueprint.
func (s *Store) Reset(bp Blueprint) { s.Dispatch(Reset{Blueprint: bp}) }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Blueprint returns a deep copy of the current blueprint.
func (s *Store) Blueprint() Blueprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Blueprint.Clone()
}

// Node returns a copy of the last node with id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.state.Blueprint.NodeByID(id)
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// SelectedNode resolves the selection. A dangling selection yields false.
func (s *Store) SelectedNode() (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Selected == "" {
		return Node{}, false
	}
	n, ok := s.state.Blueprint.NodeByID(s.state.Selected)
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// Validate checks the current blueprint against cat.
func (s *Store) Validate(cat Catalog) Report {
	return Validate(s.Blueprint(), cat)
}

// Subscribe returns a channel receiving a snapshot after every change. A
// subscriber that falls behind loses updates instead of blocking writers.
// The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Store) publish(state State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- state.Clone():
		default:
		}
	}
}

// Close ends every subscription. Dispatch keeps working afterwards.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
