// Package blueprint holds the graph model edited on the canvas.
//
// State changes are pure transitions, Reduce(state, action, now), over a
// closed set of actions (AddNodes, UpdateNodeConfig, RemoveNode, Connect,
// ...). Store wraps one state per editing session, serializes dispatches and
// fans snapshots out to subscribers.
//
// No action fails. An id that does not resolve turns the action into a
// no-op that leaves the state, including UpdatedAt, untouched.
//
// Parser handles the untrusted edges of the model: JSON/YAML import, id
// assignment, label sanitizing and starter templates.
//
// Example:
//
//	store := blueprint.NewStore(bp)
//	store.AddNodes(node)
//	store.UpdateNodeConfig(node.ID, map[string]interface{}{"symbol": "CRDL"})
//	report := store.Validate(reg)
package blueprint
