// Package session keeps one blueprint store per editing session.
//
// A session starts from a template, an imported blueprint or a blank
// canvas. Sessions live in memory: idle ones are swept after a TTL and the
// least recently active are evicted when the cap is reached.
//
// Example Usage:
//
//	manager := session.NewManager(parser, session.WithMaxSessions(500))
//	sess, err := manager.Create(session.CreateOptions{Template: "token-launch"})
//	sess.Store.UpdateNodeConfig(nodeID, patch)
package session
