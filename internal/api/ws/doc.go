// Package ws streams blueprint snapshots to the editor over WebSocket.
//
// A client connects to /api/sessions/:id/stream and receives the current
// state at once, then a new snapshot after every change made through the
// HTTP API. Snapshots are whole states, so a client that falls behind only
// misses intermediate ones.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Ask for the current state again
//
// Message Types (Server → Client):
//   - snapshot: Full state
//   - pong: Reply to ping
//   - closed: The session was deleted or expired
//   - error: Unknown message
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, metrics, logger)
//	router.GET("/api/sessions/:id/stream", handler.HandleStream)
package ws
