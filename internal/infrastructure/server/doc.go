// Package server wires the Cradle backend together.
//
// NewServer builds every component from a config.Config:
//   - plugin registry, seeded from REGISTRY_CATALOG_DIR when set
//   - blueprint parser and the editing session manager
//   - recent list store (Redis or in-memory) and the optional user database
//   - GitHub OAuth provider, Maxxit proxy and code generator clients
//   - metrics, tracing and the gin middleware stack
//
// Run starts the session sweeper and the rate limiter cleanup, then serves
// HTTP. Close shuts the listener down and releases every connection.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, "dev")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Close(context.Background())
package server
