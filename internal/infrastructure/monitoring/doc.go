/*
Package monitoring provides Prometheus metrics for the backend.

# Features

- HTTP request metrics (latency, throughput, size)
- Blueprint store actions by kind and effect
- Session lifecycle and catalog size
- Upstream call latency and status
- WebSocket snapshot streams

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	store := blueprint.NewStore(bp, blueprint.WithObserver(
		func(kind string, effect blueprint.Effect) {
			metrics.RecordMutation(kind, effect.String())
		}))

	timer := monitoring.NewTimer(metrics, "maxxit")
	// ... perform call ...
	timer.Stop(reply.Status)
*/
package monitoring
