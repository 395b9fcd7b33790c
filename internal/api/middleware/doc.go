// Package middleware provides HTTP middleware for the Cradle backend.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - Recovery: Panic recovery with a JSON 500
//   - RequestLogger: One structured log line per request
//
// Rate Limiting:
//   - Per-IP tracking; idle clients are dropped by Cleanup or Run
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//
// Example Usage:
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	go limiter.Run(ctx, time.Minute)
//	router.Use(middleware.Recovery(logger), middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(limiter.Middleware())
package middleware
