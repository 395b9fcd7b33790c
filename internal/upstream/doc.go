/*
Package upstream talks to the third-party services the backend fronts:
the Maxxit trading API, the code generation service and GitHub.

Every Client is guarded by a circuit breaker and an optional rate limiter
and never retries. Relay turns a call into a status and JSON body the HTTP
layer can write directly:

	reply := maxxit.Relay(ctx, upstream.Request{
		Method: c.Request.Method,
		Path:   c.Param("path"),
		Query:  c.Request.URL.Query(),
		Body:   body,
	}, "set MAXXIT_API_URL")
	c.JSON(reply.Status, reply.Body)
*/
package upstream
