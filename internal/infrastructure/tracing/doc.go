/*
Package tracing provides lightweight request tracing.

Each HTTP request gets a span; the trace id arrives in X-Trace-ID or is
generated, is echoed back in the response, and is forwarded on upstream
calls so a generator or proxy failure can be matched to the request that
caused it. Finished spans are logged through the structured logger.

# Usage

	tracer := tracing.New("cradle-backend", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "generate")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
