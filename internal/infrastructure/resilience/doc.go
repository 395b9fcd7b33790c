/*
Package resilience provides the circuit breaker guarding upstream calls.

# Usage

	breaker := resilience.New("maxxit", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Call(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

An open breaker rejects calls with ErrCircuitOpen without running them.
*/
package resilience
