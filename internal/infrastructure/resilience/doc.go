/*
Package resilience provides the circuit breaker that guards the desktop
command channel.

# Overview

When the desktop API stops answering, every drag would otherwise queue a
request that times out. The breaker fails those calls fast until the API
recovers, so the viewer keeps rendering server state and reports the
outage once instead of per gesture.

# Usage

	breaker := resilience.New("desktop-commands", resilience.Settings{
		MaxRequests: 2,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, commands.ErrRejected)
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return send(ctx)
	})

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open
*/
package resilience
