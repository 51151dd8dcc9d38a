/*
Package events provides the notification channel of a wrapper.

Two event kinds exist:

  - "retry": a throttled or partially processed request is about to be retried
  - "consumedCapacity": a call finished and the store reported consumed capacity

Handlers run synchronously on the calling goroutine, in registration order.
A panicking handler is recovered and logged; the remaining handlers still run.

	bus := w.Events()
	stop := bus.OnRetry(func(e storagemodels.RetryEvent) {
	    log.Printf("retry %d of %s on %s in %s", e.RetryCount, e.Method, e.TableName, e.RetryDelay)
	})
	defer stop()

Events never change the outcome of an operation.
*/
package events
