/*
Package storagemodels defines the data structures shared by the wrapper packages.

Key Types:

Options:
Wrapper configuration built from functional options on top of the defaults
(no prefix, 100ms group delay, 10 retries, 100ms backoff base):

	opts := []Option{
	    WithTableNamePrefix("dev-"),
	    WithMaxRetries(5),
	    WithCustomBackoff(func(retryCount int) time.Duration {
	        return time.Duration(retryCount) * 50 * time.Millisecond
	    }),
	}

BatchWriteOption:
Partitioning for a single BatchWriteItem call:

	out, err := w.BatchWriteItem(ctx, input, WithEqualItemCount(25))

Events:
Payloads delivered to event subscribers:

	type RetryEvent struct {
	    TableName  string
	    Method     string
	    RetryCount int
	    RetryDelay time.Duration
	}

	type ConsumedCapacityEvent struct {
	    Method           string
	    CapacityType     CapacityType
	    ConsumedCapacity *types.ConsumedCapacity
	}
*/
package storagemodels
