/*
Package ddb wraps a DynamoDB client with throttling-aware retries.

The Wrapper adds to the plain client:
  - Exponential (or custom) backoff on ProvisionedThroughputExceededException
    for PutItem, Query, Scan and BatchWriteItem
  - Automatic pagination of Query and Scan, with consumed capacity summed
    across pages
  - Partitioning of large BatchWriteItem calls into sequential groups, with
    unprocessed items resent under the same retry budget as throttling
  - Table name prefixing, so several environments can share one account
  - Retry and consumed-capacity events

GetItem, UpdateItem and DeleteItem are forwarded once and never retried.

Usage:

	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{Region: "us-east-1"})
	if err != nil {
	    return err
	}
	store := ddb.New(client,
	    storagemodels.WithTableNamePrefix("dev-"),
	    storagemodels.WithMaxRetries(5),
	)
	store.Events().OnRetry(func(e storagemodels.RetryEvent) {
	    log.Printf("retry %d on %s.%s in %s", e.RetryCount, e.TableName, e.Method, e.RetryDelay)
	})

	out, err := store.BatchWriteItem(ctx, input, storagemodels.WithEqualItemCount(25))

The client built by NewDynamoDBClient has SDK retries disabled so that the
configured MaxRetries is the only retry budget.
*/
package ddb
