/*
Package ddbwrapper adds throttling resilience to DynamoDB access.

DynamoDB rejects requests that exceed a table's provisioned throughput and
returns unprocessed items from batch writes under pressure. The wrapper in
datastore/ddb retries both with exponential backoff, follows Query and Scan
pagination, splits large batch writes into paced groups and reports consumed
capacity through events.

Packages:
  - datastore: the low-level Client seam and the DataStore surface
  - datastore/ddb: the Wrapper and SDK client construction
  - datastore/mock: a scriptable in-memory client for tests
  - errors: error kinds (fatal, throttled, not yet implemented, throughput exceeded)
  - events: per-wrapper retry and consumedCapacity subscriptions
  - prefix: table name prefixing for shared accounts
  - config: YAML, .env and DDBWRAPPER_* environment configuration
  - metrics: Datadog and Prometheus providers fed from wrapper events

Basic Usage:

	cfg, err := config.Load("ddbwrapper.yaml")
	if err != nil {
	    return err
	}
	client, err := ddbwrapper.Open(ctx, cfg, os.Stderr)
	if err != nil {
	    return err
	}
	defer client.Close()

	out, err := client.BatchWriteItem(ctx, input, storagemodels.WithEqualItemCount(25))
	if errors.IsThroughputExceeded(err) {
	    // no item of a group could be written
	}

Writing to several tables in one BatchWriteItem call and
ReturnItemCollectionMetrics are rejected with a NotYetImplemented error.
*/
package ddbwrapper
