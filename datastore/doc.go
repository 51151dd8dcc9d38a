/*
Package datastore defines the two interfaces the wrapper sits between.

Client is the low-level DynamoDB API the wrapper consumes. It mirrors the
method set of the AWS SDK v2 client, so a *dynamodb.Client can be passed
directly, as can the scripted client from the mock package:

	type Client interface {
	    GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	    PutItem(...)
	    UpdateItem(...)
	    DeleteItem(...)
	    Query(...)
	    Scan(...)
	    BatchWriteItem(...)
	}

DataStore is what the wrapper exposes. It takes and returns the same SDK
shapes, but PutItem retries throttling, Query and Scan return every page, and
BatchWriteItem partitions, retries unprocessed items and merges the results.

Implementations:
  - ddb: the wrapper itself
  - mock: a scripted Client for testing code built on the wrapper
*/
package datastore
