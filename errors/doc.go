/*
Package errors provides semantic error types for the DynamoDB wrapper.

Errors returned by the low-level client are classified into an *Error with a
Kind, and can be checked with the standard errors.Is() function or the
provided helper functions.

Common Errors:

	var (
	    ErrThrottled          = errors.New("throughput exceeded")
	    ErrThroughputExceeded = errors.New("batch write made no progress")
	    ErrNotYetImplemented  = errors.New("not yet implemented")
	    ErrFatal              = errors.New("non-retryable store error")
	)

Usage:

	out, err := store.BatchWriteItem(ctx, input)
	if err != nil {
	    if errors.IsThroughputExceeded(err) {
	        // no item of a group was written
	        return nil, fmt.Errorf("table %s is saturated: %w", table, err)
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotYetImplementedError("multi-table batches")
	err := errors.NewValidationError("TargetItemCount", "must be greater than zero")

*Error also implements smithy.APIError, so code that inspects ErrorCode()
keeps working: the synthesized throughput error reports
ProvisionedThroughputExceededException.
*/
package errors
