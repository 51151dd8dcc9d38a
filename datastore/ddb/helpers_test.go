/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbwrapper/datastore/mock"
	"github.com/suparena/ddbwrapper/datastore/testmodels"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// newTestWrapper returns a wrapper with two retries and no backoff delay.
func newTestWrapper(client *mock.Client, opts ...storagemodels.Option) *Wrapper {
	base := []storagemodels.Option{
		storagemodels.WithMaxRetries(2),
		storagemodels.WithRetryDelayBase(0),
		storagemodels.WithGroupDelay(0),
	}
	return New(client, append(base, opts...)...)
}

// eventLog collects events published by a wrapper.
type eventLog struct {
	mu       sync.Mutex
	retries  []storagemodels.RetryEvent
	capacity []storagemodels.ConsumedCapacityEvent
}

func recordEvents(w *Wrapper) *eventLog {
	log := &eventLog{}
	w.Events().OnRetry(func(e storagemodels.RetryEvent) {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.retries = append(log.retries, e)
	})
	w.Events().OnConsumedCapacity(func(e storagemodels.ConsumedCapacityEvent) {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.capacity = append(log.capacity, e)
	})
	return log
}

func putRequests(t *testing.T, n int) []types.WriteRequest {
	t.Helper()
	requests, err := testmodels.PutRequests(testmodels.NewRatingSystems(n, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	return requests
}
