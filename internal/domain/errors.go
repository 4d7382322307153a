package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPriceUnresolved = errors.New("price unresolved")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrContextDone     = errors.New("context cancelled")
)

// PoolFetchError reports a failure to fetch detail for a single pool. It
// carries the pool identity so the orchestrator can log and drop the item
// without losing the rest of the batch.
type PoolFetchError struct {
	Protocol string
	Address  string
	Err      error
}

func (e *PoolFetchError) Error() string {
	return fmt.Sprintf("fetch pool %s/%s: %v", e.Protocol, e.Address, e.Err)
}

func (e *PoolFetchError) Unwrap() error {
	return e.Err
}
