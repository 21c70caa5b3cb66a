package idempotency

import "context"

// KeyRepository stores idempotency keys. Implementations must make
// AcquireLock atomic.
type KeyRepository interface {
	// AcquireLock inserts key locked if no key with the same service, user
	// and key string exists. It returns the stored key and whether this call
	// created it.
	AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)

	// ReleaseLock unlocks a key whose request did not complete so that a
	// retry may run it again
	ReleaseLock(ctx context.Context, keyID string) error

	// StoreResponse marks the key completed and caches the response
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error

	EnsureIndexes(ctx context.Context) error
}
