// Package sessions stores the single current refresh token per user.
//
// Each user has at most one live session: Put overwrites, so logging in again
// invalidates the refresh token held by any other device. Entries expire after
// the TTL given to Put.
package sessions

import (
	"context"
	"time"
)

const keyPrefix = "refresh:"

// Store is implemented by RedisStore and MemoryStore. Get returns
// common.ErrorNotFound for an absent or expired entry; Delete of an absent
// entry is not an error.
type Store interface {
	Put(ctx context.Context, subjectID, token string, ttl time.Duration) error
	Get(ctx context.Context, subjectID string) (string, error)
	Delete(ctx context.Context, subjectID string) error
	Ping(ctx context.Context) error
}

// Key returns the storage key for a subject's refresh token.
func Key(subjectID string) string {
	return keyPrefix + subjectID
}
