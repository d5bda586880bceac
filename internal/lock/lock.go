// Package lock serializes work per key. The ledger holds a user's key across the
// read-balance, check, write sequence of every debiting operation.
package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrLockTimeout is returned when a key could not be acquired in time.
var ErrLockTimeout = errors.New("lock: timed out waiting for key")

// Locker acquires exclusive ownership of a set of keys.
type Locker interface {
	// Lock blocks until every key is held, ctx is done, or the backend gives up.
	// The returned func releases all keys and is safe to call once.
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// normalize sorts and dedupes keys so every caller acquires them in the same order.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
