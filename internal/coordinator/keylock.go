package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/daoforge/quorum/pkg/ports"
)

// lockEntry holds the mutex and the reference count for one proposal id.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc // releases the distributed lock, if any
}

// keyLocks serializes mutation per proposal id. Stage results for different
// proposals proceed concurrently; results for the same proposal are handled
// one at a time, preserving the stage-ordering invariants. Entries are
// reference counted and garbage collected when unused.
type keyLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry

	locker ports.DistributedLocker // optional, for multi-instance deployments
	ttl    time.Duration
	logger *slog.Logger
}

func newKeyLocks(locker ports.DistributedLocker, logger *slog.Logger) *keyLocks {
	return &keyLocks{
		entries: make(map[string]*lockEntry),
		locker:  locker,
		ttl:     30 * time.Second,
		logger:  logger,
	}
}

// acquire gets or creates the entry for key and increments its refcount.
func (k *keyLocks) acquire(key string) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the refcount and drops the entry when unused.
func (k *keyLocks) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(k.entries, key)
	}
}

// withLock runs fn while holding the per-key lock (and the distributed lock
// when one is configured).
func (k *keyLocks) withLock(ctx context.Context, key string, fn func() error) error {
	entry := k.acquire(key)
	defer k.release(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if k.locker != nil {
		unlock, err := k.locker.Lock(ctx, key, k.ttl)
		if err != nil {
			return err
		}
		entry.unlock = unlock
		defer func() {
			if err := entry.unlock(context.WithoutCancel(ctx)); err != nil {
				k.logger.Warn("failed to release distributed lock", "key", key, "err", err)
			}
			entry.unlock = nil
		}()
	}

	return fn()
}
