package store

import (
	"context"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/cartboardapp/cartboard-server/internal/id"
)

// subscriptionBuffer is the per-subscriber snapshot queue depth. A
// subscriber that falls this far behind loses the oldest queued
// snapshots; the newest committed snapshot is always queued, so the
// subscriber still receives the final state after it catches up.
const subscriptionBuffer = 64

// SnapshotHandler receives subtree snapshots from a live subscription.
// Handlers for one subscription are invoked sequentially, in commit
// order; a handler must not block for long or it will drop snapshots.
type SnapshotHandler func(Snapshot)

// Subscription is the detach token for a live subtree subscription.
type Subscription struct {
	id       string
	path     string
	ch       chan Snapshot
	done     chan struct{}
	once     sync.Once
	registry *watchRegistry
}

// Path returns the subscribed tree path.
func (sub *Subscription) Path() string { return sub.path }

// Close detaches the subscription. Close is idempotent. A snapshot
// already queued may still be delivered once after Close returns.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.registry.remove(sub.id)
		close(sub.done)
	})
}

// Subscribe attaches a live subscription to the subtree at path.
// The handler fires once with the current state, then again after every
// committed change that touches the subtree, in commit order. The caller
// must Close the returned subscription when done.
func (s *Store) Subscribe(ctx context.Context, path string, handler SnapshotHandler) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrInvalidInput.WithMessage("subscription handler cannot be nil")
	}

	sub := &Subscription{
		id:       id.MustGenerate("sub"),
		path:     path,
		ch:       make(chan Snapshot, subscriptionBuffer),
		done:     make(chan struct{}),
		registry: s.watchers,
	}

	go func() {
		for {
			select {
			case snap := <-sub.ch:
				handler(snap)
			case <-sub.done:
				return
			}
		}
	}()

	// Register and take the initial snapshot under the write lock so no
	// committed change lands between the two.
	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	snap, err := s.snapshotLocked(path)
	if err != nil {
		close(sub.done)
		return nil, err
	}

	s.watchers.add(sub)
	sub.ch <- snap

	return sub, nil
}

// snapshotLocked assembles a snapshot outside a caller-managed
// transaction. Callers must hold treeMu (or tolerate racing writers).
func (s *Store) snapshotLocked(path string) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		snap, err = assembleSnapshot(txn, path)
		return err
	})
	return snap, err
}

// watchRegistry tracks live subscriptions and fans committed changes out
// to the ones whose subtree overlaps the changed path.
type watchRegistry struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{
		subs: make(map[string]*Subscription),
	}
}

func (r *watchRegistry) add(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.id] = sub
}

func (r *watchRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
}

// count returns the number of live subscriptions.
func (r *watchRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// notify delivers fresh snapshots to every subscription overlapping the
// changed path. Called with treeMu held, which is what serializes
// deliveries into commit order.
func (r *watchRegistry) notify(s *Store, changed string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		if !pathsOverlap(sub.path, changed) {
			continue
		}

		snap, err := s.snapshotLocked(sub.path)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to snapshot for subscriber",
					"path", sub.path, "changed", changed, "error", err)
			}
			continue
		}

		select {
		case sub.ch <- snap:
		default:
			// Subscriber is not keeping up. Each snapshot carries the
			// full subtree, so the oldest queued one is the safe drop:
			// the newest committed state must always reach the queue.
			select {
			case <-sub.ch:
			default:
			}
			// Senders are serialized by treeMu, so the slot freed
			// above cannot be taken before this send.
			sub.ch <- snap
			if s.logger != nil {
				s.logger.Warn("subscriber buffer full, dropped oldest snapshot",
					"path", sub.path)
			}
		}
	}
}
