package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const treePrefix = "tree:"

// Snapshot is a point-in-time materialization of a subtree, delivered to
// one-shot readers and live subscribers. The zero value reports a
// non-existent node.
type Snapshot struct {
	path   string
	val    any
	exists bool
}

// Path returns the tree path this snapshot was taken at.
func (s Snapshot) Path() string { return s.path }

// Exists reports whether any data was present at the path.
func (s Snapshot) Exists() bool { return s.exists }

// Value returns the raw subtree: a nested map[string]any for internal
// nodes, a scalar or slice for leaves, nil when the node does not exist.
func (s Snapshot) Value() any { return s.val }

// Decode unmarshals the subtree into dest, which should be a pointer to
// a struct or map matching the stored shape.
func (s Snapshot) Decode(dest any) error {
	if !s.exists {
		return fmt.Errorf("no data at %s: %w", s.path, ErrNotFound)
	}
	data, err := json.Marshal(s.val)
	if err != nil {
		return fmt.Errorf("marshal snapshot value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode snapshot at %s: %w", s.path, err)
	}
	return nil
}

// ChildCount returns the number of direct children of an internal node.
// Leaves and missing nodes have zero children.
func (s Snapshot) ChildCount() int {
	m, ok := s.val.(map[string]any)
	if !ok {
		return 0
	}
	return len(m)
}

// HasChild reports whether the snapshot has a direct child with the
// given name.
func (s Snapshot) HasChild(name string) bool {
	m, ok := s.val.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[name]
	return ok
}

// Write replaces the entire subtree at path with value. Writing nil or
// an empty map removes the subtree. The value is stored decomposed into
// leaf entries, so later writes and deletes at deeper paths compose with
// it correctly.
func (s *Store) Write(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	v, err := normalizeValue(value)
	if err != nil {
		return err
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		return s.writeLocked(txn, path, v)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.watchers.notify(s, path)
	return nil
}

// Patch merge-patches the named fields at path: each field replaces the
// child node of the same name, other children are left untouched. A nil
// field value deletes that child.
func (s *Store) Patch(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	normalized := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "" || strings.Contains(k, "/") {
			return ErrInvalidInput.WithMessage(fmt.Sprintf("invalid patch field %q", k))
		}
		nv, err := normalizeValue(v)
		if err != nil {
			return err
		}
		normalized[k] = nv
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		for k, v := range normalized {
			if err := s.writeLocked(txn, path+"/"+k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	s.watchers.notify(s, path)
	return nil
}

// Delete removes the subtree at path, including all descendants.
// Deleting a path that holds no data is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	removed := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		n, err := s.deleteSubtreeLocked(txn, path)
		removed = n
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	if removed > 0 {
		s.watchers.notify(s, path)
	}
	return nil
}

// ReadOnce returns a one-shot snapshot of the subtree at path.
// A missing node yields a snapshot with Exists() == false, not an error.
func (s *Store) ReadOnce(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if err := validatePath(path); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		snap, err = assembleSnapshot(txn, path)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return snap, nil
}

// writeLocked replaces the subtree at path with the normalized value v
// inside an open transaction. Callers must hold treeMu.
func (s *Store) writeLocked(txn *badger.Txn, path string, v any) error {
	// A leaf at an ancestor path is displaced by a deeper write.
	segs := splitPath(path)
	for i := 1; i < len(segs); i++ {
		ancestor := strings.Join(segs[:i], "/")
		key := buildKey(treePrefix, ancestor)
		_, err := txn.Get(key)
		releaseKey(key)
		if err == nil {
			if delErr := txn.Delete([]byte(treePrefix + ancestor)); delErr != nil {
				return fmt.Errorf("displace ancestor leaf %s: %w", ancestor, delErr)
			}
			continue
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check ancestor %s: %w", ancestor, err)
		}
	}

	// Writes replace, so clear the old subtree first.
	if _, err := s.deleteSubtreeLocked(txn, path); err != nil {
		return err
	}

	return flattenValue(path, v, func(leafPath string, data []byte) error {
		return txn.Set([]byte(treePrefix+leafPath), data)
	})
}

// deleteSubtreeLocked removes the leaf at path and every descendant
// leaf. Returns the number of entries removed.
func (s *Store) deleteSubtreeLocked(txn *badger.Txn, path string) (int, error) {
	removed := 0

	key := buildKey(treePrefix, path)
	_, err := txn.Get(key)
	releaseKey(key)
	if err == nil {
		if delErr := txn.Delete([]byte(treePrefix + path)); delErr != nil {
			return removed, delErr
		}
		removed++
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return removed, err
	}

	prefix := []byte(treePrefix + path + "/")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	// Collect first: deleting while iterating invalidates the iterator.
	var keys [][]byte
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// assembleSnapshot materializes the subtree at path from its leaf
// entries. A leaf key at the exact path wins; otherwise descendants are
// folded into a nested map.
func assembleSnapshot(txn *badger.Txn, path string) (Snapshot, error) {
	key := buildKey(treePrefix, path)
	item, err := txn.Get(key)
	releaseKey(key)
	if err == nil {
		var val any
		err = item.Value(func(data []byte) error {
			return json.Unmarshal(data, &val)
		})
		if err != nil {
			return Snapshot{}, fmt.Errorf("unmarshal leaf %s: %w", path, err)
		}
		return Snapshot{path: path, val: val, exists: true}, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, err
	}

	prefix := []byte(treePrefix + path + "/")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	root := make(map[string]any)
	found := false

	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		rel := strings.TrimPrefix(string(item.Key()), string(prefix))

		var val any
		err := item.Value(func(data []byte) error {
			return json.Unmarshal(data, &val)
		})
		if err != nil {
			return Snapshot{}, fmt.Errorf("unmarshal leaf %s/%s: %w", path, rel, err)
		}

		insertAt(root, splitPath(rel), val)
		found = true
	}

	if !found {
		return Snapshot{path: path, exists: false}, nil
	}
	return Snapshot{path: path, val: root, exists: true}, nil
}

// insertAt places a leaf value into a nested map at the given segments,
// creating intermediate maps as needed.
func insertAt(node map[string]any, segs []string, val any) {
	for len(segs) > 1 {
		child, ok := node[segs[0]].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segs[0]] = child
		}
		node = child
		segs = segs[1:]
	}
	node[segs[0]] = val
}

// normalizeValue round-trips a value through JSON so structs, maps, and
// scalars all land in the same representation before flattening.
func normalizeValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, ErrInvalidInput.WithMessage("value is not serializable").WithCause(err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return v, nil
}

// flattenValue decomposes a normalized value into leaf entries. Non-empty
// maps become internal nodes; everything else (scalars, slices) is
// marshaled as a single leaf. Nil and empty maps produce no leaves, which
// makes writing them equivalent to a delete.
func flattenValue(path string, v any, emit func(leafPath string, data []byte) error) error {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		for k, child := range m {
			if k == "" || strings.Contains(k, "/") {
				return ErrInvalidInput.WithMessage(fmt.Sprintf("invalid tree key %q under %s", k, path))
			}
			if err := flattenValue(path+"/"+k, child, emit); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal leaf %s: %w", path, err)
	}
	return emit(path, data)
}
