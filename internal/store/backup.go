package store

import (
	"io"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Stats summarizes the records held in the store, grouped by kind.
type Stats struct {
	Users    int `json:"users"`
	Carts    int `json:"carts"`
	Todos    int `json:"todos"`
	Sessions int `json:"sessions"`
}

// Backup streams the full database to w in Badger's backup format and
// returns the version timestamp of the snapshot.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Load replays a backup stream produced by Backup into the database.
// Entries from the stream overwrite existing keys; keys absent from the
// stream are left untouched.
func (s *Store) Load(r io.Reader) error {
	return s.db.Load(r, 16)
}

// DropAll removes every record from the store. Used by full restores.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}

// Stats counts records by kind. Tree leaves are grouped back into the
// carts and todos they belong to, and index keys are not counted.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	carts := make(map[string]struct{})
	todos := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case strings.HasPrefix(key, treePrefix):
				segs := splitPath(strings.TrimPrefix(key, treePrefix))
				if len(segs) < 2 {
					continue
				}
				switch segs[0] {
				case "carts":
					carts[segs[1]] = struct{}{}
				case "todos":
					if len(segs) >= 3 {
						todos[segs[1] + "/" + segs[2]] = struct{}{}
					}
				}
			case strings.HasPrefix(key, "user:"):
				if !strings.HasPrefix(key, "user:idx:") {
					stats.Users++
				}
			case strings.HasPrefix(key, sessionPrefix):
				stats.Sessions++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	stats.Carts = len(carts)
	stats.Todos = len(todos)
	return stats, nil
}
