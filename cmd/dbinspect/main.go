// Command dbinspect prints a summary of a Cartboard data directory.
// It opens the Badger tree store read-only, so it is safe to run
// against a live server's data.
package main

import (
	"encoding/json/v2"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	dataPath := flag.String("data-path", "", "Base path for persistent data (default: $HOME/Cartboard/data)")
	dump := flag.String("dump", "", "Dump raw values under this key prefix (e.g. tree:carts/)")
	flag.Parse()

	base := *dataPath
	if base == "" {
		base = os.Getenv("DATA_PATH")
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		base = filepath.Join(home, "Cartboard", "data")
	}

	opts := badger.DefaultOptions(filepath.Join(base, "tree")).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *dump != "" {
		dumpPrefix(db, *dump)
		return
	}

	summarize(db)
}

// summarize counts keys per record family and tree top-level segment.
func summarize(db *badger.DB) {
	counts := map[string]int{}
	treeCounts := map[string]int{}

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())

			switch {
			case strings.HasPrefix(key, "tree:"):
				path := strings.TrimPrefix(key, "tree:")
				top, _, _ := strings.Cut(path, "/")
				treeCounts[top]++
			case strings.HasPrefix(key, "user:"):
				counts["users"]++
			case strings.HasPrefix(key, "session:"):
				counts["sessions"]++
			case strings.HasPrefix(key, "idx:"):
				counts["indexes"]++
			default:
				counts["other"]++
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan database: %v", err)
	}

	fmt.Println("=== Cartboard Database Inspection ===")
	fmt.Println()
	fmt.Printf("Users:    %d\n", counts["users"])
	fmt.Printf("Sessions: %d\n", counts["sessions"])
	fmt.Printf("Indexes:  %d\n", counts["indexes"])
	if counts["other"] > 0 {
		fmt.Printf("Other:    %d\n", counts["other"])
	}
	fmt.Println()
	fmt.Println("Tree nodes by root segment:")
	for _, top := range []string{"carts", "cartsByUser", "todos"} {
		fmt.Printf("  %-12s %d\n", top, treeCounts[top])
		delete(treeCounts, top)
	}
	for top, n := range treeCounts {
		fmt.Printf("  %-12s %d\n", top, n)
	}
}

// dumpPrefix prints each key under the prefix with its value, pretty
// printed when the value is JSON.
func dumpPrefix(db *badger.DB, prefix string) {
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				fmt.Printf("%s\n", key)
				var pretty any
				if err := json.Unmarshal(val, &pretty); err == nil {
					formatted, err := json.Marshal(pretty, json.Deterministic(true))
					if err == nil {
						fmt.Printf("  %s\n", formatted)
						return nil
					}
				}
				fmt.Printf("  %q\n", val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to dump prefix %q: %v", prefix, err)
	}
}
