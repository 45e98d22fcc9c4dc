// Command backup creates, lists, and restores Cartboard backup archives.
// Run it against the server's data directory while the server is stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cartboardapp/cartboard-server/internal/backup"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

func main() {
	dataPath := flag.String("data-path", "", "Base path for persistent data (default: $HOME/Cartboard/data)")
	backupDir := flag.String("backup-dir", "", "Directory holding backup archives (default: <data-path>/backups)")
	create := flag.Bool("create", false, "Create a new backup")
	list := flag.Bool("list", false, "List existing backups")
	restorePath := flag.String("restore", "", "Restore from the given backup archive")
	mode := flag.String("mode", "full", "Restore mode: full or merge")
	dryRun := flag.Bool("dry-run", false, "Validate the restore without writing")
	skipActivities := flag.Bool("skip-activities", false, "Leave the activity feed out of the backup")
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

	dir := *backupDir
	if dir == "" {
		dir = filepath.Join(base, "backups")
	}

	ctx := context.Background()

	switch {
	case *create:
		runCreate(ctx, base, dir, !*skipActivities)
	case *list:
		runList(ctx, dir)
	case *restorePath != "":
		runRestore(ctx, base, *restorePath, backup.RestoreMode(*mode), *dryRun)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runCreate(ctx context.Context, base, dir string, includeActivities bool) {
	treeStore, err := store.New(filepath.Join(base, "tree"), nil)
	if err != nil {
		log.Fatalf("Failed to open tree store: %v", err)
	}
	defer treeStore.Close()

	var activities *sqlite.Store
	if includeActivities {
		activities, err = sqlite.Open(filepath.Join(base, "activities.db"), nil)
		if err != nil {
			log.Fatalf("Failed to open activity store: %v", err)
		}
		defer activities.Close()
	}

	svc := backup.NewBackupService(treeStore, activities, dir, serverName(), version(), nil)

	result, err := svc.Create(ctx, backup.BackupOptions{IncludeActivities: includeActivities})
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}

	fmt.Printf("Backup written to %s\n", result.Path)
	fmt.Printf("  size:       %d bytes\n", result.Size)
	fmt.Printf("  checksum:   %s\n", result.Checksum)
	fmt.Printf("  users:      %d\n", result.Counts.Users)
	fmt.Printf("  carts:      %d\n", result.Counts.Carts)
	fmt.Printf("  todos:      %d\n", result.Counts.Todos)
	fmt.Printf("  sessions:   %d\n", result.Counts.Sessions)
	if includeActivities {
		fmt.Printf("  activities: %d\n", result.Counts.Activities)
	}
}

func runList(ctx context.Context, dir string) {
	svc := backup.NewBackupService(nil, nil, dir, serverName(), version(), nil)

	backups, err := svc.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list backups: %v", err)
	}
	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return
	}

	for _, b := range backups {
		fmt.Printf("%s  %10d bytes  %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, b.ID)
	}
}

func runRestore(ctx context.Context, base, archivePath string, mode backup.RestoreMode, dryRun bool) {
	treeStore, err := store.New(filepath.Join(base, "tree"), nil)
	if err != nil {
		log.Fatalf("Failed to open tree store: %v", err)
	}
	defer treeStore.Close()

	svc := backup.NewRestoreService(treeStore, filepath.Join(base, "activities.db"), nil)

	result, err := svc.Restore(ctx, archivePath, backup.RestoreOptions{Mode: mode, DryRun: dryRun})
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	if result.DryRun {
		fmt.Println("Dry run: archive is valid, nothing written.")
	} else {
		fmt.Println("Restore complete.")
	}
	for kind, count := range result.Imported {
		fmt.Printf("  %s: %d\n", kind, count)
	}
}

func serverName() string {
	if name := os.Getenv("SERVER_NAME"); name != "" {
		return name
	}
	return "Cartboard Server"
}

func version() string {
	return "1.0.0"
}
