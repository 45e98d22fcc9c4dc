package backup_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartboardapp/cartboard-server/internal/backup"
	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

// testSetup creates populated stores and a backup service over them.
func testSetup(t *testing.T) (*store.Store, *sqlite.Store, *backup.BackupService, string) {
	t.Helper()

	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backups")

	treeStore, err := store.New(filepath.Join(tmpDir, "tree"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { treeStore.Close() })

	activities, err := sqlite.Open(filepath.Join(tmpDir, "activities.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { activities.Close() })

	svc := backup.NewBackupService(treeStore, activities, backupDir, "Test Server", "1.0.0", nil)
	return treeStore, activities, svc, tmpDir
}

// seedStores writes a user, a cart, a todo, and an activity.
func seedStores(t *testing.T, treeStore *store.Store, activities *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{
		Syncable:    domain.Syncable{ID: "user1", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Email:       "alice@example.com",
		DisplayName: "Alice",
	}
	require.NoError(t, treeStore.Users.Create(ctx, user.ID, user))

	require.NoError(t, treeStore.Write(ctx, "carts/cart1", map[string]any{
		"id":    "cart1",
		"name":  "Groceries",
		"owner": "user1",
	}))
	require.NoError(t, treeStore.Write(ctx, "todos/user1/todo1", map[string]any{
		"id":    "todo1",
		"title": "Buy milk",
	}))

	require.NoError(t, activities.CreateActivity(ctx, &domain.Activity{
		ID:              "act1",
		UserID:          "user1",
		Type:            domain.ActivityCartCreated,
		CreatedAt:       time.Now(),
		UserDisplayName: "Alice",
		CartID:          "cart1",
		CartName:        "Groceries",
	}))
}

func TestBackupCreate(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)

	result, err := svc.Create(context.Background(), backup.DefaultBackupOptions())
	require.NoError(t, err)

	assert.FileExists(t, result.Path)
	assert.Positive(t, result.Size)
	assert.NotEmpty(t, result.Checksum)
	assert.Equal(t, 1, result.Counts.Users)
	assert.Equal(t, 1, result.Counts.Carts)
	assert.Equal(t, 1, result.Counts.Todos)
	assert.Equal(t, 1, result.Counts.Activities)
}

func TestBackupCreate_WithoutActivities(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)

	result, err := svc.Create(context.Background(), backup.BackupOptions{})
	require.NoError(t, err)
	assert.Zero(t, result.Counts.Activities)
}

func TestBackupListAndDelete(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)

	result, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	backups, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, result.Path, backups[0].Path)

	info, err := svc.Get(ctx, backups[0].ID)
	require.NoError(t, err)
	assert.Equal(t, result.Size, info.Size)

	require.NoError(t, svc.Delete(ctx, backups[0].ID))

	_, err = svc.Get(ctx, backups[0].ID)
	assert.ErrorIs(t, err, backup.ErrBackupNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, backups[0].ID), backup.ErrBackupNotFound)
}

func TestRestoreValidate(t *testing.T) {
	treeStore, activities, svc, tmpDir := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	result, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	restore := backup.NewRestoreService(treeStore, "", nil)

	validation, err := restore.Validate(result.Path)
	require.NoError(t, err)
	assert.True(t, validation.Valid)
	require.NotNil(t, validation.Manifest)
	assert.Equal(t, backup.FormatVersion, validation.Manifest.Version)
	assert.Equal(t, "Test Server", validation.Manifest.ServerName)
	assert.Equal(t, 1, validation.Manifest.Counts.Carts)

	_, err = restore.Validate(filepath.Join(tmpDir, "nope.cartboard.zip"))
	assert.ErrorIs(t, err, backup.ErrBackupNotFound)
}

func TestRestoreFull(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	created, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	// Restore into a fresh store and a fresh activities path.
	targetDir := t.TempDir()
	target, err := store.New(filepath.Join(targetDir, "tree"), nil)
	require.NoError(t, err)
	defer target.Close()

	activitiesPath := filepath.Join(targetDir, "activities.db")
	restore := backup.NewRestoreService(target, activitiesPath, nil)

	result, err := restore.Restore(ctx, created.Path, backup.RestoreOptions{Mode: backup.RestoreModeFull})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported["users"])
	assert.Equal(t, 1, result.Imported["carts"])

	user, err := target.GetUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	snap, err := target.ReadOnce(ctx, "carts/cart1")
	require.NoError(t, err)
	assert.True(t, snap.Exists())

	restored, err := sqlite.Open(activitiesPath, nil)
	require.NoError(t, err)
	defer restored.Close()

	count, err := restored.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRestoreFullWipesExisting(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	created, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	// Data written after the backup must not survive a full restore.
	require.NoError(t, treeStore.Write(ctx, "carts/cart2", map[string]any{
		"id":   "cart2",
		"name": "Hardware",
	}))

	restore := backup.NewRestoreService(treeStore, "", nil)
	_, err = restore.Restore(ctx, created.Path, backup.RestoreOptions{Mode: backup.RestoreModeFull})
	require.NoError(t, err)

	snap, err := treeStore.ReadOnce(ctx, "carts/cart2")
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	snap, err = treeStore.ReadOnce(ctx, "carts/cart1")
	require.NoError(t, err)
	assert.True(t, snap.Exists())
}

func TestRestoreMergeKeepsExisting(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	created, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	require.NoError(t, treeStore.Write(ctx, "carts/cart2", map[string]any{
		"id":   "cart2",
		"name": "Hardware",
	}))

	restore := backup.NewRestoreService(treeStore, "", nil)
	_, err = restore.Restore(ctx, created.Path, backup.RestoreOptions{Mode: backup.RestoreModeMerge})
	require.NoError(t, err)

	// Both the restored cart and the newer local cart are present.
	for _, path := range []string{"carts/cart1", "carts/cart2"} {
		snap, err := treeStore.ReadOnce(ctx, path)
		require.NoError(t, err)
		assert.True(t, snap.Exists(), path)
	}
}

func TestRestoreDryRun(t *testing.T) {
	treeStore, activities, svc, _ := testSetup(t)
	seedStores(t, treeStore, activities)
	ctx := context.Background()

	created, err := svc.Create(ctx, backup.DefaultBackupOptions())
	require.NoError(t, err)

	targetDir := t.TempDir()
	target, err := store.New(filepath.Join(targetDir, "tree"), nil)
	require.NoError(t, err)
	defer target.Close()

	restore := backup.NewRestoreService(target, "", nil)
	result, err := restore.Restore(ctx, created.Path, backup.RestoreOptions{
		Mode:   backup.RestoreModeFull,
		DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Imported["carts"])

	// Nothing was written.
	_, err = target.GetUser(ctx, "user1")
	assert.Error(t, err)
}

func TestRestoreInvalidMode(t *testing.T) {
	treeStore, _, _, _ := testSetup(t)

	restore := backup.NewRestoreService(treeStore, "", nil)
	_, err := restore.Restore(context.Background(), "ignored", backup.RestoreOptions{Mode: "sideways"})
	assert.Error(t, err)
}
