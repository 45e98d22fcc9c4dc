package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
)

const archiveSuffix = ".cartboard.zip"

// BackupService manages backup creation and listing.
type BackupService struct {
	store      *store.Store
	activities *sqlite.Store
	backupDir  string
	serverName string
	version    string
	logger     *slog.Logger
}

// NewBackupService creates a BackupService. The activities store may be
// nil, in which case the activity feed is left out of backups.
func NewBackupService(s *store.Store, activities *sqlite.Store, backupDir, serverName, version string, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:      s,
		activities: activities,
		backupDir:  backupDir,
		serverName: serverName,
		version:    version,
		logger:     logger,
	}
}

// Create creates a new backup archive.
func (s *BackupService) Create(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, fmt.Sprintf("backup-%s%s", timestamp, archiveSuffix))
	}

	includeActivities := opts.IncludeActivities && s.activities != nil

	if s.logger != nil {
		s.logger.Info("creating backup",
			"output", outputPath,
			"include_activities", includeActivities)
	}

	stats, err := s.store.Stats()
	if err != nil {
		return nil, fmt.Errorf("collect store stats: %w", err)
	}

	counts := EntityCounts{
		Users:    stats.Users,
		Carts:    stats.Carts,
		Todos:    stats.Todos,
		Sessions: stats.Sessions,
	}
	if includeActivities {
		counts.Activities, err = s.activities.CountActivities(ctx)
		if err != nil {
			return nil, fmt.Errorf("count activities: %w", err)
		}
	}

	manifest := Manifest{
		Version:            FormatVersion,
		CreatedAt:          time.Now().UTC(),
		ServerName:         s.serverName,
		CartboardVersion:   s.version,
		Counts:             counts,
		IncludesActivities: includeActivities,
	}

	// Write to a temp file first so a failed backup never leaves a
	// half-written archive behind.
	tmpPath := outputPath + ".tmp"
	if err := s.writeArchive(ctx, tmpPath, manifest, includeActivities); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	checksum, size, err := checksumFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("checksum backup: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("finalize backup: %w", err)
	}

	result := &BackupResult{
		Path:     outputPath,
		Size:     size,
		Counts:   counts,
		Duration: time.Since(start),
		Checksum: checksum,
	}

	if s.logger != nil {
		s.logger.Info("backup complete",
			"path", result.Path,
			"size", result.Size,
			"duration", result.Duration,
			"checksum", result.Checksum)
	}

	return result, nil
}

// writeArchive writes the manifest, tree snapshot, and optional activity
// database into a zip archive at path.
func (s *BackupService) writeArchive(ctx context.Context, path string, manifest Manifest, includeActivities bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	mw, err := zw.Create(manifestEntry)
	if err != nil {
		return fmt.Errorf("create manifest entry: %w", err)
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	tw, err := zw.Create(treeEntry)
	if err != nil {
		return fmt.Errorf("create tree entry: %w", err)
	}
	if _, err := s.store.Backup(tw); err != nil {
		return fmt.Errorf("backup tree store: %w", err)
	}

	if includeActivities {
		if err := s.writeActivities(ctx, zw); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return f.Close()
}

// writeActivities snapshots the activity database with VACUUM INTO and
// copies the result into the archive.
func (s *BackupService) writeActivities(ctx context.Context, zw *zip.Writer) error {
	tmpDir, err := os.MkdirTemp("", "cartboard-backup")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, activitiesEntry)
	if err := s.activities.BackupTo(ctx, snapshot); err != nil {
		return fmt.Errorf("snapshot activities: %w", err)
	}

	src, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("open activities snapshot: %w", err)
	}
	defer src.Close()

	aw, err := zw.Create(activitiesEntry)
	if err != nil {
		return fmt.Errorf("create activities entry: %w", err)
	}
	if _, err := io.Copy(aw, src); err != nil {
		return fmt.Errorf("copy activities snapshot: %w", err)
	}
	return nil
}

// checksumFile returns the hex SHA-256 of the file at path and its size.
func checksumFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// List returns all available backups, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(ctx context.Context, id string) (*BackupInfo, error) {
	path := s.GetPath(id)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &BackupInfo{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	path := s.GetPath(id)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}

	return os.Remove(path)
}

// GetPath returns the file path for a backup ID.
func (s *BackupService) GetPath(id string) string {
	return filepath.Join(s.backupDir, id+archiveSuffix)
}
