package backup

import (
	"archive/zip"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/store"
)

// RestoreService restores backup archives into the stores.
type RestoreService struct {
	store *store.Store

	// activitiesPath is where the activity database is written on
	// restore. Empty skips the activity feed. The sqlite store must not
	// be open on this path while restoring.
	activitiesPath string

	logger *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s *store.Store, activitiesPath string, logger *slog.Logger) *RestoreService {
	return &RestoreService{
		store:          s,
		activitiesPath: activitiesPath,
		logger:         logger,
	}
}

// Validate checks that the archive at path is a restorable backup.
func (s *RestoreService) Validate(path string) (*ValidationResult, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrBackupNotFound
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	defer zr.Close()

	result := &ValidationResult{Valid: true}

	manifest, err := readManifest(&zr.Reader)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Manifest = manifest

	if major(manifest.Version) != major(FormatVersion) {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported backup version %s", manifest.Version))
	}

	if findEntry(&zr.Reader, treeEntry) == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "missing tree snapshot")
	}

	if manifest.IncludesActivities && findEntry(&zr.Reader, activitiesEntry) == nil {
		result.Warnings = append(result.Warnings,
			"manifest promises an activity feed but the archive has none")
	}

	return result, nil
}

// Restore applies the archive at path to the stores.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("invalid restore mode %q", opts.Mode)
	}

	validation, err := s.Validate(path)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %s", ErrCorruptedBackup, strings.Join(validation.Errors, "; "))
	}

	manifest := validation.Manifest
	imported := map[string]int{
		"users":    manifest.Counts.Users,
		"carts":    manifest.Counts.Carts,
		"todos":    manifest.Counts.Todos,
		"sessions": manifest.Counts.Sessions,
	}
	if manifest.IncludesActivities {
		imported["activities"] = manifest.Counts.Activities
	}

	if opts.DryRun {
		return &RestoreResult{
			Imported: imported,
			DryRun:   true,
			Duration: time.Since(start),
		}, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	defer zr.Close()

	if s.logger != nil {
		s.logger.Info("restoring backup",
			"path", path,
			"mode", opts.Mode,
			"created_at", manifest.CreatedAt)
	}

	if opts.Mode == RestoreModeFull {
		if err := s.store.DropAll(); err != nil {
			return nil, fmt.Errorf("clear store: %w", err)
		}
	}

	tree := findEntry(&zr.Reader, treeEntry)
	tr, err := tree.Open()
	if err != nil {
		return nil, fmt.Errorf("open tree snapshot: %w", err)
	}
	defer tr.Close()

	if err := s.store.Load(tr); err != nil {
		return nil, fmt.Errorf("load tree snapshot: %w", err)
	}

	if s.activitiesPath != "" {
		if entry := findEntry(&zr.Reader, activitiesEntry); entry != nil {
			if err := s.restoreActivities(entry, opts.Mode); err != nil {
				return nil, err
			}
		}
	}

	result := &RestoreResult{
		Imported: imported,
		Duration: time.Since(start),
	}

	if s.logger != nil {
		s.logger.Info("restore complete",
			"path", path,
			"duration", result.Duration)
	}

	return result, nil
}

// restoreActivities extracts the activity database next to the store. In
// merge mode an existing database is kept.
func (s *RestoreService) restoreActivities(entry *zip.File, mode RestoreMode) error {
	if mode == RestoreModeMerge {
		if _, err := os.Stat(s.activitiesPath); err == nil {
			if s.logger != nil {
				s.logger.Info("keeping existing activity database", "path", s.activitiesPath)
			}
			return nil
		}
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open activities entry: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.activitiesPath)
	if err != nil {
		return fmt.Errorf("create activities database: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extract activities database: %w", err)
	}
	return dst.Close()
}

// readManifest decodes the manifest entry from an open archive.
func readManifest(zr *zip.Reader) (*Manifest, error) {
	entry := findEntry(zr, manifestEntry)
	if entry == nil {
		return nil, ErrInvalidManifest
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &manifest, nil
}

// findEntry returns the named file from the archive, or nil.
func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// major returns the major component of a format version like "1.0".
func major(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}
