package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive entry names.
const (
	manifestEntry   = "manifest.json"
	treeEntry       = "tree.bak"
	activitiesEntry = "activities.db"
)

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Server identity
	ServerName       string `json:"server_name"`
	CartboardVersion string `json:"cartboard_version"`

	// Content summary
	Counts EntityCounts `json:"counts"`

	// What's included
	IncludesActivities bool `json:"includes_activities"`
}

// EntityCounts tracks record counts for validation and progress reporting.
type EntityCounts struct {
	Users      int `json:"users"`
	Carts      int `json:"carts"`
	Todos      int `json:"todos"`
	Sessions   int `json:"sessions"`
	Activities int `json:"activities,omitempty"`
}
