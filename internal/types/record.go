package types

import "time"

// InstalledRecord is the persisted fact that one package version is
// installed under one prefix. The database holds at most one record per
// package name; installing a different version replaces it in place.
type InstalledRecord struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Prefix       string    `json:"prefix"`
	InstalledAt  time.Time `json:"installed_at"`
	Dependencies []string  `json:"dependencies,omitempty"`

	// InstallDir is the directory the package's artifacts were installed
	// under, normally the prefix itself.
	InstallDir string `json:"install_dir"`

	// Files lists the paths, relative to InstallDir, that appeared under
	// the prefix during this package's install step. Removal deletes
	// exactly these paths.
	Files []string `json:"files,omitempty"`
}
