package types

import "path/filepath"

// Paths maps out the filesystem layout under one install prefix.
// Installed artifacts land in Bin/Lib/Include; the remaining directories
// are working state owned by the repository, database, fetcher and
// builder respectively.
type Paths struct {
	Prefix    string
	Bin       string
	Lib       string
	Include   string
	Manifests string
	DB        string
	Sources   string
	Build     string
}

func NewPaths(prefix string) Paths {
	return Paths{
		Prefix:    prefix,
		Bin:       filepath.Join(prefix, "bin"),
		Lib:       filepath.Join(prefix, "lib"),
		Include:   filepath.Join(prefix, "include"),
		Manifests: filepath.Join(prefix, "manifests"),
		DB:        filepath.Join(prefix, "db"),
		Sources:   filepath.Join(prefix, "sources"),
		Build:     filepath.Join(prefix, "build"),
	}
}
