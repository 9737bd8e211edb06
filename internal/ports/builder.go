package ports

import (
	"context"

	"pkgsmith/internal/types"
)

// BuildRequest carries everything one build needs. DepPrefixes lists the
// install prefixes of already-resolved dependencies, in plan order, used
// to derive search-path and compiler-flag variables.
type BuildRequest struct {
	SourceDir   string
	BuildDir    string
	Entry       types.VersionEntry
	Prefix      string
	DepPrefixes []string
}

// BuilderPort applies patches, prepares the environment and drives the
// build-system command sequence for one plan node. Writes stay inside
// the prefix tree and the build directory.
type BuilderPort interface {
	// Patch applies the entry's patches in order against the source tree.
	Patch(ctx context.Context, sourceDir string, entry types.VersionEntry) error

	// Build runs the configure/compile steps for the entry's build system.
	Build(ctx context.Context, req BuildRequest) error

	// Install runs the install step, placing artifacts under req.Prefix.
	Install(ctx context.Context, req BuildRequest) error
}
