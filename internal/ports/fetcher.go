package ports

import (
	"context"

	"pkgsmith/internal/types"
)

// FetcherPort materializes a working source tree for a source spec.
type FetcherPort interface {
	// Fetch populates destDir with the package source and returns the
	// source root. When destDir already holds a tree and force is false
	// the existing tree is reused without network activity.
	Fetch(ctx context.Context, spec types.SourceSpec, destDir string, force bool) (string, error)
}
