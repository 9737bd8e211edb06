package ports

import "pkgsmith/internal/types"

// RepositoryPort exposes the on-disk manifest repository. Manifests are
// loaded once per operation and read-only during a session; Merge is the
// only mutation and never drops existing version entries.
type RepositoryPort interface {
	// Load parses every manifest document under the repository
	// directory, failing fast on any malformed document.
	Load() error

	// Find returns the manifest for a package name.
	Find(name string) (types.Manifest, error)

	// ResolveVersion selects a version entry. An empty constraint picks
	// the first (latest by convention) entry; anything else must match a
	// version string exactly.
	ResolveVersion(name string, constraint string) (types.VersionEntry, error)

	// Merge folds an incoming manifest into the repository: new versions
	// are prepended, existing versions replaced in place, nothing is
	// removed. The merged manifest is persisted.
	Merge(incoming types.Manifest) error

	// List returns all package names, sorted.
	List() []string

	// Search matches a query against package names and descriptions.
	Search(query string) []types.Manifest
}
