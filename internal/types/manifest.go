package types

// Manifest is the package definition document for one package. Versions
// are kept newest-first by convention; the order is preserved exactly as
// loaded and Merge only prepends or replaces entries.
type Manifest struct {
	// Name is the package name, unique within a repository.
	Name string `yaml:"name" json:"name"`

	// Versions holds one entry per published version. Version strings
	// are unique within a manifest.
	Versions []VersionEntry `yaml:"versions" json:"versions"`
}

// Head returns the first (latest by convention) version entry.
func (m Manifest) Head() (VersionEntry, bool) {
	if len(m.Versions) == 0 {
		return VersionEntry{}, false
	}
	return m.Versions[0], true
}

// FindVersion returns the entry matching the exact version string.
func (m Manifest) FindVersion(version string) (VersionEntry, bool) {
	for _, entry := range m.Versions {
		if entry.Version == version {
			return entry, true
		}
	}
	return VersionEntry{}, false
}

// VersionEntry is one versioned build definition within a Manifest.
type VersionEntry struct {
	Version     string     `yaml:"version" json:"version"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Source      SourceSpec `yaml:"source" json:"source"`

	// Dependencies and BuildDependencies reference other packages as
	// "name" or "name@version".
	Dependencies      []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	BuildDependencies []string `yaml:"build_dependencies,omitempty" json:"build_dependencies,omitempty"`

	BuildSystem BuildSystem `yaml:"build_system" json:"build_system"`

	ConfigureArgs []string `yaml:"configure_args,omitempty" json:"configure_args,omitempty"`
	CMakeArgs     []string `yaml:"cmake_args,omitempty" json:"cmake_args,omitempty"`
	MesonArgs     []string `yaml:"meson_args,omitempty" json:"meson_args,omitempty"`
	MakeArgs      []string `yaml:"make_args,omitempty" json:"make_args,omitempty"`

	// BuildCommands is the verbatim command list for the custom build
	// system. InstallCommands, when present, replaces the install step
	// of whichever build system is selected.
	BuildCommands   []string `yaml:"build_commands,omitempty" json:"build_commands,omitempty"`
	InstallCommands []string `yaml:"install_commands,omitempty" json:"install_commands,omitempty"`

	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Patches are applied in order before the build. Entries are local
	// paths or URLs to unified diffs.
	Patches []string `yaml:"patches,omitempty" json:"patches,omitempty"`
}

// AllDependencies returns runtime and build dependencies in manifest
// order, deduplicated, runtime first. Both kinds are full graph edges
// for ordering purposes.
func (e VersionEntry) AllDependencies() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, dep := range append(append([]string{}, e.Dependencies...), e.BuildDependencies...) {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}

// SourceSpec describes where and how to obtain a package's source code.
// Exactly one variant is active, selected by Type and validated at load.
type SourceSpec struct {
	Type SourceType `yaml:"type" json:"type"`

	// URL is set for git, tarball and zip sources.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Path is set for local sources.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Branch, Tag and Commit select a ref for git sources. At most one
	// should be set; Commit wins over Tag, Tag over Branch.
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Tag    string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Commit string `yaml:"commit,omitempty" json:"commit,omitempty"`
}

// Ref returns the git ref to check out, or "" when the clone default
// branch should be used.
func (s SourceSpec) Ref() string {
	switch {
	case s.Commit != "":
		return s.Commit
	case s.Tag != "":
		return s.Tag
	default:
		return s.Branch
	}
}
