package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsmith/internal/types"
)

var validBuildSystems = map[types.BuildSystem]struct{}{
	types.BuildSystemAutotools: {},
	types.BuildSystemCMake:     {},
	types.BuildSystemMeson:     {},
	types.BuildSystemMake:      {},
	types.BuildSystemCargo:     {},
	types.BuildSystemCustom:    {},
}

var validSourceTypes = map[types.SourceType]struct{}{
	types.SourceTypeGit:     {},
	types.SourceTypeTarball: {},
	types.SourceTypeZip:     {},
	types.SourceTypeLocal:   {},
}

// ValidateManifest checks the closed-variant invariants of a loaded
// manifest: a name, at least one version, unique version strings, and a
// structurally valid source spec and build system per entry. Unknown or
// invalid fields fail here rather than being silently coerced.
func ValidateManifest(ctx context.Context, manifest types.Manifest) error {
	assert.NotEmpty(ctx, manifest.Name, "manifest name must be set")
	if len(manifest.Versions) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s has no versions", manifest.Name))
	}
	seen := map[string]struct{}{}
	for _, entry := range manifest.Versions {
		if entry.Version == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s has a version entry without a version", manifest.Name))
		}
		if _, ok := seen[entry.Version]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s repeats version %s", manifest.Name, entry.Version))
		}
		seen[entry.Version] = struct{}{}
		if err := validateEntry(manifest.Name, entry); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(name string, entry types.VersionEntry) error {
	if _, ok := validBuildSystems[entry.BuildSystem]; !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s@%s has unknown build system %q", name, entry.Version, entry.BuildSystem))
	}
	if entry.BuildSystem == types.BuildSystemCustom && len(entry.BuildCommands) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s@%s uses the custom build system without build_commands", name, entry.Version))
	}
	return validateSource(name, entry.Version, entry.Source)
}

func validateSource(name string, version string, source types.SourceSpec) error {
	if _, ok := validSourceTypes[source.Type]; !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s@%s has unknown source type %q", name, version, source.Type))
	}
	switch source.Type {
	case types.SourceTypeLocal:
		if source.Path == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s@%s local source requires a path", name, version))
		}
		if source.URL != "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s@%s local source must not set a url", name, version))
		}
	default:
		if source.URL == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s@%s %s source requires a url", name, version, source.Type))
		}
		if source.Path != "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("manifest %s@%s %s source must not set a path", name, version, source.Type))
		}
	}
	refs := 0
	for _, ref := range []string{source.Branch, source.Tag, source.Commit} {
		if ref != "" {
			refs++
		}
	}
	if source.Type != types.SourceTypeGit && refs > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s@%s %s source must not set a git ref", name, version, source.Type))
	}
	if refs > 1 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("manifest %s@%s git source sets more than one of branch, tag, commit", name, version))
	}
	return nil
}
