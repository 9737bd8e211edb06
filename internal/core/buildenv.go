package core

import (
	"fmt"
	"sort"
	"strings"

	"pkgsmith/internal/types"
)

// pathListVars are prepended per prefix with a ":" separator; flagVars
// accumulate space-separated compiler and linker flags.
var pathListVars = []struct {
	name string
	sub  func(prefix string) string
}{
	{"PATH", func(p string) string { return p + "/bin" }},
	{"PKG_CONFIG_PATH", func(p string) string { return p + "/lib/pkgconfig" }},
	{"LD_LIBRARY_PATH", func(p string) string { return p + "/lib" }},
	{"CMAKE_PREFIX_PATH", func(p string) string { return p }},
}

// BuildEnv computes the environment for one package build: the base
// environment, then derived search-path and flag variables pointing at
// the target prefix and every dependency prefix, then the manifest's own
// env entries (highest precedence). The result keeps a package's build
// aware of its dependencies without any system-wide exposure.
func BuildEnv(entry types.VersionEntry, prefix string, depPrefixes []string, base []string) []string {
	env := map[string]string{}
	var order []string
	set := func(key string, value string) {
		if _, ok := env[key]; !ok {
			order = append(order, key)
		}
		env[key] = value
	}
	for _, kv := range base {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		set(key, value)
	}

	prefixes := dedupePrefixes(append([]string{prefix}, depPrefixes...))
	for _, v := range pathListVars {
		var parts []string
		for _, p := range prefixes {
			parts = append(parts, v.sub(p))
		}
		if existing := env[v.name]; existing != "" {
			parts = append(parts, existing)
		}
		set(v.name, strings.Join(parts, ":"))
	}

	var includes, libs []string
	for _, p := range prefixes {
		includes = append(includes, "-I"+p+"/include")
		libs = append(libs, "-L"+p+"/lib")
	}
	set("CPPFLAGS", joinFlags(strings.Join(includes, " "), env["CPPFLAGS"]))
	set("LDFLAGS", joinFlags(strings.Join(libs, " "), env["LDFLAGS"]))

	// Custom build and install commands address the target through
	// $PREFIX rather than a hardcoded path.
	set("PREFIX", prefix)

	manifestKeys := make([]string, 0, len(entry.Env))
	for key := range entry.Env {
		manifestKeys = append(manifestKeys, key)
	}
	sort.Strings(manifestKeys)
	for _, key := range manifestKeys {
		set(key, entry.Env[key])
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, fmt.Sprintf("%s=%s", key, env[key]))
	}
	return out
}

func dedupePrefixes(prefixes []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func joinFlags(derived string, existing string) string {
	if strings.TrimSpace(existing) == "" {
		return derived
	}
	return derived + " " + existing
}
