package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pkgsmith/internal/adapters"
	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// fakeRepo serves manifests from memory and records merges.
type fakeRepo struct {
	manifests map[string]types.Manifest
	merged    []string
	loads     int
}

func newFakeRepo(manifests ...types.Manifest) *fakeRepo {
	repo := &fakeRepo{manifests: map[string]types.Manifest{}}
	for _, manifest := range manifests {
		repo.manifests[manifest.Name] = manifest
	}
	return repo
}

func (r *fakeRepo) Load() error {
	r.loads++
	return nil
}

func (r *fakeRepo) Find(name string) (types.Manifest, error) {
	manifest, ok := r.manifests[name]
	if !ok {
		return types.Manifest{}, fmt.Errorf("package not found: %s", name)
	}
	return manifest, nil
}

func (r *fakeRepo) ResolveVersion(name string, constraint string) (types.VersionEntry, error) {
	manifest, err := r.Find(name)
	if err != nil {
		return types.VersionEntry{}, err
	}
	if constraint == "" {
		return manifest.Versions[0], nil
	}
	entry, ok := manifest.FindVersion(constraint)
	if !ok {
		return types.VersionEntry{}, fmt.Errorf("version not found: %s@%s", name, constraint)
	}
	return entry, nil
}

func (r *fakeRepo) Merge(incoming types.Manifest) error {
	r.manifests[incoming.Name] = incoming
	r.merged = append(r.merged, incoming.Name)
	return nil
}

func (r *fakeRepo) List() []string {
	names := make([]string, 0, len(r.manifests))
	for name := range r.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *fakeRepo) Search(query string) []types.Manifest {
	var out []types.Manifest
	for _, name := range r.List() {
		if strings.Contains(name, query) {
			out = append(out, r.manifests[name])
		}
	}
	return out
}

var _ ports.RepositoryPort = (*fakeRepo)(nil)

// fetchCall is one recorded Fetch invocation.
type fetchCall struct {
	url   string
	dest  string
	force bool
}

type fakeFetcher struct {
	calls  []fetchCall
	failOn map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{failOn: map[string]error{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, spec types.SourceSpec, destDir string, force bool) (string, error) {
	f.calls = append(f.calls, fetchCall{url: spec.URL, dest: destDir, force: force})
	if err := f.failOn[filepath.Base(destDir)]; err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(destDir, "Makefile"), []byte("all:\n"), 0o644); err != nil {
		return "", err
	}
	return destDir, nil
}

var _ ports.FetcherPort = (*fakeFetcher)(nil)

// fakeBuilder records each phase it runs as "<phase> <package>" and, on
// install, drops a file under the prefix the way a real build would.
type fakeBuilder struct {
	steps  []string
	failOn map[string]error

	// writeOnBuild makes the build phase place the artifact, the way
	// custom build_commands do; the install phase is then a no-op.
	writeOnBuild bool
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{failOn: map[string]error{}}
}

func packageOf(sourceDir string) string {
	return filepath.Base(sourceDir)
}

func (b *fakeBuilder) run(phase string, name string) error {
	b.steps = append(b.steps, phase+" "+name)
	return b.failOn[phase+" "+name]
}

func (b *fakeBuilder) Patch(_ context.Context, sourceDir string, _ types.VersionEntry) error {
	return b.run("patch", packageOf(sourceDir))
}

func (b *fakeBuilder) Build(_ context.Context, req ports.BuildRequest) error {
	name := packageOf(req.SourceDir)
	if err := b.run("build", name); err != nil {
		return err
	}
	if b.writeOnBuild {
		return writeArtifact(req.Prefix, name)
	}
	return nil
}

func (b *fakeBuilder) Install(_ context.Context, req ports.BuildRequest) error {
	name := packageOf(req.SourceDir)
	if err := b.run("install", name); err != nil {
		return err
	}
	if b.writeOnBuild {
		return nil
	}
	return writeArtifact(req.Prefix, name)
}

func writeArtifact(prefix string, name string) error {
	path := filepath.Join(prefix, "bin", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755)
}

var _ ports.BuilderPort = (*fakeBuilder)(nil)

type testService struct {
	*Service
	repo    *fakeRepo
	fetcher *fakeFetcher
	builder *fakeBuilder
}

func newTestService(t *testing.T, manifests ...types.Manifest) testService {
	t.Helper()
	paths := types.NewPaths(t.TempDir())
	repo := newFakeRepo(manifests...)
	fetcher := newFakeFetcher()
	builder := newFakeBuilder()
	svc := &Service{
		Paths:    paths,
		Repo:     repo,
		Resolver: core.NewResolver(repo),
		Fetcher:  fetcher,
		Builder:  builder,
		DB:       adapters.NewFileDatabase(paths.DB),
		Clock:    func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	}
	return testService{Service: svc, repo: repo, fetcher: fetcher, builder: builder}
}

func pkg(name string, version string, deps ...string) types.Manifest {
	return types.Manifest{
		Name: name,
		Versions: []types.VersionEntry{{
			Version:      version,
			Source:       types.SourceSpec{Type: types.SourceTypeTarball, URL: "https://example.com/" + name + ".tar.gz"},
			Dependencies: deps,
			BuildSystem:  types.BuildSystemMake,
		}},
	}
}

func TestNewServiceRequiresPrefix(t *testing.T) {
	_, err := NewService("  ")
	require.Error(t, err)
}

func TestNewServiceWiresAdapters(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, svc.Repo)
	require.NotNil(t, svc.Fetcher)
	require.NotNil(t, svc.Builder)
	require.NotNil(t, svc.DB)
	require.NotNil(t, svc.StageRepo)
}
