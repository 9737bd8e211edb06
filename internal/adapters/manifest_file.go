package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"pkgsmith/internal/core"
	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

// manifestDoc is the on-disk document shape. A package publishes either
// a "versions" list or a single flattened version; the flattened form
// normalizes to a one-element list on load. YAML is a superset of JSON,
// so .json and .yaml documents share one decoder.
type manifestDoc struct {
	Name               string               `yaml:"name"`
	Versions           []types.VersionEntry `yaml:"versions"`
	types.VersionEntry `yaml:",inline"`
}

var manifestExtensions = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
}

// ManifestRepository loads and serves package manifests from a single
// directory, one document per package. A malformed document aborts the
// whole load; nothing from a bad file is ever partially ingested.
type ManifestRepository struct {
	Dir string

	manifests map[string]types.Manifest
	files     map[string]string
}

func NewManifestRepository(dir string) *ManifestRepository {
	return &ManifestRepository{
		Dir:       dir,
		manifests: map[string]types.Manifest{},
		files:     map[string]string{},
	}
}

func (r *ManifestRepository) Load() error {
	if strings.TrimSpace(r.Dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest directory is empty")
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create manifest directory").
			WithCause(err)
	}
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read manifest directory").
			WithCause(err)
	}

	manifests := map[string]types.Manifest{}
	files := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := manifestExtensions[filepath.Ext(entry.Name())]; !ok {
			continue
		}
		path := filepath.Join(r.Dir, entry.Name())
		manifest, err := loadManifestFile(path)
		if err != nil {
			return err
		}
		if _, exists := manifests[manifest.Name]; exists {
			return parseError(path, fmt.Errorf("package %s is defined by more than one document", manifest.Name))
		}
		manifests[manifest.Name] = manifest
		files[manifest.Name] = path
	}
	r.manifests = manifests
	r.files = files
	return nil
}

func loadManifestFile(path string) (types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Manifest{}, parseError(path, err)
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.Manifest{}, parseError(path, err)
	}
	manifest := types.Manifest{Name: doc.Name, Versions: doc.Versions}
	if len(manifest.Versions) == 0 && doc.VersionEntry.Version != "" {
		manifest.Versions = []types.VersionEntry{doc.VersionEntry}
	}
	if manifest.Name == "" {
		return types.Manifest{}, parseError(path, fmt.Errorf("manifest has no name"))
	}
	if err := core.ValidateManifest(context.Background(), manifest); err != nil {
		return types.Manifest{}, parseError(path, err)
	}
	return manifest, nil
}

func parseError(path string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("manifest parse failed: %s", path)).
		WithCause(cause)
}

func (r *ManifestRepository) Find(name string) (types.Manifest, error) {
	manifest, ok := r.manifests[name]
	if !ok {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not found: %s", name))
	}
	return manifest, nil
}

func (r *ManifestRepository) ResolveVersion(name string, constraint string) (types.VersionEntry, error) {
	manifest, err := r.Find(name)
	if err != nil {
		return types.VersionEntry{}, err
	}
	if strings.TrimSpace(constraint) == "" {
		entry, ok := manifest.Head()
		if !ok {
			return types.VersionEntry{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("version not found: %s has no versions", name))
		}
		return entry, nil
	}
	entry, ok := manifest.FindVersion(constraint)
	if !ok {
		return types.VersionEntry{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("version not found: %s@%s", name, constraint))
	}
	return entry, nil
}

// Merge folds an incoming manifest into the repository. New versions are
// prepended keeping their relative order; versions that already exist
// are replaced in place. Existing entries are never removed, so an
// update can only grow or refresh the published history.
func (r *ManifestRepository) Merge(incoming types.Manifest) error {
	if err := core.ValidateManifest(context.Background(), incoming); err != nil {
		return err
	}
	current, ok := r.manifests[incoming.Name]
	if !ok {
		r.manifests[incoming.Name] = incoming
		return r.persist(incoming)
	}

	merged := append([]types.VersionEntry{}, current.Versions...)
	var fresh []types.VersionEntry
	for _, entry := range incoming.Versions {
		replaced := false
		for i := range merged {
			if merged[i].Version == entry.Version {
				merged[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			fresh = append(fresh, entry)
		}
	}
	if len(fresh) > 0 && len(merged) > 0 {
		if core.CompareVersions(fresh[0].Version, merged[0].Version) < 0 {
			log.Warn().
				Str("package", incoming.Name).
				Str("incoming", fresh[0].Version).
				Str("head", merged[0].Version).
				Msg("merged version sorts older than the current head")
		}
	}
	current.Versions = append(fresh, merged...)
	r.manifests[incoming.Name] = current
	return r.persist(current)
}

// persist writes a manifest back to its source document, keeping the
// original format; packages that never existed on disk get a new .yaml
// document.
func (r *ManifestRepository) persist(manifest types.Manifest) error {
	path, ok := r.files[manifest.Name]
	if !ok {
		path = filepath.Join(r.Dir, manifest.Name+".yaml")
		r.files[manifest.Name] = path
	}

	var data []byte
	var err error
	if filepath.Ext(path) == ".json" {
		data, err = json.MarshalIndent(manifestToDoc(manifest), "", "  ")
	} else {
		data, err = yaml.Marshal(manifestToDoc(manifest))
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to encode manifest %s", manifest.Name)).
			WithCause(err)
	}
	return writeFileAtomic(path, data, 0o644)
}

// persistedManifest is the multi-version document shape used when
// writing manifests back out.
type persistedManifest struct {
	Name     string               `yaml:"name" json:"name"`
	Versions []types.VersionEntry `yaml:"versions" json:"versions"`
}

func manifestToDoc(manifest types.Manifest) persistedManifest {
	return persistedManifest{Name: manifest.Name, Versions: manifest.Versions}
}

func (r *ManifestRepository) List() []string {
	names := make([]string, 0, len(r.manifests))
	for name := range r.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ManifestRepository) Search(query string) []types.Manifest {
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []types.Manifest
	for _, name := range r.List() {
		manifest := r.manifests[name]
		head, _ := manifest.Head()
		if strings.Contains(strings.ToLower(manifest.Name), needle) ||
			strings.Contains(strings.ToLower(head.Description), needle) {
			out = append(out, manifest)
		}
	}
	return out
}

var _ ports.RepositoryPort = (*ManifestRepository)(nil)
