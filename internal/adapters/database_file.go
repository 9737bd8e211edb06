package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pkgsmith/internal/ports"
	"pkgsmith/internal/types"
)

const databaseFileName = "installed.json"

// FileDatabase persists installed-package records as one JSON document
// keyed by package name. Every write goes through a temp-file rename so
// an interrupted process never corrupts the record set; a record only
// exists once its install fully succeeded.
type FileDatabase struct {
	Dir string
}

func NewFileDatabase(dir string) FileDatabase {
	return FileDatabase{Dir: dir}
}

func (d FileDatabase) path() string {
	return filepath.Join(d.Dir, databaseFileName)
}

func (d FileDatabase) load() (map[string]types.InstalledRecord, error) {
	data, err := os.ReadFile(d.path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]types.InstalledRecord{}, nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database read failed").
			WithCause(err)
	}
	records := map[string]types.InstalledRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database read failed: corrupt record set").
			WithCause(err)
	}
	return records, nil
}

func (d FileDatabase) save(records map[string]types.InstalledRecord) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database write failed").
			WithCause(err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database write failed").
			WithCause(err)
	}
	if err := writeFileAtomic(d.path(), data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("database write failed").
			WithCause(err)
	}
	return nil
}

func (d FileDatabase) Record(record types.InstalledRecord) error {
	if strings.TrimSpace(record.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("record name is empty")
	}
	records, err := d.load()
	if err != nil {
		return err
	}
	records[record.Name] = record
	return d.save(records)
}

func (d FileDatabase) Query(name string) (types.InstalledRecord, error) {
	records, err := d.load()
	if err != nil {
		return types.InstalledRecord{}, err
	}
	record, ok := records[name]
	if !ok {
		return types.InstalledRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not installed: %s", name))
	}
	return record, nil
}

func (d FileDatabase) List() ([]types.InstalledRecord, error) {
	records, err := d.load()
	if err != nil {
		return nil, err
	}
	out := make([]types.InstalledRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d FileDatabase) Remove(name string) error {
	records, err := d.load()
	if err != nil {
		return err
	}
	if _, ok := records[name]; !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not installed: %s", name))
	}
	delete(records, name)
	return d.save(records)
}

var _ ports.DatabasePort = FileDatabase{}
