// Package registrar records the files produced by an export run in a manifest
// consumed by the indexing service.
//
// The manifest is a YAML document written next to the exported files once the
// run completes. It is written atomically, so a reader never observes a
// partially written manifest.
package registrar

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/catalog-exporter/internal/export"
	"github.com/stacklok/catalog-exporter/internal/status"
)

// ManifestFileName is the name of the manifest inside a run directory
const ManifestFileName = "manifest.yaml"

// Manifest describes the files of one export run
type Manifest struct {
	RunID           string              `yaml:"runId"`
	Account         string              `yaml:"account"`
	Type            status.ExportType   `yaml:"type"`
	Status          status.ExportStatus `yaml:"status"`
	StartedAt       time.Time           `yaml:"startedAt"`
	CompletedAt     time.Time           `yaml:"completedAt"`
	Entities        []EntityFile        `yaml:"entities"`
	Relations       []RelationFile      `yaml:"relations"`
	AuxiliaryTables []AuxiliaryTable    `yaml:"auxiliaryTables"`
}

// EntityFile is the primary file of an entity
type EntityFile struct {
	Path    string   `yaml:"path"`
	Entity  string   `yaml:"entity"`
	IDField string   `yaml:"idField"`
	Columns []string `yaml:"columns"`
}

// RelationFile links entities to one attribute
type RelationFile struct {
	Path         string            `yaml:"path"`
	JoinKey      string            `yaml:"joinKey"`
	ValueColumns []string          `yaml:"valueColumns"`
	Params       map[string]string `yaml:"params,omitempty"`
}

// AuxiliaryTable is a side table exported as is
type AuxiliaryTable struct {
	Path       string   `yaml:"path"`
	Entity     string   `yaml:"entity"`
	JoinColumn string   `yaml:"joinColumn"`
	Columns    []string `yaml:"columns"`
}

// ManifestRegistrar collects registrations and writes them on Finalize
type ManifestRegistrar struct {
	dir string

	mu        sync.Mutex
	manifest  Manifest
	finalized bool
}

var _ export.Registrar = (*ManifestRegistrar)(nil)

// NewManifestRegistrar creates a registrar writing its manifest into dir.
// Registered paths are stored relative to dir when they live below it.
func NewManifestRegistrar(dir, runID, account string, typ status.ExportType, startedAt time.Time) *ManifestRegistrar {
	return &ManifestRegistrar{
		dir: dir,
		manifest: Manifest{
			RunID:     runID,
			Account:   account,
			Type:      typ,
			StartedAt: startedAt.UTC(),
		},
	}
}

// RegisterEntityFile implements export.Registrar
func (r *ManifestRegistrar) RegisterEntityFile(path, entity, idField string, columns []string) error {
	return r.register(func(m *Manifest) {
		m.Entities = append(m.Entities, EntityFile{
			Path:    r.relative(path),
			Entity:  entity,
			IDField: idField,
			Columns: slices.Clone(columns),
		})
	})
}

// RegisterRelationFile implements export.Registrar
func (r *ManifestRegistrar) RegisterRelationFile(
	path, joinKey string,
	valueColumns []string,
	params map[string]string,
) error {
	var paramsCopy map[string]string
	if len(params) > 0 {
		paramsCopy = make(map[string]string, len(params))
		for k, v := range params {
			paramsCopy[k] = v
		}
	}
	return r.register(func(m *Manifest) {
		m.Relations = append(m.Relations, RelationFile{
			Path:         r.relative(path),
			JoinKey:      joinKey,
			ValueColumns: slices.Clone(valueColumns),
			Params:       paramsCopy,
		})
	})
}

// RegisterAuxiliaryTable implements export.Registrar
func (r *ManifestRegistrar) RegisterAuxiliaryTable(path, entity, joinColumn string, columns []string) error {
	return r.register(func(m *Manifest) {
		m.AuxiliaryTables = append(m.AuxiliaryTables, AuxiliaryTable{
			Path:       r.relative(path),
			Entity:     entity,
			JoinColumn: joinColumn,
			Columns:    slices.Clone(columns),
		})
	})
}

func (r *ManifestRegistrar) register(add func(m *Manifest)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return fmt.Errorf("manifest of run %s is already finalized", r.manifest.RunID)
	}
	add(&r.manifest)
	return nil
}

func (r *ManifestRegistrar) relative(path string) string {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Finalize records the outcome of the run and writes the manifest. No
// registration is accepted afterwards.
func (r *ManifestRegistrar) Finalize(st status.ExportStatus, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return fmt.Errorf("manifest of run %s is already finalized", r.manifest.RunID)
	}

	r.manifest.Status = st
	r.manifest.CompletedAt = completedAt.UTC()

	data, err := yaml.Marshal(&r.manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := renameio.WriteFile(r.Path(), data, 0o640); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	r.finalized = true
	return nil
}

// Path returns the location of the manifest
func (r *ManifestRegistrar) Path() string {
	return filepath.Join(r.dir, ManifestFileName)
}

// ReadManifest loads a manifest written by Finalize
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
