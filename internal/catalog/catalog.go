// Package catalog moves the task-template catalog between the database and
// YAML files, for seeding fresh databases and reviewing template changes
// before they apply.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/domain"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/store"
)

// catalogVersion is the current file format version.
const catalogVersion = 1

//go:embed defaults.yaml
var defaultCatalog []byte

// File is the on-disk catalog structure.
type File struct {
	Version   int                   `yaml:"version"`
	Templates []domain.TaskTemplate `yaml:"templates"`
}

// ImportResult summarizes what an import changed.
type ImportResult struct {
	Created int
	Updated int
}

// Export serializes the full template catalog to YAML in scope order.
func Export(s *store.Store) ([]byte, error) {
	templates, err := s.Templates.ListAll()
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(&File{Version: catalogVersion, Templates: templates})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return out, nil
}

// Import applies a YAML catalog to the database. Entries carrying a task_id
// update the template at that key when it exists; entries without one (or
// pointing at a missing key) are created with a freshly allocated id.
func Import(s *store.Store, actorUUID string, data []byte) (*ImportResult, error) {
	file, err := parse(data)
	if err != nil {
		return nil, err
	}

	existing, err := s.Templates.ListAll()
	if err != nil {
		return nil, err
	}
	known := make(map[domain.TemplateKey]bool, len(existing))
	for _, t := range existing {
		known[t.TemplateKey] = true
	}

	result := &ImportResult{}
	for i, tpl := range file.Templates {
		params := store.TemplateParams{
			StateCode:  tpl.StateCode,
			Type:       tpl.Type,
			StageID:    tpl.StageID,
			Name:       tpl.Name,
			FieldID:    tpl.FieldID,
			OffsetDays: tpl.OffsetDays,
			Repeat:     tpl.Repeat,
		}

		if tpl.TaskID > 0 && known[tpl.TemplateKey] {
			if err := s.Templates.Update(actorUUID, tpl.TemplateKey, params); err != nil {
				return result, fmt.Errorf("template %d: %w", i+1, err)
			}
			result.Updated++
			continue
		}

		created, err := s.Templates.Create(actorUUID, params)
		if err != nil {
			return result, fmt.Errorf("template %d: %w", i+1, err)
		}
		known[created.TemplateKey] = true
		result.Created++
	}

	return result, nil
}

// Diff renders a unified diff between the database catalog and a YAML file,
// database on the left. An empty string means no differences.
func Diff(s *store.Store, incoming []byte) (string, error) {
	current, err := Export(s)
	if err != nil {
		return "", err
	}

	// Normalize the incoming file through the same marshaling so formatting
	// differences do not show up as changes.
	file, err := parse(incoming)
	if err != nil {
		return "", err
	}
	normalized, err := yaml.Marshal(&File{Version: catalogVersion, Templates: file.Templates})
	if err != nil {
		return "", fmt.Errorf("failed to normalize catalog: %w", err)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(normalized)),
		FromFile: "database",
		ToFile:   "file",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to compute diff: %w", err)
	}
	return text, nil
}

// Seed imports the embedded default catalog into an empty one. A database
// that already has templates is left untouched: merging curated templates
// with the defaults is a job for Import, which matches on template keys.
func Seed(s *store.Store, actorUUID string) (*ImportResult, error) {
	existing, err := s.Templates.ListAll()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &ImportResult{}, nil
	}
	return Import(s, actorUUID, defaultCatalog)
}

func parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if file.Version != catalogVersion {
		return nil, fmt.Errorf("unsupported catalog version %d (expected %d)", file.Version, catalogVersion)
	}
	return &file, nil
}
