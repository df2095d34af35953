// Package workflow implements the stateful, token-addressed batch
// processor: named query-driven definitions loaded from workflows.yaml,
// and per-run WorkflowState persisted as one JSON file per token so a
// crash mid-session loses at most the in-flight action.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dl-alexandre/mail/internal/types"
	"gopkg.in/yaml.v3"
)

const definitionsFileName = "workflows.yaml"

// ErrUnknownWorkflow is returned when a name has no matching definition.
type ErrUnknownWorkflow struct{ Name string }

func (e *ErrUnknownWorkflow) Error() string {
	return fmt.Sprintf("Workflow '%s' not found. Run 'mail workflows list' to see available workflows.", e.Name)
}

// DefinitionStore loads the static, user-authored workflows.yaml that
// names each batch query (e.g. "triage-unread": "is:unread in:inbox").
type DefinitionStore struct {
	path string
}

// NewDefinitionStore returns a store rooted at configDir/workflows.yaml.
func NewDefinitionStore(configDir string) *DefinitionStore {
	return &DefinitionStore{path: filepath.Join(configDir, definitionsFileName)}
}

// List returns every configured workflow definition.
func (s *DefinitionStore) List() ([]types.WorkflowDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.WorkflowDefinition{}, nil
		}
		return nil, fmt.Errorf("failed to read workflow definitions: %w", err)
	}

	var doc types.WorkflowDefinitionList
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definitions: %w", err)
	}
	return doc.Workflows, nil
}

// Get returns the named definition.
func (s *DefinitionStore) Get(name string) (*types.WorkflowDefinition, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, d := range all {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, &ErrUnknownWorkflow{Name: name}
}

// ErrDuplicateWorkflow is returned by Create when name already exists.
type ErrDuplicateWorkflow struct{ Name string }

func (e *ErrDuplicateWorkflow) Error() string {
	return fmt.Sprintf("workflow %q already exists", e.Name)
}

// Create appends a new definition to workflows.yaml, rejecting a duplicate
// name so two definitions never silently collide.
func (s *DefinitionStore) Create(def types.WorkflowDefinition) (*types.WorkflowDefinition, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, d := range all {
		if d.Name == def.Name {
			return nil, &ErrDuplicateWorkflow{Name: def.Name}
		}
	}
	all = append(all, def)
	if err := s.writeAtomic(all); err != nil {
		return nil, err
	}
	return &def, nil
}

// Delete removes the named definition, failing ErrUnknownWorkflow if absent.
func (s *DefinitionStore) Delete(name string) error {
	all, err := s.List()
	if err != nil {
		return err
	}
	kept := all[:0]
	found := false
	for _, d := range all {
		if d.Name == name {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return &ErrUnknownWorkflow{Name: name}
	}
	return s.writeAtomic(kept)
}

// writeAtomic persists the full definition list to workflows.yaml via
// temp file + rename, matching the group/style stores' crash-safety
// discipline.
func (s *DefinitionStore) writeAtomic(defs []types.WorkflowDefinition) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	payload, err := yaml.Marshal(types.WorkflowDefinitionList{Workflows: defs})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, definitionsFileName+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}
