// Package groups implements the local recipient alias Group Store: a
// single JSON document mapping group name to an ordered list of addresses,
// plus the "#name" expansion operator used by the composer and workflow
// reply path. Persistence follows the credential store's write-temp-rename
// discipline (see internal/auth.Manager.writeCredentialsFile).
package groups

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dl-alexandre/mail/internal/types"
)

const storeFileName = "email-groups.json"

// ErrUnknownGroup is returned by Get/expand when a name has no entry.
type ErrUnknownGroup struct{ Name string }

func (e *ErrUnknownGroup) Error() string {
	return fmt.Sprintf("Group '%s' not found. Run 'mail groups list' to see available groups.", e.Name)
}

// ErrDuplicateMember is returned by AddMember when the address is already
// present in the group.
type ErrDuplicateMember struct {
	Group, Address string
}

func (e *ErrDuplicateMember) Error() string {
	return fmt.Sprintf("%s is already a member of group %q", e.Address, e.Group)
}

// Store owns the on-disk email-groups.json document for one configuration
// root. One Store is constructed per CLI invocation; there is no
// in-process caching across invocations; every operation re-reads the
// document from disk.
type Store struct {
	path string
}

// NewStore returns a Store rooted at configDir (email-groups.json lives
// directly inside it).
func NewStore(configDir string) *Store {
	return &Store{path: filepath.Join(configDir, storeFileName)}
}

func (s *Store) load() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("failed to read group store: %w", err)
	}
	if len(data) == 0 {
		return map[string][]string{}, nil
	}
	doc := map[string][]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse group store: %w", err)
	}
	return doc, nil
}

// writeAtomic persists doc to s.path via temp file + rename so a crash
// mid-write leaves either the old or the new document, never a mix.
func (s *Store) writeAtomic(doc map[string][]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, storeFileName+"-*.tmp")
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

// backup writes a timestamped copy of the whole store before a destructive
// operation (delete, overwrite).
func (s *Store) backup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	backupPath := fmt.Sprintf("%s.backup.%d", s.path, time.Now().Unix())
	return os.WriteFile(backupPath, data, 0600)
}

// List returns every group name, sorted for stable output.
func (s *Store) List() ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the named group's members in stored order.
func (s *Store) Get(name string) (*types.Group, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[name]
	if !ok {
		return nil, &ErrUnknownGroup{Name: name}
	}
	return rawToGroup(name, raw)
}

func rawToGroup(name string, raw []string) (*types.Group, error) {
	members := make([]types.Address, 0, len(raw))
	for _, r := range raw {
		addr, err := types.ParseAddress(r)
		if err != nil {
			return nil, fmt.Errorf("group %q contains a malformed stored address %q: %w", name, r, err)
		}
		members = append(members, addr)
	}
	return &types.Group{Name: name, Members: members}, nil
}

// Create adds a new group with the given members. It fails if a group by
// that name already exists (use Delete then Create, or addMember, to
// modify one) or if name fails the charset/length check.
func (s *Store) Create(name string, members []types.Address) (*types.Group, error) {
	if !types.ValidGroupName(name) {
		return nil, fmt.Errorf("invalid group name %q: must match [A-Za-z0-9_-]{1,64}", name)
	}
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if _, exists := doc[name]; exists {
		return nil, fmt.Errorf("group %q already exists", name)
	}

	deduped := types.DedupeAddresses(members)
	raw := make([]string, len(deduped))
	for i, a := range deduped {
		raw[i] = a.Email()
	}
	doc[name] = raw
	if err := s.writeAtomic(doc); err != nil {
		return nil, err
	}
	return &types.Group{Name: name, Members: deduped}, nil
}

// AddMember appends addr to the named group, preserving order. It rejects
// with ErrDuplicateMember if addr (case-sensitive local, case-insensitive
// domain) is already present.
func (s *Store) AddMember(name string, addr types.Address) (*types.Group, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[name]
	if !ok {
		return nil, &ErrUnknownGroup{Name: name}
	}
	group, err := rawToGroup(name, raw)
	if err != nil {
		return nil, err
	}
	for _, m := range group.Members {
		if m.DedupeKey() == addr.DedupeKey() {
			return nil, &ErrDuplicateMember{Group: name, Address: addr.Email()}
		}
	}
	group.Members = append(group.Members, addr)
	doc[name] = addressesToRaw(group.Members)
	if err := s.writeAtomic(doc); err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveMember removes addr from the named group if present.
func (s *Store) RemoveMember(name string, addr types.Address) (*types.Group, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[name]
	if !ok {
		return nil, &ErrUnknownGroup{Name: name}
	}
	group, err := rawToGroup(name, raw)
	if err != nil {
		return nil, err
	}
	filtered := make([]types.Address, 0, len(group.Members))
	for _, m := range group.Members {
		if m.DedupeKey() == addr.DedupeKey() {
			continue
		}
		filtered = append(filtered, m)
	}
	group.Members = filtered
	doc[name] = addressesToRaw(group.Members)
	if err := s.writeAtomic(doc); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the named group after writing a backup of the whole
// store.
func (s *Store) Delete(name string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[name]; !ok {
		return &ErrUnknownGroup{Name: name}
	}
	if err := s.backup(); err != nil {
		return fmt.Errorf("failed to write backup before delete: %w", err)
	}
	delete(doc, name)
	return s.writeAtomic(doc)
}

// ValidationVerdict is the per-group result of Validate.
type ValidationVerdict struct {
	Name       string   `json:"name"`
	OK         bool     `json:"ok"`
	Malformed  []string `json:"malformed,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// Validate checks (a) address well-formedness and (b) intra-group
// duplicates for the named group, or every group when name is empty.
// Cross-group duplicates are allowed by design.
func (s *Store) Validate(name string) ([]ValidationVerdict, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	names := []string{}
	if name != "" {
		if _, ok := doc[name]; !ok {
			return nil, &ErrUnknownGroup{Name: name}
		}
		names = []string{name}
	} else {
		for n := range doc {
			names = append(names, n)
		}
		sort.Strings(names)
	}

	verdicts := make([]ValidationVerdict, 0, len(names))
	for _, n := range names {
		verdicts = append(verdicts, validateOne(n, doc[n]))
	}
	return verdicts, nil
}

func validateOne(name string, raw []string) ValidationVerdict {
	v := ValidationVerdict{Name: name, OK: true}
	seen := map[string]bool{}
	for _, r := range raw {
		addr, err := types.ParseAddress(r)
		if err != nil {
			v.OK = false
			v.Malformed = append(v.Malformed, r)
			continue
		}
		key := addr.DedupeKey()
		if seen[key] {
			v.OK = false
			v.Duplicates = append(v.Duplicates, r)
			continue
		}
		seen[key] = true
	}
	return v
}

// Expand resolves a list of recipient tokens: tokens beginning with "#"
// resolve via Get; unknown group names fail with ErrUnknownGroup; non-"#"
// tokens are parsed as Address. The returned list is de-duplicated
// preserving first occurrence.
func (s *Store) Expand(tokens []string) ([]types.Address, error) {
	var out []types.Address
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "#") {
			group, err := s.Get(strings.TrimPrefix(tok, "#"))
			if err != nil {
				return nil, err
			}
			out = append(out, group.Members...)
			continue
		}
		addr, err := types.ParseAddress(tok)
		if err != nil {
			return nil, fmt.Errorf("malformed address %q: %w", tok, err)
		}
		out = append(out, addr)
	}
	return types.DedupeAddresses(out), nil
}

func addressesToRaw(addrs []types.Address) []string {
	raw := make([]string, len(addrs))
	for i, a := range addrs {
		raw[i] = a.Email()
	}
	return raw
}
