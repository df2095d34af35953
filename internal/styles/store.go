package styles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dl-alexandre/mail/internal/types"
)

const stylesDirName = "email-styles"

var styleNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,49}$`)

// ErrUnknownStyle is returned by Show/Edit/Delete when name has no file.
type ErrUnknownStyle struct{ Name string }

func (e *ErrUnknownStyle) Error() string {
	return fmt.Sprintf("Style '%s' not found. Run 'mail styles list' to see available styles.", e.Name)
}

// ErrInvalidStyleName is returned when name fails the charset check or
// would escape the styles directory once canonicalized.
type ErrInvalidStyleName struct{ Name string }

func (e *ErrInvalidStyleName) Error() string {
	return fmt.Sprintf("invalid style name %q: must match [A-Za-z0-9][A-Za-z0-9_-]{0,49}", e.Name)
}

// Store owns the on-disk styles/ directory for one configuration root.
// Each style is one <name>.md file; there is no index file, the
// filesystem itself is the source of truth.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at configDir/styles.
func NewStore(configDir string) *Store {
	return &Store{dir: filepath.Join(configDir, stylesDirName)}
}

// pathFor canonicalizes name into a file path inside the styles directory,
// rejecting any name that would resolve outside it (path traversal
// guard).
func (s *Store) pathFor(name string) (string, error) {
	if !styleNamePattern.MatchString(name) {
		return "", &ErrInvalidStyleName{Name: name}
	}
	candidate := filepath.Join(s.dir, name+".md")
	cleanDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	cleanCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(cleanCandidate, cleanDir+string(filepath.Separator)) {
		return "", &ErrInvalidStyleName{Name: name}
	}
	return cleanCandidate, nil
}

// List returns the names of every style file present, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read styles directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names, nil
}

// Show reads the raw content of the named style.
func (s *Store) Show(name string) (string, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ErrUnknownStyle{Name: name}
		}
		return "", fmt.Errorf("failed to read style %q: %w", name, err)
	}
	return string(data), nil
}

// Create writes a new style file. It refuses to overwrite an existing one
// and refuses content that fails Lint.
func (s *Store) Create(name, content string) (*types.ValidationReport, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("style %q already exists", name)
	}

	report := Lint(content, false)
	if !report.OK {
		return report, fmt.Errorf("style %q failed validation", name)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}
	if err := writeStyleFile(path, content); err != nil {
		return nil, err
	}
	return report, nil
}

// Edit overwrites an existing style's content after validating it.
func (s *Store) Edit(name, content string) (*types.ValidationReport, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrUnknownStyle{Name: name}
		}
		return nil, err
	}

	report := Lint(content, false)
	if !report.OK {
		return report, fmt.Errorf("style %q failed validation", name)
	}
	if err := writeStyleFile(path, content); err != nil {
		return nil, err
	}
	return report, nil
}

// CanonicalTemplate is the default document `styles create` seeds a new
// style file with: valid frontmatter plus the six required sections in
// canonical order, tag-delimited exactly as Lint expects, so the result
// passes Lint without --skip-validation.
func CanonicalTemplate() string {
	return `---
name: untitled-style
description: When to use: describe the situation this style applies to, in 30-200 characters.
---
<examples>
Hi Sam, just checking in on where things stand with the proposal.
</examples>
<greeting>
Hi {{name}},
</greeting>
<body>
[Write the main message here.]
</body>
<closing>
Best,
{{sender}}
</closing>
<do>
- Keep paragraphs short.
- Address the recipient by name.
</do>
<dont>
- Don't bury the ask in the third paragraph.
</dont>
`
}

// CreateTemplate writes the canonical template for a brand-new style. When
// skipValidation is false (the default), a template that fails Lint is
// rejected rather than written — callers pass skipValidation only when the
// operator explicitly asked to bypass it via --skip-validation.
func (s *Store) CreateTemplate(name string, skipValidation bool) (*types.ValidationReport, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("style %q already exists", name)
	}

	content := CanonicalTemplate()
	report := Lint(content, false)
	if !skipValidation && !report.OK {
		return report, fmt.Errorf("style %q failed validation", name)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}
	if err := writeStyleFile(path, content); err != nil {
		return nil, err
	}
	return report, nil
}

// EditContent overwrites an existing style's content, honoring
// skipValidation the same way CreateTemplate does.
func (s *Store) EditContent(name, content string, skipValidation bool) (*types.ValidationReport, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrUnknownStyle{Name: name}
		}
		return nil, err
	}

	report := Lint(content, false)
	if !skipValidation && !report.OK {
		return report, fmt.Errorf("style %q failed validation", name)
	}
	if err := writeStyleFile(path, content); err != nil {
		return nil, err
	}
	return report, nil
}

// Delete backs up the style file with a timestamp suffix before unlinking
// it, matching the Group Store's backup-before-destructive-op discipline.
func (s *Store) Delete(name string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ErrUnknownStyle{Name: name}
		}
		return err
	}
	backupPath := fmt.Sprintf("%s.backup.%d", path, time.Now().Unix())
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup before delete: %w", err)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &ErrUnknownStyle{Name: name}
		}
		return err
	}
	return nil
}

// Validate lints the named style. When autoFix is true and the content
// has only W-rule violations, report.Fixed holds the corrected content
// and the file is rewritten in place with it, so one --fix pass is a
// fixed point: validating the result again reports clean.
func (s *Store) Validate(name string, autoFix bool) (*types.ValidationReport, error) {
	content, err := s.Show(name)
	if err != nil {
		return nil, err
	}
	report := Lint(content, autoFix)
	if autoFix && report.Fixed != "" && report.Fixed != content {
		path, err := s.pathFor(name)
		if err != nil {
			return nil, err
		}
		if err := writeStyleFile(path, report.Fixed); err != nil {
			return nil, fmt.Errorf("failed to persist auto-fixed style %q: %w", name, err)
		}
	}
	return report, nil
}

func writeStyleFile(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "style-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
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
	return os.Rename(tmpPath, path)
}
