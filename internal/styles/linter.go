// Package styles implements the Style Store and Linter: parsing and
// strict structural validation of the frontmatter + six-section Markdown
// documents that guide outbound email composition.
package styles

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dl-alexandre/mail/internal/types"
	"gopkg.in/yaml.v3"
)

// sectionOrder is the canonical, fixed section order. No other sections
// are permitted and every one of these must be present.
var sectionOrder = []string{"examples", "greeting", "body", "closing", "do", "dont"}

var (
	namePattern  = regexp.MustCompile(`^.{3,50}$`)
	descPattern  = regexp.MustCompile(`^When to use:.{1,}$`)
	bulletLine   = regexp.MustCompile(`^- `)
	badBulletTag = regexp.MustCompile(`^-[^ ]`)
	sectionTag   = regexp.MustCompile(`(?s)<(\w+)>\n?(.*?)\n?</(\w+)>`)
)

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Lint is a pure function from document text to a ValidationReport.
// It never mutates its input; autoFix (when requested) operates on a copy
// and is reported through the Fixed field.
func Lint(content string, autoFix bool) *types.ValidationReport {
	report := &types.ValidationReport{OK: true}

	fm, body, fmErrs := parseFrontmatter(content)
	report.Errors = append(report.Errors, fmErrs...)

	sections, secErrs := parseSections(body)
	report.Errors = append(report.Errors, secErrs...)

	report.Errors = append(report.Errors, validateFrontmatterContent(fm)...)
	report.Errors = append(report.Errors, validateSectionContent(sections)...)

	whitespaceErrs := findWhitespaceViolations(content)
	report.Errors = append(report.Errors, whitespaceErrs...)

	report.OK = len(report.Errors) == 0

	if autoFix {
		hasStructural := false
		for _, e := range report.Errors {
			if !e.Fixable {
				hasStructural = true
				break
			}
		}
		if !hasStructural {
			report.Fixed = autoFixContent(content)
			// The fix resolved every outstanding violation, so the
			// report's verdict is the fixed document's, not the
			// original's: a successfully-fixed document is ok.
			report.OK = Lint(report.Fixed, false).OK
		}
	}

	return report
}

func parseFrontmatter(content string) (*frontmatter, string, []types.RuleViolation) {
	var errs []types.RuleViolation

	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		errs = append(errs, types.RuleViolation{Rule: "F001", Message: "Missing or malformed frontmatter block", Fixable: false})
		return nil, content, errs
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		errs = append(errs, types.RuleViolation{Rule: "F001", Message: "Frontmatter block is not terminated with ---", Fixable: false})
		return nil, content, errs
	}

	raw := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	// Strict YAML first; unquoted descriptions like
	// "When to use: follow up after silence" carry a colon in a plain
	// scalar, which YAML rejects, so fall back to line-based key: value
	// parsing before declaring the block malformed.
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		doc = parseFrontmatterLines(raw)
		if doc == nil {
			errs = append(errs, types.RuleViolation{Rule: "F001", Message: fmt.Sprintf("Frontmatter is not valid YAML: %v", err), Fixable: false})
			return nil, body, errs
		}
	}

	fm := &frontmatter{}
	if v, ok := doc["name"].(string); ok {
		fm.Name = v
	}
	if v, ok := doc["description"].(string); ok {
		fm.Description = v
	}

	for k := range doc {
		if k != "name" && k != "description" {
			errs = append(errs, types.RuleViolation{Rule: "F004", Message: fmt.Sprintf("Unknown frontmatter key: %s", k), Fixable: false})
		}
	}

	return fm, body, errs
}

// parseFrontmatterLines splits each non-blank line at the first colon.
// Returns nil when any line has no colon at all, which means the block
// is not key-value shaped and the YAML error stands.
func parseFrontmatterLines(raw string) map[string]interface{} {
	doc := map[string]interface{}{}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			return nil
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		doc[key] = strings.Trim(value, `"`)
	}
	return doc
}

func validateFrontmatterContent(fm *frontmatter) []types.RuleViolation {
	if fm == nil {
		return nil
	}
	var errs []types.RuleViolation
	if !namePattern.MatchString(fm.Name) {
		errs = append(errs, types.RuleViolation{Rule: "F002", Message: "name must be 3-50 characters", Fixable: false})
	}
	if len(fm.Description) < 30 || len(fm.Description) > 200 || !descPattern.MatchString(fm.Description) {
		errs = append(errs, types.RuleViolation{Rule: "F003", Message: `description must be 30-200 characters and start with "When to use:"`, Fixable: false})
	}
	return errs
}

type parsedSection struct {
	name  string
	body  string
	order int
}

func parseSections(body string) ([]parsedSection, []types.RuleViolation) {
	var errs []types.RuleViolation

	matches := sectionTag.FindAllStringSubmatch(body, -1)
	sections := make([]parsedSection, 0, len(matches))
	seen := map[string]int{}

	for _, m := range matches {
		name := m[1]
		closeName := m[3]
		if name != closeName {
			errs = append(errs, types.RuleViolation{Rule: "S004", Message: fmt.Sprintf("Section <%s> closed with </%s>", name, closeName), Fixable: false})
			continue
		}
		seen[name]++
		sections = append(sections, parsedSection{name: name, body: m[2]})
	}

	for name, count := range seen {
		if count > 1 {
			errs = append(errs, types.RuleViolation{Rule: "S003", Message: fmt.Sprintf("Duplicate section: %s", name), Fixable: false})
		}
	}

	required := map[string]bool{}
	for _, n := range sectionOrder {
		required[n] = true
	}
	for name := range seen {
		if !required[name] {
			errs = append(errs, types.RuleViolation{Rule: "S004", Message: fmt.Sprintf("Unknown section: %s", name), Fixable: false})
		}
	}

	for _, n := range sectionOrder {
		if seen[n] == 0 {
			errs = append(errs, types.RuleViolation{Rule: "S001", Message: fmt.Sprintf("Missing section: %s", n), Fixable: false})
		}
	}

	if len(errs) == 0 {
		gotOrder := make([]string, 0, len(sections))
		for _, s := range sections {
			gotOrder = append(gotOrder, s.name)
		}
		if !sameOrder(gotOrder, sectionOrder) {
			errs = append(errs, types.RuleViolation{Rule: "S002", Message: "Sections must appear in canonical order: examples, greeting, body, closing, do, dont", Fixable: false})
		}
	}

	return sections, errs
}

func sameOrder(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func validateSectionContent(sections []parsedSection) []types.RuleViolation {
	var errs []types.RuleViolation
	byName := map[string]string{}
	for _, s := range sections {
		byName[s.name] = s.body
	}

	if examples, ok := byName["examples"]; ok {
		parts := strings.Split(examples, "\n---\n")
		nonEmpty := 0
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				nonEmpty++
			}
		}
		if nonEmpty == 0 {
			errs = append(errs, types.RuleViolation{Rule: "C001", Message: "examples section must contain at least one example", Fixable: false})
		}
	}

	for _, name := range []string{"do", "dont"} {
		content, ok := byName[name]
		if !ok {
			continue
		}
		bullets := 0
		for _, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimRight(line, " \t")
			if trimmed == "" {
				continue
			}
			if bulletLine.MatchString(trimmed) {
				bullets++
			} else if badBulletTag.MatchString(trimmed) {
				errs = append(errs, types.RuleViolation{Rule: "C003", Message: fmt.Sprintf("Bullet line in %s must start with \"- \": %q", name, trimmed), Fixable: false})
			}
		}
		if bullets == 0 {
			errs = append(errs, types.RuleViolation{Rule: "C002", Message: fmt.Sprintf("%s section must contain at least one bulleted item", name), Fixable: false})
		}
	}

	return errs
}

func findWhitespaceViolations(content string) []types.RuleViolation {
	var errs []types.RuleViolation
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != strings.TrimRight(line, " \t") {
			errs = append(errs, types.RuleViolation{Rule: "W001", Line: i + 1, Message: "Trailing whitespace", Fixable: true})
		}
	}
	if !strings.HasSuffix(content, "\n") || strings.HasSuffix(content, "\n\n") {
		errs = append(errs, types.RuleViolation{Rule: "W002", Message: "File must end with exactly one trailing newline", Fixable: true})
	}
	return errs
}

// autoFixContent applies the narrowly-scoped W-rule fixes: strip trailing
// whitespace per line, normalize "-<non-space>" to "- " at list-item line
// starts, and ensure a single trailing newline. It never reorders
// sections, adds missing ones, or touches semantic content.
func autoFixContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if badBulletTag.MatchString(line) {
			line = "- " + line[1:]
		}
		lines[i] = line
	}
	fixed := strings.Join(lines, "\n")
	fixed = strings.TrimRight(fixed, "\n") + "\n"
	return fixed
}
