package types

import "strconv"

// Style is the parsed, validated shape of a style document: frontmatter
// plus the six fixed-order sections. The Linter produces a ValidationReport
// before a Style value is ever handed to the composer.
type Style struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Examples    string `json:"examples"`
	Greeting    string `json:"greeting"`
	Body        string `json:"body"`
	Closing     string `json:"closing"`
	Do          string `json:"do"`
	Dont        string `json:"dont"`
}

func (s *Style) Headers() []string {
	return []string{"Name", "Description"}
}

func (s *Style) Rows() [][]string {
	return [][]string{{s.Name, s.Description}}
}

func (s *Style) EmptyMessage() string {
	return "No style found"
}

// StyleList is a bare enumeration of style names from the styles directory.
type StyleList struct {
	Names []string `json:"names"`
}

func (l *StyleList) Headers() []string { return []string{"Name"} }

func (l *StyleList) Rows() [][]string {
	rows := make([][]string, len(l.Names))
	for i, n := range l.Names {
		rows[i] = []string{n}
	}
	return rows
}

func (l *StyleList) EmptyMessage() string { return "No styles found" }

// RuleViolation is one lint finding, identified by a stable rule code.
type RuleViolation struct {
	Rule    string `json:"rule"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
	Fixable bool   `json:"fixable"`
}

// ValidationReport is the Linter's pure-function output.
type ValidationReport struct {
	OK     bool            `json:"ok"`
	Errors []RuleViolation `json:"errors"`
	Fixed  string          `json:"fixed,omitempty"`
}

func (r *ValidationReport) Headers() []string {
	return []string{"Rule", "Line", "Message", "Fixable"}
}

func (r *ValidationReport) Rows() [][]string {
	rows := make([][]string, len(r.Errors))
	for i, e := range r.Errors {
		line := ""
		if e.Line > 0 {
			line = strconv.Itoa(e.Line)
		}
		fixable := ""
		if e.Fixable {
			fixable = "yes"
		}
		rows[i] = []string{e.Rule, line, e.Message, fixable}
	}
	return rows
}

func (r *ValidationReport) EmptyMessage() string {
	return "No violations"
}
