package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// WorkflowDefinition is a reusable {name, query, autoMarkRead} triple
// persisted in workflows.yaml.
type WorkflowDefinition struct {
	Name         string `yaml:"name" json:"name"`
	Query        string `yaml:"query" json:"query"`
	AutoMarkRead bool   `yaml:"autoMarkRead,omitempty" json:"autoMarkRead,omitempty"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
}

func (d *WorkflowDefinition) Headers() []string {
	return []string{"Name", "Query", "AutoMarkRead", "Description"}
}

func (d *WorkflowDefinition) Rows() [][]string {
	auto := "false"
	if d.AutoMarkRead {
		auto = "true"
	}
	return [][]string{{d.Name, d.Query, auto, d.Description}}
}

func (d *WorkflowDefinition) EmptyMessage() string {
	return "No workflow found"
}

// WorkflowDefinitionList is the on-disk shape of workflows.yaml: a bare
// list, not a map, so definition order is preserved across edits.
type WorkflowDefinitionList struct {
	Workflows []WorkflowDefinition `yaml:"workflows" json:"workflows"`
}

func (l *WorkflowDefinitionList) Headers() []string {
	return []string{"Name", "Query", "AutoMarkRead", "Description"}
}

func (l *WorkflowDefinitionList) Rows() [][]string {
	rows := make([][]string, len(l.Workflows))
	for i := range l.Workflows {
		rows[i] = l.Workflows[i].Rows()[0]
	}
	return rows
}

func (l *WorkflowDefinitionList) EmptyMessage() string {
	return "No workflows found"
}

// HistoryEntry is one append-only log record of an applied action.
type HistoryEntry struct {
	ID     MessageID `json:"id"`
	Action string    `json:"action"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	Ts     time.Time `json:"ts"`
}

// WorkflowState is the per-token durable session record. ids/total are
// frozen at start and never change for the life of the token; cursor only
// moves forward.
type WorkflowState struct {
	Token          string         `json:"token"`
	WorkflowName   string         `json:"workflowName"`
	Query          string         `json:"query"`
	AutoMarkRead   bool           `json:"autoMarkRead"`
	IDs            []MessageID    `json:"ids"`
	Cursor         int            `json:"cursor"`
	Total          int            `json:"total"`
	History        []HistoryEntry `json:"history"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastActivityAt time.Time      `json:"lastActivityAt"`
}

// Completed reports whether every id has been processed.
func (s *WorkflowState) Completed() bool {
	return s.Cursor >= s.Total
}

// Progress is the {total, processed, remaining, current} tuple returned on
// every start/continue response.
type Progress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Remaining int `json:"remaining"`
	Current   int `json:"current"`
}

// ProgressFor derives the Progress tuple from a state's cursor/total.
func ProgressFor(s *WorkflowState) Progress {
	current := s.Total
	if s.Cursor < s.Total {
		current = s.Cursor + 1
	}
	return Progress{
		Total:     s.Total,
		Processed: s.Cursor,
		Remaining: s.Total - s.Cursor,
		Current:   current,
	}
}

// ActionResult reports the outcome of the action applied to the message
// that was current before this continue() call.
type ActionResult struct {
	ID     MessageID `json:"id"`
	Action string    `json:"action"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
}

// StartResponse is the JSON contract returned by Engine.Start.
type StartResponse struct {
	Success   bool     `json:"success"`
	Token     string   `json:"token"`
	Email     *Summary `json:"email"`
	Progress  Progress `json:"progress"`
	Completed bool     `json:"completed"`
}

func (r *StartResponse) Headers() []string { return []string{"Token", "Current", "Total", "Completed"} }
func (r *StartResponse) Rows() [][]string {
	return [][]string{{r.Token, strconv.Itoa(r.Progress.Current), strconv.Itoa(r.Progress.Total), boolStr(r.Completed)}}
}
func (r *StartResponse) EmptyMessage() string { return "No workflow session" }

// ContinueResponse is the JSON contract returned by Engine.Continue.
// Email and FullEmail keep the Summary/Full distinction at the Go type
// level — exactly one of them is set, Email for every non-view action
// and FullEmail for `view` — but both marshal onto the single "email"
// wire key, via MarshalJSON below, so a client reading the JSON
// contract never has to look in two places for the message.
type ContinueResponse struct {
	Success      bool          `json:"-"`
	Token        string        `json:"-"`
	Email        *Summary      `json:"-"`
	FullEmail    *Full         `json:"-"`
	ActionResult *ActionResult `json:"-"`
	Progress     Progress      `json:"-"`
	Completed    bool          `json:"-"`
	Terminated   bool          `json:"-"`
}

// MarshalJSON projects Email/FullEmail onto the single "email" wire
// key: a Full value for `view` responses, a
// Summary (or null, once drained) for every other action.
func (r *ContinueResponse) MarshalJSON() ([]byte, error) {
	var email interface{}
	if r.FullEmail != nil {
		email = r.FullEmail
	} else if r.Email != nil {
		email = r.Email
	}
	return json.Marshal(struct {
		Success      bool          `json:"success"`
		Token        string        `json:"token"`
		Email        interface{}   `json:"email"`
		ActionResult *ActionResult `json:"action_result,omitempty"`
		Progress     Progress      `json:"progress"`
		Completed    bool          `json:"completed"`
		Terminated   bool          `json:"terminated"`
	}{
		Success:      r.Success,
		Token:        r.Token,
		Email:        email,
		ActionResult: r.ActionResult,
		Progress:     r.Progress,
		Completed:    r.Completed,
		Terminated:   r.Terminated,
	})
}

func (r *ContinueResponse) Headers() []string {
	return []string{"Token", "Current", "Total", "Completed", "Terminated"}
}
func (r *ContinueResponse) Rows() [][]string {
	return [][]string{{r.Token, strconv.Itoa(r.Progress.Current), strconv.Itoa(r.Progress.Total), boolStr(r.Completed), boolStr(r.Terminated)}}
}
func (r *ContinueResponse) EmptyMessage() string { return "No workflow session" }


func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
