package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dl-alexandre/mail/internal/compose"
	mailapi "github.com/dl-alexandre/mail/internal/gmailapi"
	"github.com/dl-alexandre/mail/internal/groups"
	"github.com/dl-alexandre/mail/internal/styles"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
	"github.com/dl-alexandre/mail/internal/workflow"
)

// WorkflowCmd manages and drives the stateful, token-addressed batch
// processor: named definitions over a Gmail query, a
// start/continue/cleanup lifecycle external callers step through one
// action at a time.
type WorkflowCmd struct {
	List     WorkflowListCmd     `cmd:"" help:"List workflow definitions"`
	Show     WorkflowShowCmd     `cmd:"" help:"Show a workflow definition"`
	Create   WorkflowCreateCmd   `cmd:"" help:"Create a workflow definition"`
	Delete   WorkflowDeleteCmd   `cmd:"" help:"Delete a workflow definition"`
	Start    WorkflowStartCmd    `cmd:"" help:"Start a new workflow session"`
	Continue WorkflowContinueCmd `cmd:"" help:"Apply an action to a workflow session's current message"`
	Run      WorkflowRunCmd      `cmd:"" help:"Interactively drive a workflow session to completion"`
	Cleanup  WorkflowCleanupCmd  `cmd:"" help:"Remove expired workflow sessions"`
}

type WorkflowListCmd struct{}

type WorkflowShowCmd struct {
	Name string `arg:"" name:"name" help:"Workflow name"`
}

type WorkflowCreateCmd struct {
	Name         string `arg:"" name:"name" help:"Workflow name"`
	Query        string `help:"Gmail search query" name:"query" required:""`
	AutoMarkRead bool   `help:"Also remove UNREAD when skipping/archiving/replying" name:"auto-mark-read"`
	Description  string `help:"Human-readable description" name:"description"`
}

type WorkflowDeleteCmd struct {
	Name string `arg:"" name:"name" help:"Workflow name"`
}

type WorkflowStartCmd struct {
	Name string `arg:"" name:"name" help:"Workflow name"`
}

type WorkflowContinueCmd struct {
	Token  string `arg:"" name:"token" help:"Session token returned by start"`
	Action string `arg:"" name:"action" help:"view|archive|skip|reply|quit"`
	Body   string `help:"Reply body (only consulted when action is reply)" name:"body" short:"b"`
}

type WorkflowRunCmd struct {
	Name string `arg:"" name:"name" help:"Workflow name"`
}

type WorkflowCleanupCmd struct{}

func openDefinitionStore() *workflow.DefinitionStore {
	return workflow.NewDefinitionStore(getConfigDir())
}

func openStateStore() *workflow.StateStore {
	return workflow.NewStateStore(getConfigDir())
}

// openEngine wires the engine's reply path through the Composer: inside
// a workflow a reply sends without a confirmation prompt (the continue
// action itself is the approval), so the composer is handed the
// always-decline confirmer its SendReply port never consults.
func openEngine(ctx context.Context, flags types.GlobalFlags) (*workflow.Engine, error) {
	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return nil, err
	}
	composer := compose.New(groups.NewStore(getConfigDir()), styles.NewStore(getConfigDir()), adapter, compose.NewNonInteractiveConfirmer())
	return workflow.New(openDefinitionStore(), openStateStore(), adapter, composer), nil
}

func workflowErrorCode(err error) string {
	var unknownWorkflow *workflow.ErrUnknownWorkflow
	var unknownToken *workflow.ErrUnknownToken
	var expired *workflow.ErrExpired
	switch {
	case errors.As(err, &unknownWorkflow):
		return utils.ErrCodeWorkflowNotFound
	case errors.As(err, &unknownToken):
		return utils.ErrCodeWorkflowNotFound
	case errors.As(err, &expired):
		return utils.ErrCodeWorkflowExpired
	}
	var labelFailed *mailapi.ErrLabelApplyFailed
	var partialReply *workflow.ErrPartialReplyFailure
	if errors.As(err, &labelFailed) || errors.As(err, &partialReply) {
		return utils.ErrCodePolicyViolation
	}
	return utils.ErrCodeUnknown
}

func (cmd *WorkflowListCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	defs, err := openDefinitionStore().List()
	if err != nil {
		return out.WriteError("workflows.list", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}
	return out.WriteSuccess("workflows.list", &types.WorkflowDefinitionList{Workflows: defs})
}

func (cmd *WorkflowShowCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	def, err := openDefinitionStore().Get(cmd.Name)
	if err != nil {
		return out.WriteError("workflows.show", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
	}
	return out.WriteSuccess("workflows.show", def)
}

func (cmd *WorkflowCreateCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	def, err := openDefinitionStore().Create(types.WorkflowDefinition{
		Name:         cmd.Name,
		Query:        cmd.Query,
		AutoMarkRead: cmd.AutoMarkRead,
		Description:  cmd.Description,
	})
	if err != nil {
		return out.WriteError("workflows.create", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	out.Log("Created workflow %q", cmd.Name)
	return out.WriteSuccess("workflows.create", def)
}

func (cmd *WorkflowDeleteCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	if err := openDefinitionStore().Delete(cmd.Name); err != nil {
		return out.WriteError("workflows.delete", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
	}

	out.Log("Deleted workflow %q", cmd.Name)
	return out.WriteSuccess("workflows.delete", map[string]string{"name": cmd.Name, "status": "deleted"})
}

func (cmd *WorkflowStartCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	engine, err := openEngine(ctx, flags)
	if err != nil {
		return out.WriteError("workflows.start", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	resp, err := engine.Start(ctx, cmd.Name)
	if err != nil {
		return out.WriteError("workflows.start", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
	}
	return out.WriteSuccess("workflows.start", resp)
}

func parseWorkflowAction(raw, body string) (workflow.ActionInput, error) {
	switch workflow.ActionType(strings.ToLower(raw)) {
	case workflow.ActionView, workflow.ActionArchive, workflow.ActionSkip, workflow.ActionQuit:
		return workflow.ActionInput{Type: workflow.ActionType(strings.ToLower(raw))}, nil
	case workflow.ActionReply:
		if strings.TrimSpace(body) == "" {
			return workflow.ActionInput{}, fmt.Errorf("reply requires --body")
		}
		return workflow.ActionInput{Type: workflow.ActionReply, ReplyBody: body}, nil
	default:
		return workflow.ActionInput{}, fmt.Errorf("unsupported action %q (want view|archive|skip|reply|quit)", raw)
	}
}

func (cmd *WorkflowContinueCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	input, err := parseWorkflowAction(cmd.Action, cmd.Body)
	if err != nil {
		return out.WriteError("workflows.continue", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	engine, err := openEngine(ctx, flags)
	if err != nil {
		return out.WriteError("workflows.continue", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	resp, err := engine.Continue(ctx, cmd.Token, input)
	if err != nil {
		return out.WriteError("workflows.continue", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
	}
	return out.WriteSuccess("workflows.continue", resp)
}

// Run drives a workflow session to completion, printing each message and
// reading one action per line from stdin ("a"/"s"/"v"/"r <body>"/"q") — a
// convenience wrapper around start/continue for an interactive terminal,
// not something a scripted agent is expected to use (those call start and
// continue directly, one process invocation per action).
func (cmd *WorkflowRunCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	engine, err := openEngine(ctx, flags)
	if err != nil {
		return out.WriteError("workflows.run", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	start, err := engine.Start(ctx, cmd.Name)
	if err != nil {
		return out.WriteError("workflows.run", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
	}

	if start.Completed {
		out.Log("Workflow %q has no matching messages.", cmd.Name)
		return out.WriteSuccess("workflows.run", start)
	}

	token := start.Token
	email := start.Email
	progress := start.Progress
	reader := bufio.NewReader(os.Stdin)

	for email != nil {
		out.Log("[%d/%d] %s — %s", progress.Current, progress.Total, email.From.String(), email.Subject)
		fmt.Fprint(os.Stderr, "action (v/a/s/r/q)? ")
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		var input workflow.ActionInput
		switch {
		case strings.HasPrefix(line, "r"):
			body := strings.TrimSpace(strings.TrimPrefix(line, "r"))
			input = workflow.ActionInput{Type: workflow.ActionReply, ReplyBody: body}
		case line == "a":
			input = workflow.ActionInput{Type: workflow.ActionArchive}
		case line == "s":
			input = workflow.ActionInput{Type: workflow.ActionSkip}
		case line == "v":
			input = workflow.ActionInput{Type: workflow.ActionView}
		case line == "q", line == "":
			input = workflow.ActionInput{Type: workflow.ActionQuit}
		default:
			out.Log("unrecognized action %q, quitting", line)
			input = workflow.ActionInput{Type: workflow.ActionQuit}
		}

		resp, err := engine.Continue(ctx, token, input)
		if err != nil {
			return out.WriteError("workflows.run", utils.NewCLIError(workflowErrorCode(err), err.Error()).Build())
		}
		progress = resp.Progress
		if resp.FullEmail != nil {
			out.Log("%s", resp.FullEmail.BodyText)
			continue
		}
		if resp.Terminated || resp.Completed {
			return out.WriteSuccess("workflows.run", resp)
		}
		email = resp.Email
	}

	return out.WriteSuccess("workflows.run", map[string]string{"status": "done"})
}

func (cmd *WorkflowCleanupCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	engine := workflow.New(openDefinitionStore(), openStateStore(), nil, nil)
	removed, err := engine.Cleanup()
	if err != nil {
		return out.WriteError("workflows.cleanup", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	out.Log("Removed %d expired workflow session(s)", removed)
	return out.WriteSuccess("workflows.cleanup", map[string]int{"removed": removed})
}
