package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dl-alexandre/mail/internal/api"
	"github.com/dl-alexandre/mail/internal/auth"
	"github.com/dl-alexandre/mail/internal/compose"
	mailapi "github.com/dl-alexandre/mail/internal/gmailapi"
	"github.com/dl-alexandre/mail/internal/groups"
	"github.com/dl-alexandre/mail/internal/safety"
	"github.com/dl-alexandre/mail/internal/styles"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// ============================================================
// Top-level mail commands: list/read/thread/search/send/reply
// ============================================================
//
// These operate through internal/gmailapi.Adapter's Summary/Full-shaped
// contract: list/search return cheap Summary projections, full content
// is fetched on demand per id.

type ListCmd struct {
	Folder    string `help:"Label/folder to list (inbox, sent, a user label, ...)" name:"folder" default:"inbox"`
	Max       int    `help:"Maximum messages to return" default:"25" name:"max"`
	PageToken string `help:"Page token for pagination" name:"page-token"`
}

type ReadCmd struct {
	MessageID string `arg:"" name:"message-id" help:"Message ID"`
	Format    string `help:"Projection to fetch (summary or full)" name:"format" default:"full" enum:"summary,full"`
}

type ThreadCmd struct {
	ThreadID string `arg:"" name:"thread-id" help:"Thread ID"`
}

type SearchCmd struct {
	Query     string `arg:"" name:"query" help:"Gmail search query"`
	Max       int    `help:"Maximum messages to return" default:"25" name:"max"`
	PageToken string `help:"Page token for pagination" name:"page-token"`
}

type SendCmd struct {
	To         string   `help:"Recipients: addresses or #group tokens, comma-separated" name:"to" required:""`
	Cc         string   `help:"Cc recipients: addresses or #group tokens, comma-separated" name:"cc"`
	Bcc        string   `help:"Bcc recipients: addresses or #group tokens, comma-separated" name:"bcc"`
	Subject    string   `help:"Subject" name:"subject" required:""`
	Body       string   `help:"Plain text body" name:"body" required:""`
	Style      string   `help:"Named style whose greeting/closing patterns are surfaced in the preview" name:"style"`
	Attachment []string `help:"File to attach (repeatable)" name:"attachment" type:"existingfile"`
}

type ReplyCmd struct {
	MessageID string `arg:"" name:"message-id" help:"Message to reply to"`
	Body      string `help:"Reply body" name:"body" required:""`
	Style     string `help:"Named style whose greeting/closing patterns are surfaced in the preview" name:"style"`
}

// VerifyCmd checks that auth, config, and storage directories are usable
// without making any network call, so a broken install fails fast with a
// specific reason instead of a confusing first-command error.
type VerifyCmd struct{}

// StatusCmd reports authentication state and mailbox label counts in one
// call, the "is everything working" command a script runs first.
type StatusCmd struct{}

// getGmailService authenticates the given profile and builds the shared
// Gmail API service, retry-wrapped client and request context that every
// mail subcommand's adapter is built from.
func getGmailService(ctx context.Context, flags types.GlobalFlags) (*gmailv1.Service, *api.Client, *types.RequestContext, error) {
	configDir := getConfigDir()

	preAuth := auth.NewManager(configDir, nil, true)
	creds, err := preAuth.LoadCredentials(flags.Profile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("not authenticated for profile %q: run 'mail auth login' first: %w", flags.Profile, err)
	}

	resolvedID, resolvedSecret, _, cliErr := resolveOAuthClient(nil, nil, configDir)
	if cliErr != nil {
		return nil, nil, nil, utils.NewAppError(cliErr.Build())
	}
	oauthCfg := auth.NewOAuthConfig(resolvedID, resolvedSecret, creds.Scopes)
	authMgr := auth.NewManager(configDir, oauthCfg, true)

	svc, err := authMgr.GetGmailService(ctx, creds)
	if err != nil {
		return nil, nil, nil, err
	}

	client := api.NewClient(svc, utils.DefaultMaxRetries, utils.DefaultRetryDelayMs, GetLogger())
	reqCtx := api.NewRequestContext(flags.Profile, types.RequestTypeListOrSearch)
	return svc, client, reqCtx, nil
}

func getMailAdapter(ctx context.Context, flags types.GlobalFlags) (*mailapi.Adapter, error) {
	svc, client, _, err := getGmailService(ctx, flags)
	if err != nil {
		return nil, err
	}
	return mailapi.NewAdapter(client, svc, flags.Profile), nil
}

func mailErrorCode(err error) string {
	switch err.(type) {
	case *mailapi.ErrQueryTooLarge:
		return utils.ErrCodeInvalidArgument
	case *mailapi.ErrLabelApplyFailed:
		return utils.ErrCodePolicyViolation
	default:
		return utils.ErrCodeUnknown
	}
}

func (cmd *ListCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("list", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	ids, next, err := adapter.ListIDs(ctx, folderQuery(cmd.Folder), int64(cmd.Max), cmd.PageToken)
	if err != nil {
		if code := mailErrorCode(err); code != utils.ErrCodeUnknown {
			return out.WriteError("list", utils.NewCLIError(code, err.Error()).Build())
		}
		return handleCLIError(out, "list", err)
	}

	summaries, errs := adapter.BatchGetSummaries(ctx, ids)
	list := &types.SummaryList{NextPageToken: next}
	for i, s := range summaries {
		if s == nil {
			out.Verbose("skipping message %s: %v", ids[i], errs[ids[i]])
			continue
		}
		list.Messages = append(list.Messages, *s)
	}
	return out.WriteSuccess("list", list)
}

func (cmd *ReadCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("read", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	if cmd.Format == "summary" {
		summary, err := adapter.GetSummary(ctx, cmd.MessageID)
		if err != nil {
			return out.WriteError("read", utils.NewCLIError(utils.ErrCodeMessageNotFound, err.Error()).Build())
		}
		return out.WriteSuccess("read", summary)
	}

	full, err := adapter.GetFull(ctx, cmd.MessageID)
	if err != nil {
		return out.WriteError("read", utils.NewCLIError(utils.ErrCodeMessageNotFound, err.Error()).Build())
	}
	return out.WriteSuccess("read", full)
}

func (cmd *ThreadCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("thread", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	messages, err := adapter.GetThreadFull(ctx, cmd.ThreadID)
	if err != nil {
		return out.WriteError("thread", utils.NewCLIError(utils.ErrCodeMessageNotFound, err.Error()).Build())
	}
	return out.WriteSuccess("thread", map[string]interface{}{
		"threadId": cmd.ThreadID,
		"messages": messages,
	})
}

func (cmd *SearchCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("search", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	ids, next, err := adapter.ListIDs(ctx, cmd.Query, int64(cmd.Max), cmd.PageToken)
	if err != nil {
		if code := mailErrorCode(err); code != utils.ErrCodeUnknown {
			return out.WriteError("search", utils.NewCLIError(code, err.Error()).Build())
		}
		return handleCLIError(out, "search", err)
	}

	summaries, errs := adapter.BatchGetSummaries(ctx, ids)
	list := &types.SummaryList{NextPageToken: next}
	for i, s := range summaries {
		if s == nil {
			out.Verbose("skipping message %s: %v", ids[i], errs[ids[i]])
			continue
		}
		list.Messages = append(list.Messages, *s)
	}
	return out.WriteSuccess("search", list)
}

// openComposer wires the Group Store, Style Store and confirmation gate
// around a freshly authenticated Adapter.
func openComposer(adapter *mailapi.Adapter, flags types.GlobalFlags) *compose.Composer {
	groupStore := groups.NewStore(getConfigDir())
	styleStore := styles.NewStore(getConfigDir())
	confirmer := compose.NewSafetyConfirmer(flags.DryRun, flags.Force, flags.Yes, flags.Quiet)
	return compose.New(groupStore, styleStore, adapter, confirmer)
}

func composeErrorCode(err error) string {
	var unknownGroup *groups.ErrUnknownGroup
	if errors.As(err, &unknownGroup) {
		return utils.ErrCodeGroupNotFound
	}
	var unknownStyle *styles.ErrUnknownStyle
	if errors.As(err, &unknownStyle) {
		return utils.ErrCodeStyleViolation
	}
	return utils.ErrCodeInvalidArgument
}

func (cmd *SendCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("send", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	from, err := fromAddress(ctx, adapter)
	if err != nil {
		return out.WriteError("send", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	composer := openComposer(adapter, flags)
	draft := compose.Draft{
		To:          splitCSV(cmd.To),
		Cc:          splitCSV(cmd.Cc),
		Bcc:         splitCSV(cmd.Bcc),
		Subject:     cmd.Subject,
		Body:        cmd.Body,
		Style:       cmd.Style,
		Attachments: cmd.Attachment,
		FromAddress: from,
	}

	if flags.DryRun {
		preview, err := composer.Preview(draft)
		if err != nil {
			return out.WriteError("send", utils.NewCLIError(composeErrorCode(err), err.Error()).Build())
		}
		recorder := safety.NewDryRunRecorder()
		safety.RecordSend(recorder, splitCSV(cmd.To), cmd.Subject)
		return out.WriteSuccess("send", map[string]interface{}{
			"dryRun":  true,
			"preview": preview,
			"planned": safety.NewDryRunResult(recorder.GetOperations(), nil),
		})
	}

	result, err := composer.Send(ctx, draft)
	if err != nil {
		if errors.Is(err, compose.ErrCancelled) {
			// Declining the confirmation is a normal outcome, not a failure.
			out.Log("Send cancelled.")
			return out.WriteSuccess("send", map[string]interface{}{"cancelled": true})
		}
		return out.WriteError("send", utils.NewCLIError(composeErrorCode(err), err.Error()).Build())
	}

	out.Log("Sent message: %s", result.MessageID)
	return out.WriteSuccess("send", result)
}

func (cmd *ReplyCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteError("reply", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	original, err := adapter.GetFull(ctx, cmd.MessageID)
	if err != nil {
		return out.WriteError("reply", utils.NewCLIError(utils.ErrCodeMessageNotFound, err.Error()).Build())
	}

	from, err := fromAddress(ctx, adapter)
	if err != nil {
		return out.WriteError("reply", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	messageID := ""
	if original.Headers != nil {
		if ids := original.Headers.Get("message-id"); len(ids) > 0 {
			messageID = ids[0]
		}
	}

	composer := openComposer(adapter, flags)
	draft := compose.Draft{
		To:          []string{original.From.Email()},
		Subject:     compose.ReplySubject(original.Subject),
		Body:        cmd.Body,
		Style:       cmd.Style,
		InReplyTo:   messageID,
		ThreadID:    original.ThreadID,
		FromAddress: from,
	}

	if flags.DryRun {
		preview, err := composer.Preview(draft)
		if err != nil {
			return out.WriteError("reply", utils.NewCLIError(composeErrorCode(err), err.Error()).Build())
		}
		recorder := safety.NewDryRunRecorder()
		safety.RecordReply(recorder, cmd.MessageID, draft.Subject)
		return out.WriteSuccess("reply", map[string]interface{}{
			"dryRun":  true,
			"preview": preview,
			"planned": safety.NewDryRunResult(recorder.GetOperations(), nil),
		})
	}

	result, err := composer.Send(ctx, draft)
	if err != nil {
		if errors.Is(err, compose.ErrCancelled) {
			out.Log("Reply cancelled.")
			return out.WriteSuccess("reply", map[string]interface{}{"cancelled": true})
		}
		return out.WriteError("reply", utils.NewCLIError(composeErrorCode(err), err.Error()).Build())
	}

	out.Log("Sent reply: %s", result.MessageID)
	return out.WriteSuccess("reply", result)
}

func fromAddress(ctx context.Context, adapter *mailapi.Adapter) (types.Address, error) {
	email, err := adapter.GetProfile(ctx)
	if err != nil {
		return types.Address{}, err
	}
	return types.ParseAddress(email)
}

// folderQuery maps a folder name onto the Gmail search operator that
// selects it: the well-known system folders use "in:", anything else is
// treated as a user label.
func folderQuery(folder string) string {
	switch strings.ToLower(folder) {
	case "inbox", "sent", "drafts", "trash", "spam", "all", "anywhere":
		return "in:" + strings.ToLower(folder)
	default:
		return "label:" + folder
	}
}

func (cmd *VerifyCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	checks := map[string]interface{}{}
	ok := true

	configDir := getConfigDir()
	checks["configDir"] = configDir

	if _, err := groups.NewStore(configDir).List(); err != nil {
		checks["groupsStore"] = err.Error()
		ok = false
	} else {
		checks["groupsStore"] = "ok"
	}

	if _, err := styles.NewStore(configDir).List(); err != nil {
		checks["stylesStore"] = err.Error()
		ok = false
	} else {
		checks["stylesStore"] = "ok"
	}

	ctx := context.Background()
	if _, err := getMailAdapter(ctx, flags); err != nil {
		checks["auth"] = err.Error()
		ok = false
	} else {
		checks["auth"] = "ok"
	}

	checks["stdinInteractive"] = safety.StdinIsTerminal()

	if !ok {
		return out.WriteError("verify", utils.NewCLIError(utils.ErrCodeInvalidArgument, fmt.Sprintf("verification failed: %v", checks)).Build())
	}
	return out.WriteSuccess("verify", map[string]interface{}{"ok": true, "checks": checks})
}

func (cmd *StatusCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)
	ctx := context.Background()

	adapter, err := getMailAdapter(ctx, flags)
	if err != nil {
		return out.WriteSuccess("status", map[string]interface{}{
			"profile":       flags.Profile,
			"authenticated": false,
			"error":         err.Error(),
		})
	}

	email, profErr := adapter.GetProfile(ctx)
	counts, countErr := adapter.LabelCounts(ctx)

	resp := map[string]interface{}{
		"profile":       flags.Profile,
		"authenticated": true,
	}
	if profErr == nil {
		resp["email"] = email
	}
	if countErr == nil {
		resp["labelCounts"] = counts
	} else {
		resp["labelCountsError"] = countErr.Error()
	}
	return out.WriteSuccess("status", resp)
}
