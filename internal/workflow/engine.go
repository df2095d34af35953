package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dl-alexandre/mail/internal/gmailapi"
	"github.com/dl-alexandre/mail/internal/types"
)

// ActionType is the closed set of actions continue() accepts.
type ActionType string

const (
	ActionView    ActionType = "view"
	ActionArchive ActionType = "archive"
	ActionSkip    ActionType = "skip"
	ActionReply   ActionType = "reply"
	ActionQuit    ActionType = "quit"
)

// ActionInput is one continue() call's payload. ReplyBody is only
// consulted when Type is ActionReply.
type ActionInput struct {
	Type      ActionType
	ReplyBody string
}

// MailSource is the narrow view onto the Gmail Adapter the engine needs:
// enumerate and read messages, and apply non-reply mutating actions.
// Reply delivery goes through ReplySender instead so the engine never
// needs the composer's style/group resolution.
type MailSource interface {
	ListIDs(ctx context.Context, query string, pageSize int64, pageToken string) ([]types.MessageID, string, error)
	GetSummary(ctx context.Context, id types.MessageID) (*types.Summary, error)
	GetFull(ctx context.Context, id types.MessageID) (*types.Full, error)
	ApplyAction(ctx context.Context, id types.MessageID, action gmailapi.Action) error
}

// ReplySender is the narrow port the engine uses to deliver a reply to
// the current message. compose.Composer implements it; the engine never
// builds MIME or touches subject/threading rules itself, and the
// composer never learns about workflow session state.
type ReplySender interface {
	SendReply(ctx context.Context, original *types.Full, body string) (types.MessageID, error)
}

// Engine runs start/continue/cleanup against a DefinitionStore,
// StateStore and MailSource/ReplySender pair.
type Engine struct {
	defs   *DefinitionStore
	states *StateStore
	mail   MailSource
	sender ReplySender
	now    func() time.Time
}

// New wires an Engine. now defaults to time.Now; tests may override it
// via WithClock to make TTL expiry deterministic.
func New(defs *DefinitionStore, states *StateStore, mail MailSource, sender ReplySender) *Engine {
	return &Engine{defs: defs, states: states, mail: mail, sender: sender, now: time.Now}
}

// WithClock returns a copy of the engine using clock instead of time.Now.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	return &Engine{defs: e.defs, states: e.states, mail: e.mail, sender: e.sender, now: clock}
}

// Start resolves the named workflow's query, fetches every matching
// message ID up front (the ID list is frozen for the life of the
// session — messages arriving after start are never seen by it), and
// returns the first item's Summary.
func (e *Engine) Start(ctx context.Context, workflowName string) (*types.StartResponse, error) {
	def, err := e.defs.Get(workflowName)
	if err != nil {
		return nil, err
	}

	var ids []types.MessageID
	pageToken := ""
	for {
		page, next, err := e.mail.ListIDs(ctx, def.Query, 100, pageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages for workflow %q: %w", workflowName, err)
		}
		ids = append(ids, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	now := e.now()
	state, err := e.states.Create(*def, ids, now)
	if err != nil {
		return nil, err
	}

	resp := &types.StartResponse{
		Success:  true,
		Token:    state.Token,
		Progress: types.ProgressFor(state),
	}

	if state.Completed() {
		resp.Completed = true
		return resp, nil
	}

	summary, err := e.mail.GetSummary(ctx, state.IDs[state.Cursor])
	if err != nil {
		return nil, err
	}
	resp.Email = summary
	return resp, nil
}

// ErrPartialReplyFailure is returned when a reply's send succeeded but the
// follow-up archive modify failed. The message has already left Gmail —
// retrying "reply" would re-send it — so the cursor is deliberately left
// unadvanced only to keep the failure visible in history; callers must
// recover with "skip", never by reissuing "reply".
type ErrPartialReplyFailure struct {
	ID  types.MessageID
	Err error
}

func (e *ErrPartialReplyFailure) Error() string {
	return fmt.Sprintf("reply to %s was sent but the inbox label could not be cleared: %v (message already sent — use 'skip' to advance, do not retry 'reply')", e.ID, e.Err)
}

func (e *ErrPartialReplyFailure) Unwrap() error { return e.Err }

// Continue applies action to the message at the session's current
// cursor and advances it, except for ActionView which only returns the
// Full projection of the current message without moving the cursor —
// "view" is the one action that does not advance. Once the
// session is completed, every action but quit is a no-op that replays the
// completed response; quit always tears the session down.
func (e *Engine) Continue(ctx context.Context, token string, input ActionInput) (*types.ContinueResponse, error) {
	now := e.now()
	state, err := e.states.Load(token, now)
	if err != nil {
		return nil, err
	}

	if state.Completed() {
		if input.Type == ActionQuit {
			if err := e.states.Delete(token); err != nil {
				return nil, err
			}
			return &types.ContinueResponse{Success: true, Token: token, Progress: types.ProgressFor(state), Completed: true, Terminated: true}, nil
		}
		return &types.ContinueResponse{Success: true, Token: token, Progress: types.ProgressFor(state), Completed: true}, nil
	}

	currentID := state.IDs[state.Cursor]
	state.LastActivityAt = now

	switch input.Type {
	case ActionView:
		full, err := e.mail.GetFull(ctx, currentID)
		if err != nil {
			return nil, err
		}
		if err := e.states.Save(state); err != nil {
			return nil, err
		}
		return &types.ContinueResponse{
			Success:   true,
			Token:     token,
			FullEmail: full,
			Progress:  types.ProgressFor(state),
		}, nil

	case ActionQuit:
		if err := e.states.Delete(token); err != nil {
			return nil, err
		}
		return &types.ContinueResponse{
			Success:      true,
			Token:        token,
			ActionResult: &types.ActionResult{ID: currentID, Action: string(ActionQuit), OK: true},
			Progress:     types.ProgressFor(state),
			Completed:    true,
			Terminated:   true,
		}, nil

	case ActionSkip:
		if state.AutoMarkRead {
			if err := e.mail.ApplyAction(ctx, currentID, gmailapi.ActionMarkRead); err != nil {
				return nil, e.fail(state, currentID, input.Type, err)
			}
		}
		return e.advance(ctx, state, types.ActionResult{ID: currentID, Action: string(input.Type), OK: true})

	case ActionArchive:
		action := gmailapi.ActionArchive
		if state.AutoMarkRead {
			action = gmailapi.ActionArchiveAndMarkRead
		}
		if err := e.mail.ApplyAction(ctx, currentID, action); err != nil {
			return nil, e.fail(state, currentID, input.Type, err)
		}
		return e.advance(ctx, state, types.ActionResult{ID: currentID, Action: string(input.Type), OK: true})

	case ActionReply:
		full, ferr := e.mail.GetFull(ctx, currentID)
		if ferr != nil {
			return nil, ferr
		}
		if _, serr := e.sender.SendReply(ctx, full, input.ReplyBody); serr != nil {
			return nil, e.fail(state, currentID, input.Type, serr)
		}
		if merr := e.mail.ApplyAction(ctx, currentID, gmailapi.ActionArchive); merr != nil {
			return nil, e.fail(state, currentID, input.Type, &ErrPartialReplyFailure{ID: currentID, Err: merr})
		}
		return e.advance(ctx, state, types.ActionResult{ID: currentID, Action: string(input.Type), OK: true})

	default:
		return nil, fmt.Errorf("workflow: unsupported action %q", input.Type)
	}
}

// fail records a failed action against the current (un-advanced) cursor
// position and persists it, so a client that retries the same continue()
// call replays against the same message rather than skipping past it.
func (e *Engine) fail(state *types.WorkflowState, id types.MessageID, action ActionType, cause error) error {
	state.History = append(state.History, types.HistoryEntry{
		ID:     id,
		Action: string(action),
		OK:     false,
		Error:  cause.Error(),
		Ts:     state.LastActivityAt,
	})
	if err := e.states.Save(state); err != nil {
		return err
	}
	return cause
}

// advance records the action in history, moves the cursor forward,
// persists state, and returns the next message's Summary (or reports
// completion once the cursor reaches the end). The completed state file
// is kept on disk, not deleted, so a subsequent continue() still resolves
// the token and replays the completed response instead of erroring.
func (e *Engine) advance(ctx context.Context, state *types.WorkflowState, result types.ActionResult) (*types.ContinueResponse, error) {
	state.History = append(state.History, types.HistoryEntry{
		ID:     result.ID,
		Action: result.Action,
		OK:     result.OK,
		Error:  result.Error,
		Ts:     state.LastActivityAt,
	})
	state.Cursor++

	resp := &types.ContinueResponse{
		Success:      true,
		Token:        state.Token,
		ActionResult: &result,
		Progress:     types.ProgressFor(state),
	}

	if state.Completed() {
		resp.Completed = true
		if err := e.states.Save(state); err != nil {
			return nil, err
		}
		return resp, nil
	}

	if err := e.states.Save(state); err != nil {
		return nil, err
	}

	summary, err := e.mail.GetSummary(ctx, state.IDs[state.Cursor])
	if err != nil {
		return nil, err
	}
	resp.Email = summary
	return resp, nil
}

// Cleanup proactively removes every session past its TTL and reports
// how many were removed.
func (e *Engine) Cleanup() (int, error) {
	return e.states.Cleanup(e.now())
}
