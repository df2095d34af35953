package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dl-alexandre/mail/internal/compose"
	"github.com/dl-alexandre/mail/internal/gmailapi"
	"github.com/dl-alexandre/mail/internal/groups"
	"github.com/dl-alexandre/mail/internal/styles"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, fake *gmailapi.Fake, n int) []string {
	t.Helper()
	from, err := types.ParseAddress("sender@example.com")
	require.NoError(t, err)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		fake.Seed(&types.Full{
			ID:       id,
			ThreadID: "thread-" + id,
			From:     from,
			Subject:  "msg " + id,
			Headers:  types.NewOrderedHeaders(),
		})
		ids = append(ids, id)
	}
	return ids
}

func writeDefinitions(t *testing.T, dir string, yamlBody string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, definitionsFileName), []byte(yamlBody), 0600))
}

// testComposer builds the same composer wiring the CLI uses for the
// engine's reply path: the fake stands in for the Gmail Adapter as the
// raw MIME sender.
func testComposer(dir string, fake *gmailapi.Fake) *compose.Composer {
	return compose.New(groups.NewStore(dir), styles.NewStore(dir), fake, compose.NewNonInteractiveConfirmer())
}

func newTestEngine(t *testing.T, fake *gmailapi.Fake) *Engine {
	t.Helper()
	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir)
	return New(defs, states, fake, testComposer(dir, fake))
}

func TestEngine_Start_ReturnsFirstMessage(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 3)
	engine := newTestEngine(t, fake)

	resp, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "msg a", resp.Email.Subject)
	assert.Equal(t, 3, resp.Progress.Total)
	assert.False(t, resp.Completed)
}

func TestEngine_Start_UnknownWorkflow(t *testing.T) {
	fake := gmailapi.NewFake()
	engine := newTestEngine(t, fake)

	_, err := engine.Start(context.Background(), "ghost")
	var unknown *ErrUnknownWorkflow
	assert.ErrorAs(t, err, &unknown)
}

func TestEngine_DrainOfThree(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 3)
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	r1, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)
	assert.False(t, r1.Completed)
	assert.Equal(t, "msg b", r1.Email.Subject)

	r2, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	require.NoError(t, err)
	assert.False(t, r2.Completed)
	assert.Equal(t, "msg c", r2.Email.Subject)

	r3, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)
	assert.True(t, r3.Completed)
	assert.Nil(t, r3.Email)

	require.Len(t, fake.Actions, 2, "skip must not reach the adapter")
}

func TestEngine_View_DoesNotAdvanceCursor(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	viewed, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionView})
	require.NoError(t, err)
	require.NotNil(t, viewed.FullEmail)
	assert.Equal(t, "msg a", viewed.FullEmail.Subject)
	assert.Equal(t, 1, viewed.Progress.Current)

	again, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionView})
	require.NoError(t, err)
	assert.Equal(t, "msg a", again.FullEmail.Subject, "view must not advance the cursor")
}

func TestEngine_Continue_ExpiredSessionReturnsErrExpired(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir).WithTTL(time.Minute)
	engine := New(defs, states, fake, testComposer(dir, fake))

	clockTime := time.Now()
	clock := func() time.Time { return clockTime }
	engine = engine.WithClock(clock)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	clockTime = clockTime.Add(2 * time.Minute)
	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	var expired *ErrExpired
	assert.ErrorAs(t, err, &expired)

	statePath := filepath.Join(dir, "workflow-states", start.Token+".json")
	_, statErr := os.Stat(statePath)
	assert.NoError(t, statErr, "expired state must remain on disk until an explicit cleanup pass")

	removed, err := engine.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, statErr = os.Stat(statePath)
	assert.True(t, os.IsNotExist(statErr), "cleanup must remove the expired state file")
}

func TestEngine_Start_EmptyResultSetIsImmediatelyCompleted(t *testing.T) {
	fake := gmailapi.NewFake()
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)
	assert.True(t, start.Completed)
	assert.Nil(t, start.Email)
	assert.Equal(t, 0, start.Progress.Total)
	assert.Equal(t, 0, start.Progress.Current)

	// The state file is still written, so a continue on the token
	// resolves to the completed response instead of erroring.
	again, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)
	assert.True(t, again.Completed)
	assert.Nil(t, again.Email)
	assert.Empty(t, fake.Actions)
}

func TestEngine_Continue_Quit(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	resp, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionQuit})
	require.NoError(t, err)
	assert.True(t, resp.Terminated)
	assert.True(t, resp.Completed, "a terminated session reports completed")

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	var unknown *ErrUnknownToken
	assert.ErrorAs(t, err, &unknown)
}

func TestEngine_Continue_ReplySendsAndAdvances(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	resp, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionReply, ReplyBody: "thanks"})
	require.NoError(t, err)
	assert.True(t, resp.ActionResult.OK)
	assert.Equal(t, "msg b", resp.Email.Subject)
	require.Len(t, fake.Sent, 1)

	raw := string(fake.Sent[0])
	assert.Contains(t, raw, "Subject: Re: msg a", "the composer's reply-subject rule must flow through the engine's send")
	assert.Contains(t, raw, "To: sender@example.com")
}

// failingSender is a compose.Sender whose raw send always fails, so a
// composer built over it exercises the engine's reply-failure path
// through the same wiring production uses.
type failingSender struct{}

func (failingSender) SendMIME(ctx context.Context, raw []byte, threadID string) (types.MessageID, error) {
	return "", assertErr
}

var assertErr = &sendError{}

type sendError struct{}

func (e *sendError) Error() string { return "send failed: quota exceeded" }

func TestEngine_Continue_ReplyFailureDoesNotAdvanceCursor(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir)
	composer := compose.New(groups.NewStore(dir), styles.NewStore(dir), failingSender{}, compose.NewNonInteractiveConfirmer())
	engine := New(defs, states, fake, composer)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionReply, ReplyBody: "thanks"})
	require.Error(t, err, "a failed send must surface as an error, not a successful-but-not-ok response")

	retry, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	require.NoError(t, err)
	assert.Equal(t, "msg b", retry.Email.Subject, "cursor must still be sitting on msg a's successor after skip, meaning the failed reply never advanced past msg a")
}

func TestEngine_Continue_PartialReplyFailureDoesNotAdvanceCursor(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)
	fake.ApplyActionErr = &sendError{}
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionReply, ReplyBody: "thanks"})
	var partial *ErrPartialReplyFailure
	require.ErrorAs(t, err, &partial)
	assert.Len(t, fake.Sent, 1, "the reply must already have been sent before the label modify failed")

	retry, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	require.NoError(t, err)
	assert.Equal(t, "msg b", retry.Email.Subject, "cursor must not have advanced past the message with the partial failure")
}

func TestEngine_Continue_ArchiveFailureDoesNotAdvanceCursor(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)
	fake.ApplyActionErr = &sendError{}
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.Error(t, err)

	fake.ApplyActionErr = nil
	retry, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)
	assert.Equal(t, "msg b", retry.Email.Subject, "the retried archive must still be acting on msg a")
}

func TestEngine_Continue_AfterCompletionReplaysCompletedResponse(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 1)
	engine := newTestEngine(t, fake)

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	done, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)
	require.True(t, done.Completed)

	again, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err, "continuing a completed token must resolve, not error as unknown")
	assert.True(t, again.Completed)
	assert.Nil(t, again.Email)
	require.Len(t, fake.Actions, 1, "a completed session must never reach the adapter again")

	quit, err := engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionQuit})
	require.NoError(t, err)
	assert.True(t, quit.Terminated)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	var unknown *ErrUnknownToken
	assert.ErrorAs(t, err, &unknown, "quit after completion must still tear the session down")
}

func TestEngine_Continue_SkipAutoMarkReadRemovesUnread(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 2)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n    autoMarkRead: true\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir)
	engine := New(defs, states, fake, testComposer(dir, fake))

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionSkip})
	require.NoError(t, err)

	require.Len(t, fake.Actions, 1)
	assert.Equal(t, gmailapi.ActionMarkRead, fake.Actions[0].Action)
}

func TestEngine_Continue_ArchiveAutoMarkReadCombinesIntoOneCall(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 1)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n    autoMarkRead: true\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir)
	engine := New(defs, states, fake, testComposer(dir, fake))

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionArchive})
	require.NoError(t, err)

	require.Len(t, fake.Actions, 1, "archive and mark-read must collapse into a single modify call")
	assert.Equal(t, gmailapi.ActionArchiveAndMarkRead, fake.Actions[0].Action)
}

func TestEngine_Continue_ViewNeverTouchesLabelsEvenWithAutoMarkRead(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 1)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n    autoMarkRead: true\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir)
	engine := New(defs, states, fake, testComposer(dir, fake))

	start, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	_, err = engine.Continue(context.Background(), start.Token, ActionInput{Type: ActionView})
	require.NoError(t, err)

	assert.Empty(t, fake.Actions, "view must never call ApplyAction, autoMarkRead or not")
}

func TestEngine_Cleanup_RemovesExpiredSessions(t *testing.T) {
	fake := gmailapi.NewFake()
	seed(t, fake, 1)

	dir := t.TempDir()
	writeDefinitions(t, dir, "workflows:\n  - name: triage\n    query: is:unread\n")
	defs := NewDefinitionStore(dir)
	states := NewStateStore(dir).WithTTL(time.Minute)
	clockTime := time.Now()
	engine := New(defs, states, fake, testComposer(dir, fake)).WithClock(func() time.Time { return clockTime })

	_, err := engine.Start(context.Background(), "triage")
	require.NoError(t, err)

	clockTime = clockTime.Add(2 * time.Minute)
	removed, err := engine.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
