package gmailapi

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/dl-alexandre/mail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func seedMessage(t *testing.T, fake *Fake, id, subject string) {
	t.Helper()
	from, err := types.ParseAddress("sender@example.com")
	require.NoError(t, err)
	fake.Seed(&types.Full{
		ID:       id,
		ThreadID: "thread-" + id,
		From:     from,
		Subject:  subject,
		Date:     time.Unix(0, 0),
		LabelIDs: []string{"INBOX", "UNREAD"},
		BodyText: "body of " + subject,
		Headers:  types.NewOrderedHeaders(),
	})
}

func TestFake_ListIDs_RejectsOversizedQuery(t *testing.T) {
	fake := NewFake()
	huge := make([]byte, MaxQueryLength+1)
	for i := range huge {
		huge[i] = 'a'
	}
	_, _, err := fake.ListIDs(context.Background(), string(huge), 10, "")
	var tooLarge *ErrQueryTooLarge
	assert.ErrorAs(t, err, &tooLarge)
}

func TestFake_BatchGetSummaries_PreservesOrderAndReportsPerIDErrors(t *testing.T) {
	fake := NewFake()
	seedMessage(t, fake, "m1", "first")
	seedMessage(t, fake, "m2", "second")

	summaries, errs := fake.BatchGetSummaries(context.Background(), []types.MessageID{"m2", "ghost", "m1"})
	require.Len(t, summaries, 3)
	assert.Equal(t, "second", summaries[0].Subject)
	assert.Nil(t, summaries[1])
	assert.Equal(t, "first", summaries[2].Subject)
	assert.Error(t, errs["ghost"])
	assert.Len(t, errs, 1)
}

func TestFake_ApplyAction_RecordsCall(t *testing.T) {
	fake := NewFake()
	seedMessage(t, fake, "m1", "first")

	require.NoError(t, fake.ApplyAction(context.Background(), "m1", ActionArchive))
	require.Len(t, fake.Actions, 1)
	assert.Equal(t, ActionArchive, fake.Actions[0].Action)
}

func TestFake_SendMIME_RecordsPayload(t *testing.T) {
	fake := NewFake()
	id, err := fake.SendMIME(context.Background(), []byte("raw mime"), "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, fake.Sent, 1)
	assert.Equal(t, "raw mime", string(fake.Sent[0]))
}

func TestFullFromMessage_ExcludesInlineNoFilenameAndCalendarParts(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		LabelIds: []string{"INBOX"},
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "sender@example.com"},
				{Name: "Subject", Value: "hi"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("hello world"))},
				},
				{
					MimeType: "text/calendar",
					Body:     &gmail.MessagePartBody{AttachmentId: "cal1", Size: 10},
				},
				{
					MimeType: "image/png",
					Body:     &gmail.MessagePartBody{Size: 5},
				},
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmail.MessagePartBody{AttachmentId: "att1", Size: 1024},
				},
			},
		},
	}

	full := fullFromMessage(msg)

	assert.Equal(t, "hello world", full.BodyText)
	require.Len(t, full.Attachments, 1)
	assert.Equal(t, "report.pdf", full.Attachments[0].Filename)
}

func TestFullFromMessage_BodyExtractionTakesFirstNonEmptyPartOnly(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m2",
		ThreadId: "t2",
		LabelIds: []string{"INBOX"},
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "sender@example.com"},
				{Name: "Subject", Value: "hi"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: ""},
				},
				{
					MimeType: "multipart/alternative",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("first body"))},
						},
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("second body"))},
						},
					},
				},
			},
		},
	}

	full := fullFromMessage(msg)

	assert.Equal(t, "first body", full.BodyText, "empty earlier part must not block a later non-empty one, but a later non-empty part must never override an earlier non-empty one")
}
