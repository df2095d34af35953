// Package gmailapi implements the narrow Gmail Adapter contract the
// workflow engine and composer depend on: listIds, getSummary, getFull,
// batchGetSummaries, applyAction, sendMIME and labelCounts. It is a thin,
// Summary/Full-shaped layer over the Gmail service and internal/api's
// retrying client, kept separate so the engine and composer never import
// the raw google.golang.org/api/gmail/v1 types directly.
package gmailapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dl-alexandre/mail/internal/api"
	"github.com/dl-alexandre/mail/internal/types"
	gmail "google.golang.org/api/gmail/v1"
)

// MaxQueryLength is the upper bound on a search query's length. Longer
// queries are rejected before any request is issued.
const MaxQueryLength = 500

// DefaultFanout bounds the number of concurrent getFull/getSummary
// requests batchGetSummaries issues.
const DefaultFanout = 8

// ErrQueryTooLarge is returned by ListIDs when query exceeds MaxQueryLength.
type ErrQueryTooLarge struct{ Length int }

func (e *ErrQueryTooLarge) Error() string {
	return fmt.Sprintf("query is %d characters, exceeds the %d character limit", e.Length, MaxQueryLength)
}

// Action is the closed set of operations applyAction accepts.
type Action string

const (
	ActionArchive            Action = "archive"
	ActionSkip               Action = "skip"
	ActionMarkRead           Action = "markRead"
	ActionArchiveAndMarkRead Action = "archiveAndMarkRead"
)

// ErrLabelApplyFailed is returned when Gmail answers a modify call with
// 200 OK but the returned label set still carries a label the request
// asked to remove — a silent non-application a plain nil error from the
// HTTP layer would miss.
type ErrLabelApplyFailed struct {
	Requested []string
	Got       []string
}

func (e *ErrLabelApplyFailed) Error() string {
	return fmt.Sprintf("gmail accepted the modify request but label(s) %v are still present in the result (%v)", e.Requested, e.Got)
}

// Adapter is the Gmail Adapter: all mailbox access the rest of the system
// needs, shaped around Summary/Full rather than the raw API types.
type Adapter struct {
	client  *api.Client
	service *gmail.Service
	profile string
	fanout  int
}

// NewAdapter wires an Adapter over an already-authenticated Gmail service
// and the shared retrying API client.
func NewAdapter(client *api.Client, service *gmail.Service, profile string) *Adapter {
	return &Adapter{client: client, service: service, profile: profile, fanout: DefaultFanout}
}

// ListIDs returns the message IDs matching query, plus a next page token.
// It is the only operation that accepts a raw search query, and enforces
// MaxQueryLength up front so a workflow never starts against a query the
// API would itself reject.
func (a *Adapter) ListIDs(ctx context.Context, query string, pageSize int64, pageToken string) ([]types.MessageID, string, error) {
	if len(query) > MaxQueryLength {
		return nil, "", &ErrQueryTooLarge{Length: len(query)}
	}

	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeListOrSearch)
	call := a.service.Users.Messages.List("me")
	if query != "" {
		call = call.Q(query)
	}
	if pageSize > 0 {
		call = call.MaxResults(pageSize)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	result, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.ListMessagesResponse, error) {
		return call.Do()
	})
	if err != nil {
		return nil, "", err
	}

	ids := make([]types.MessageID, len(result.Messages))
	for i, m := range result.Messages {
		ids[i] = m.Id
	}
	return ids, result.NextPageToken, nil
}

// GetSummary fetches one message in metadata format and projects it to a
// Summary — the shape a list/workflow view is allowed to see.
func (a *Adapter) GetSummary(ctx context.Context, id types.MessageID) (*types.Summary, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeGetByID)
	call := a.service.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("From", "To", "Cc", "Subject", "Date")
	msg, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Message, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}
	return summaryFromMessage(msg), nil
}

// GetFull fetches one message in full format, extracts its plain/HTML
// bodies and enumerates real attachments.
func (a *Adapter) GetFull(ctx context.Context, id types.MessageID) (*types.Full, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeGetByID)
	call := a.service.Users.Messages.Get("me", id).Format("full")
	msg, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Message, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}
	return fullFromMessage(msg), nil
}

// BatchGetSummaries fans out GetSummary across ids with bounded
// concurrency, preserving the caller's order in the returned slice. A
// per-id error does not abort the batch; it is returned alongside a nil
// summary at that index via the errs map.
func (a *Adapter) BatchGetSummaries(ctx context.Context, ids []types.MessageID) ([]*types.Summary, map[types.MessageID]error) {
	out := make([]*types.Summary, len(ids))
	errs := make(map[types.MessageID]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, a.fanout)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id types.MessageID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s, err := a.GetSummary(ctx, id)
			if err != nil {
				mu.Lock()
				errs[id] = err
				mu.Unlock()
				return
			}
			out[i] = s
		}(i, id)
	}
	wg.Wait()
	return out, errs
}

// ApplyAction performs a mutating mailbox operation on a single message.
// ActionSkip is a no-op handled entirely by the workflow engine and is
// never expected to reach this adapter.
func (a *Adapter) ApplyAction(ctx context.Context, id types.MessageID, action Action) error {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeMutation)
	req := &gmail.ModifyMessageRequest{}
	switch action {
	case ActionArchive:
		req.RemoveLabelIds = []string{"INBOX"}
	case ActionMarkRead:
		req.RemoveLabelIds = []string{"UNREAD"}
	case ActionArchiveAndMarkRead:
		req.RemoveLabelIds = []string{"INBOX", "UNREAD"}
	default:
		return fmt.Errorf("gmailapi: unsupported action %q", action)
	}
	call := a.service.Users.Messages.Modify("me", id, req)
	result, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Message, error) {
		return call.Do()
	})
	if err != nil {
		return err
	}
	for _, removed := range req.RemoveLabelIds {
		for _, still := range result.LabelIds {
			if still == removed {
				return &ErrLabelApplyFailed{Requested: req.RemoveLabelIds, Got: result.LabelIds}
			}
		}
	}
	return nil
}

// GetThreadFull fetches every message in a thread in full format. A
// thread view is per-message Full detail, never a collapsed Summary —
// the same projection a direct message Read returns.
func (a *Adapter) GetThreadFull(ctx context.Context, threadID types.ThreadID) ([]*types.Full, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeGetByID)
	call := a.service.Users.Threads.Get("me", threadID).Format("full")
	thread, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Thread, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Full, len(thread.Messages))
	for i, m := range thread.Messages {
		out[i] = fullFromMessage(m)
	}
	return out, nil
}

// GetProfile returns the authenticated account's email address, used to
// populate the From header on outbound mail.
func (a *Adapter) GetProfile(ctx context.Context) (string, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeGetByID)
	call := a.service.Users.GetProfile("me")
	result, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Profile, error) {
		return call.Do()
	})
	if err != nil {
		return "", err
	}
	return result.EmailAddress, nil
}

// SendMIME sends a pre-built RFC 2822 message, optionally threaded onto
// an existing thread for replies.
func (a *Adapter) SendMIME(ctx context.Context, raw []byte, threadID string) (types.MessageID, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeMutation)
	msg := &gmail.Message{Raw: encodeRaw(raw)}
	if threadID != "" {
		msg.ThreadId = threadID
	}
	call := a.service.Users.Messages.Send("me", msg)
	result, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Message, error) {
		return call.Do()
	})
	if err != nil {
		return "", err
	}
	return result.Id, nil
}

// LabelCounts returns the unread/total message counts for every user and
// system label. Per the adapter contract this costs one listLabels call
// plus one getLabel call per label (the list endpoint alone does not
// return counts).
func (a *Adapter) LabelCounts(ctx context.Context) (map[string]types.LabelCount, error) {
	reqCtx := api.NewRequestContext(a.profile, types.RequestTypeListOrSearch)
	listCall := a.service.Users.Labels.List("me")
	list, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.ListLabelsResponse, error) {
		return listCall.Do()
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.LabelCount, len(list.Labels))
	for _, l := range list.Labels {
		getCall := a.service.Users.Labels.Get("me", l.Id)
		detail, err := api.ExecuteWithRetry(ctx, a.client, reqCtx, func() (*gmail.Label, error) {
			return getCall.Do()
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch counts for label %q: %w", l.Name, err)
		}
		out[l.Name] = types.LabelCount{
			Total:  detail.MessagesTotal,
			Unread: detail.MessagesUnread,
		}
	}
	return out, nil
}

func encodeRaw(raw []byte) string {
	return base64.URLEncoding.EncodeToString(raw)
}

// decodeBody accepts Gmail's base64url body encoding, which in practice
// is sometimes padded and sometimes not.
func decodeBody(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

func summaryFromMessage(msg *gmail.Message) *types.Summary {
	if msg == nil {
		return &types.Summary{}
	}
	headers := headerMap(msg.Payload)
	s := &types.Summary{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		Subject:      headers["subject"],
		Snippet:      msg.Snippet,
		LabelIDs:     msg.LabelIds,
		SizeEstimate: msg.SizeEstimate,
	}
	if from, err := types.ParseAddress(headers["from"]); err == nil {
		s.From = from
	}
	s.To = parseAddressList(headers["to"])
	s.Cc = parseAddressList(headers["cc"])
	s.Date = parseDate(headers["date"])
	for _, id := range msg.LabelIds {
		switch id {
		case "UNREAD":
			s.IsUnread = true
		case "IMPORTANT":
			s.IsImportant = true
		}
	}
	s.HasAttachment = hasAttachment(msg.Payload)
	return s
}

func fullFromMessage(msg *gmail.Message) *types.Full {
	if msg == nil {
		return &types.Full{}
	}
	summary := summaryFromMessage(msg)
	f := &types.Full{
		ID:            summary.ID,
		ThreadID:      summary.ThreadID,
		From:          summary.From,
		To:            summary.To,
		Cc:            summary.Cc,
		Subject:       summary.Subject,
		Date:          summary.Date,
		Snippet:       summary.Snippet,
		LabelIDs:      summary.LabelIDs,
		IsUnread:      summary.IsUnread,
		IsImportant:   summary.IsImportant,
		HasAttachment: summary.HasAttachment,
		SizeEstimate:  summary.SizeEstimate,
		Headers:       types.NewOrderedHeaders(),
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			f.Headers.Add(h.Name, h.Value)
		}
	}

	var text, html string
	var warnings []string
	walkParts(msg.Payload, &text, &html, &f.Attachments, &warnings)
	f.BodyText = text
	f.BodyHTML = html
	f.Warnings = warnings
	return f
}

// walkParts recursively extracts plain/HTML bodies and enumerates real
// attachments. Body extraction is total and picks only the first
// non-empty text/plain and first non-empty text/html part encountered in
// traversal order, preferring a deeper/later part only when every
// earlier candidate decoded empty — it never concatenates multiple
// parts together. A part is a real attachment only if it carries
// an attachmentId and a filename; text/calendar bodies and inline parts
// without a filename are excluded.
func walkParts(part *gmail.MessagePart, text, html *string, attachments *[]types.AttachmentRef, warnings *[]string) {
	if part == nil {
		return
	}

	mimeType := strings.ToLower(part.MimeType)
	if part.Body != nil && part.Body.Data != "" {
		decoded, err := decodeBody(part.Body.Data)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("failed to decode %s part: %v", mimeType, err))
		} else {
			switch {
			case mimeType == "text/plain" && *text == "" && len(decoded) > 0:
				*text = string(decoded)
			case mimeType == "text/html" && *html == "" && len(decoded) > 0:
				*html = string(decoded)
			}
		}
	}

	if part.Body != nil && part.Body.AttachmentId != "" && part.Filename != "" && mimeType != "text/calendar" {
		*attachments = append(*attachments, types.AttachmentRef{
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         int64(part.Body.Size),
			AttachmentID: part.Body.AttachmentId,
		})
	}

	for _, child := range part.Parts {
		walkParts(child, text, html, attachments, warnings)
	}
}

func hasAttachment(part *gmail.MessagePart) bool {
	if part == nil {
		return false
	}
	if part.Body != nil && part.Body.AttachmentId != "" && part.Filename != "" && strings.ToLower(part.MimeType) != "text/calendar" {
		return true
	}
	for _, child := range part.Parts {
		if hasAttachment(child) {
			return true
		}
	}
	return false
}

func headerMap(part *gmail.MessagePart) map[string]string {
	out := map[string]string{}
	if part == nil {
		return out
	}
	for _, h := range part.Headers {
		out[strings.ToLower(h.Name)] = h.Value
	}
	return out
}

func parseAddressList(raw string) []types.Address {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []types.Address
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if a, err := types.ParseAddress(part); err == nil {
			out = append(out, a)
		}
	}
	return out
}

func parseDate(raw string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700 (MST)"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
