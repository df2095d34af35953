// Package compose implements the Email Composition Pipeline: recipient
// group expansion, style resolution, preview rendering, a confirmation
// gate, MIME construction and send. It depends on the Gmail Adapter only
// through the narrow Sender port so it never needs the workflow engine's
// session state, and vice versa.
package compose

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/dl-alexandre/mail/internal/groups"
	"github.com/dl-alexandre/mail/internal/styles"
	"github.com/dl-alexandre/mail/internal/types"
)

// MaxAttachmentBytes caps the combined size of all attachments on one
// outbound message.
const MaxAttachmentBytes = 25 << 20

// DefaultStyleName is the style the heuristic falls back to when the
// caller names none and no domain rule matches.
const DefaultStyleName = "professional-friendly"

// domainStyles maps recipient domains to the style the heuristic prefers
// for them. Anything not listed falls through to DefaultStyleName.
var domainStyles = map[string]string{
	"gmail.com":   "casual",
	"yahoo.com":   "casual",
	"outlook.com": "casual",
	"hotmail.com": "casual",
}

// Sender is the narrow port onto the Gmail Adapter the composer needs:
// just "send these bytes". Kept separate from gmailapi.Adapter's full
// method set so compose and workflow can each depend on the slice they
// actually use without importing one another.
type Sender interface {
	SendMIME(ctx context.Context, raw []byte, threadID string) (types.MessageID, error)
}

// Confirmer gates a send behind explicit approval. The CLI's interactive
// implementation prompts on a TTY; see internal/compose.NonInteractiveConfirmer
// for the always-no default used in scripts and tests.
type Confirmer interface {
	Confirm(preview Preview) (bool, error)
}

// Draft is the caller-supplied composition request before expansion or
// style resolution.
type Draft struct {
	To          []string // raw tokens: "#group", "a@b.com", "Name <a@b.com>"
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Style       string   // style name, or "" to pick one by heuristic
	Attachments []string // local file paths
	InReplyTo   string   // Message-ID header value, for threaded replies
	ThreadID    string
	FromAddress types.Address
}

// PreviewAttachment describes one resolved attachment on the preview.
type PreviewAttachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Preview is the fully-resolved, not-yet-sent message shown to the
// Confirmer and, in --dry-run, to the caller instead of sending. Body is
// always exactly the caller's own text — the style is advisory
// text guiding composition, never injected as a template: StyleGreeting
// and StyleClosing surface the style's own greeting/closing patterns
// alongside the body so an agent or human can choose to work them in,
// but the composer never concatenates them on the caller's behalf.
type Preview struct {
	To            []types.Address     `json:"to"`
	Cc            []types.Address     `json:"cc"`
	Bcc           []types.Address     `json:"bcc"`
	Subject       string              `json:"subject"`
	Body          string              `json:"body"`
	Style         string              `json:"style,omitempty"`
	StyleGreeting string              `json:"styleGreeting,omitempty"`
	StyleClosing  string              `json:"styleClosing,omitempty"`
	Attachments   []PreviewAttachment `json:"attachments,omitempty"`
}

func (p *Preview) Headers() []string { return []string{"To", "Cc", "Bcc", "Subject", "Style"} }
func (p *Preview) Rows() [][]string {
	return [][]string{{addrList(p.To), addrList(p.Cc), addrList(p.Bcc), p.Subject, p.Style}}
}
func (p *Preview) EmptyMessage() string { return "No preview" }

func addrList(addrs []types.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.Email()
	}
	return strings.Join(parts, ", ")
}

// Result is returned by Send on success.
type Result struct {
	MessageID types.MessageID `json:"messageId"`
	Preview   Preview         `json:"preview"`
}

// ErrCancelled is returned when the Confirmer declines the send.
var ErrCancelled = fmt.Errorf("compose: send cancelled")

// Composer wires the Group Store and Style Store into one pipeline:
// expand -> resolve style -> preview -> confirm -> build MIME -> send.
type Composer struct {
	groups    *groups.Store
	styles    *styles.Store
	sender    Sender
	confirmer Confirmer
}

// New builds a Composer over the given stores, sender and confirmation
// gate. Pass NewNonInteractiveConfirmer() for scripted/non-TTY use.
func New(groupStore *groups.Store, styleStore *styles.Store, sender Sender, confirmer Confirmer) *Composer {
	return &Composer{groups: groupStore, styles: styleStore, sender: sender, confirmer: confirmer}
}

// Preview resolves a Draft into a Preview without sending anything.
// Recipient de-duplication runs across the union of to/cc/bcc, keeping
// the first occurrence: an address that already appears in to never
// reappears in cc or bcc.
func (c *Composer) Preview(draft Draft) (*Preview, error) {
	to, err := c.groups.Expand(draft.To)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recipients: %w", err)
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("message must have at least one recipient")
	}

	cc, err := c.groups.Expand(draft.Cc)
	if err != nil {
		return nil, fmt.Errorf("failed to expand cc recipients: %w", err)
	}

	bcc, err := c.groups.Expand(draft.Bcc)
	if err != nil {
		return nil, fmt.Errorf("failed to expand bcc recipients: %w", err)
	}

	seen := map[string]bool{}
	to = dedupeAgainst(to, seen)
	cc = dedupeAgainst(cc, seen)
	bcc = dedupeAgainst(bcc, seen)

	preview := &Preview{To: to, Cc: cc, Bcc: bcc, Subject: draft.Subject, Body: draft.Body}

	styleName := draft.Style
	explicit := styleName != ""
	if !explicit {
		styleName = pickStyle(to)
	}
	if styleName != "" {
		greeting, closing, err := c.resolveStyle(styleName)
		if err != nil {
			// A heuristic pick that doesn't resolve (style not created
			// yet) is dropped silently; only an explicitly named style
			// is allowed to fail the preview.
			if explicit {
				return nil, err
			}
		} else {
			preview.Style = styleName
			preview.StyleGreeting = greeting
			preview.StyleClosing = closing
		}
	}

	atts, err := resolveAttachments(draft.Attachments)
	if err != nil {
		return nil, err
	}
	preview.Attachments = atts

	return preview, nil
}

// dedupeAgainst filters addrs down to those whose identity has not been
// seen yet, recording each kept address in seen.
func dedupeAgainst(addrs []types.Address, seen map[string]bool) []types.Address {
	out := make([]types.Address, 0, len(addrs))
	for _, a := range addrs {
		key := a.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// pickStyle chooses a style name from the recipients' domains. The first
// domain with a table entry wins; everything else gets the default.
func pickStyle(to []types.Address) string {
	for _, a := range to {
		if name, ok := domainStyles[strings.ToLower(a.Domain)]; ok {
			return name
		}
	}
	return DefaultStyleName
}

// resolveStyle surfaces the named style's greeting/closing patterns for
// display alongside the draft. It never rewrites the caller's body — the
// style is advisory text guiding composition, not a template that gets
// concatenated around it. A style that itself fails Lint is never
// surfaced; composition proceeds with the unstyled body rather than
// showing patterns drawn from a broken style document.
func (c *Composer) resolveStyle(name string) (greeting, closing string, err error) {
	content, err := c.styles.Show(name)
	if err != nil {
		return "", "", err
	}
	report := styles.Lint(content, false)
	if !report.OK {
		return "", "", fmt.Errorf("style %q is not valid and cannot be applied: %d violation(s)", name, len(report.Errors))
	}

	sections := extractSections(content)
	return sections["greeting"], sections["closing"], nil
}

// extractSections pulls raw section bodies keyed by tag name out of a
// style document, ignoring frontmatter. It is deliberately forgiving
// since Lint has already gated well-formedness before this is called.
func extractSections(content string) map[string]string {
	out := map[string]string{}
	for _, name := range []string{"greeting", "closing"} {
		open := "<" + name + ">"
		closeTag := "</" + name + ">"
		start := strings.Index(content, open)
		if start == -1 {
			continue
		}
		start += len(open)
		end := strings.Index(content[start:], closeTag)
		if end == -1 {
			continue
		}
		out[name] = strings.TrimSpace(content[start : start+end])
	}
	return out
}

// resolveAttachments stats every attachment path, sniffs its content type
// and enforces the combined size cap, without reading file contents into
// memory yet — buildMIME does that once the send is confirmed.
func resolveAttachments(paths []string) ([]PreviewAttachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]PreviewAttachment, 0, len(paths))
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("attachment %q is a directory", p)
		}
		total += info.Size()
		if total > MaxAttachmentBytes {
			return nil, fmt.Errorf("attachments exceed the %d MiB limit", MaxAttachmentBytes>>20)
		}
		out = append(out, PreviewAttachment{
			Filename: filepath.Base(p),
			MimeType: sniffContentType(p),
			Size:     info.Size(),
		})
	}
	return out, nil
}

// sniffContentType resolves a file's content type by extension first,
// falling back to magic-byte detection, then octet-stream.
func sniffContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}

// ReplySubject prepends "Re: " unless the subject already carries it.
func ReplySubject(subject string) string {
	if len(subject) >= 4 && (subject[:4] == "Re: " || subject[:4] == "RE: ") {
		return subject
	}
	return "Re: " + subject
}

// SendReply delivers a threaded reply to original with no confirmation
// gate — inside a workflow the action itself is the approval. This is
// the narrow port the workflow engine depends on, so the engine never
// needs the rest of the composer's surface and the composer never needs
// the engine's session state.
func (c *Composer) SendReply(ctx context.Context, original *types.Full, body string) (types.MessageID, error) {
	messageID := ""
	if original.Headers != nil {
		if ids := original.Headers.Get("message-id"); len(ids) > 0 {
			messageID = ids[0]
		}
	}

	draft := Draft{
		To:        []string{original.From.Email()},
		Subject:   ReplySubject(original.Subject),
		Body:      body,
		InReplyTo: messageID,
		ThreadID:  original.ThreadID,
	}

	preview, err := c.Preview(draft)
	if err != nil {
		return "", err
	}
	raw, err := buildMIME(draft.FromAddress, *preview, draft.InReplyTo, nil)
	if err != nil {
		return "", err
	}
	return c.sender.SendMIME(ctx, raw, draft.ThreadID)
}

// Send runs the full pipeline: preview, confirm, build MIME, send.
// ErrCancelled is returned (not treated as a failure) when the Confirmer
// declines.
func (c *Composer) Send(ctx context.Context, draft Draft) (*Result, error) {
	preview, err := c.Preview(draft)
	if err != nil {
		return nil, err
	}

	ok, err := c.confirmer.Confirm(*preview)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCancelled
	}

	raw, err := buildMIME(draft.FromAddress, *preview, draft.InReplyTo, draft.Attachments)
	if err != nil {
		return nil, err
	}
	id, err := c.sender.SendMIME(ctx, raw, draft.ThreadID)
	if err != nil {
		return nil, err
	}

	return &Result{MessageID: id, Preview: *preview}, nil
}

// buildMIME renders an RFC 2822 message. Reply headers (In-Reply-To,
// References) are set whenever inReplyTo is non-empty. A message without
// attachments is a bare text/plain part; with attachments it becomes
// multipart/mixed with one base64 part per file.
func buildMIME(from types.Address, preview Preview, inReplyTo string, attachmentPaths []string) ([]byte, error) {
	var buf bytes.Buffer

	// Gmail stamps the authenticated identity itself when no From header
	// is supplied (the workflow reply path relies on this).
	if from.Local != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	}
	fmt.Fprintf(&buf, "To: %s\r\n", addrList(preview.To))
	if len(preview.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", addrList(preview.Cc))
	}
	if len(preview.Bcc) > 0 {
		fmt.Fprintf(&buf, "Bcc: %s\r\n", addrList(preview.Bcc))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", preview.Subject)
	if inReplyTo != "" {
		fmt.Fprintf(&buf, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&buf, "References: %s\r\n", inReplyTo)
	}
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if len(attachmentPaths) == 0 {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(preview.Body)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	textHeader := make(textproto.MIMEHeader)
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	part, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(part, preview.Body)

	for _, p := range attachmentPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("attachment %q: %w", p, err)
		}
		name := filepath.Base(p)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Type", sniffContentType(p))
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		fmt.Fprint(part, base64.StdEncoding.EncodeToString(data))
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
