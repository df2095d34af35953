package compose

import (
	"fmt"
	"strings"

	"github.com/dl-alexandre/mail/internal/safety"
)

// SafetyConfirmer adapts the shared internal/safety confirmation
// machinery to the Composer's Confirmer port, rendering the preview
// as the confirmation message. Non-interactive runs without --yes/--force
// decline rather than hang: piped stdin is never an implicit yes.
type SafetyConfirmer struct {
	Options safety.SafetyOptions
}

// NewSafetyConfirmer builds a Confirmer from CLI-derived safety flags.
func NewSafetyConfirmer(dryRun, force, yes, quiet bool) *SafetyConfirmer {
	return &SafetyConfirmer{Options: safety.ResolveOptions(dryRun, force, yes, quiet)}
}

func (c *SafetyConfirmer) Confirm(preview Preview) (bool, error) {
	return safety.Confirm(renderPreview(preview), c.Options)
}

// NonInteractiveConfirmer always declines, regardless of flags. It is the
// Confirmer a library caller gets by default so composing a message is
// never a surprise side effect.
type NonInteractiveConfirmer struct{}

func NewNonInteractiveConfirmer() *NonInteractiveConfirmer { return &NonInteractiveConfirmer{} }

func (c *NonInteractiveConfirmer) Confirm(preview Preview) (bool, error) {
	return false, nil
}

func renderPreview(p Preview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Send to %s", addrList(p.To))
	if len(p.Cc) > 0 {
		fmt.Fprintf(&b, " (cc %s)", addrList(p.Cc))
	}
	if len(p.Bcc) > 0 {
		fmt.Fprintf(&b, " (bcc %s)", addrList(p.Bcc))
	}
	fmt.Fprintf(&b, "\nSubject: %s\n", p.Subject)
	for _, a := range p.Attachments {
		fmt.Fprintf(&b, "Attachment: %s (%s, %d bytes)\n", a.Filename, a.MimeType, a.Size)
	}
	fmt.Fprintf(&b, "\n%s", p.Body)
	return b.String()
}
