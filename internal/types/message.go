package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MessageID and ThreadID are opaque, stable strings supplied by Gmail. They
// are distinct namespaces even for a single-message thread.
type MessageID = string
type ThreadID = string

// AttachmentRef describes one user-visible attachment on a Full message.
type AttachmentRef struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	AttachmentID string `json:"attachmentId"`
}

// Summary is the cheap, list-friendly projection of a Gmail message. It
// deliberately has no body, header-map, or attachment fields: a function
// that only needs list semantics takes a Summary and the compiler refuses
// it access to message content.
type Summary struct {
	ID            MessageID `json:"id"`
	ThreadID      ThreadID  `json:"threadId"`
	From          Address   `json:"from"`
	To            []Address `json:"to"`
	Cc            []Address `json:"cc"`
	Subject       string    `json:"subject"`
	Date          time.Time `json:"date"`
	Snippet       string    `json:"snippet"`
	LabelIDs      []string  `json:"labelIds"`
	IsUnread      bool      `json:"isUnread"`
	IsImportant   bool      `json:"isImportant"`
	HasAttachment bool      `json:"hasAttachment"`
	SizeEstimate  int64     `json:"sizeEstimate"`
}

func (s *Summary) Headers() []string {
	return []string{"ID", "From", "Subject", "Date", "Unread"}
}

func (s *Summary) Rows() [][]string {
	unread := ""
	if s.IsUnread {
		unread = "*"
	}
	return [][]string{{s.ID, s.From.Email(), s.Subject, s.Date.Format(time.RFC3339), unread}}
}

func (s *Summary) EmptyMessage() string {
	return "No message found"
}

// SummaryList wraps a page of Summary values for listIds/search results.
type SummaryList struct {
	Messages      []Summary `json:"messages"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

func (l *SummaryList) Headers() []string {
	return []string{"ID", "From", "Subject", "Date", "Unread"}
}

func (l *SummaryList) Rows() [][]string {
	rows := make([][]string, len(l.Messages))
	for i := range l.Messages {
		rows[i] = l.Messages[i].Rows()[0]
	}
	return rows
}

func (l *SummaryList) EmptyMessage() string {
	return "No messages found"
}

// Full is the expanded projection: everything in Summary plus body text,
// HTML body, the full multi-valued header map, and filtered attachment
// references. Full and Summary are distinct types on purpose:
// nothing that accepts a Summary can reach into Full's fields, and nothing
// that builds a Full can skip populating the Summary-shaped fields.
type Full struct {
	ID            MessageID       `json:"id"`
	ThreadID      ThreadID        `json:"threadId"`
	From          Address         `json:"from"`
	To            []Address       `json:"to"`
	Cc            []Address       `json:"cc"`
	Subject       string          `json:"subject"`
	Date          time.Time       `json:"date"`
	Snippet       string          `json:"snippet"`
	LabelIDs      []string        `json:"labelIds"`
	IsUnread      bool            `json:"isUnread"`
	IsImportant   bool            `json:"isImportant"`
	HasAttachment bool            `json:"hasAttachment"`
	SizeEstimate  int64           `json:"sizeEstimate"`
	BodyText      string          `json:"bodyText"`
	BodyHTML      string          `json:"bodyHtml"`
	Headers       *OrderedHeaders `json:"headers"`
	Attachments   []AttachmentRef `json:"attachments"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// ToSummary projects Full down to the Summary that exists for every
// Full value.
func (f *Full) ToSummary() Summary {
	return Summary{
		ID:            f.ID,
		ThreadID:      f.ThreadID,
		From:          f.From,
		To:            f.To,
		Cc:            f.Cc,
		Subject:       f.Subject,
		Date:          f.Date,
		Snippet:       f.Snippet,
		LabelIDs:      f.LabelIDs,
		IsUnread:      f.IsUnread,
		IsImportant:   f.IsImportant,
		HasAttachment: f.HasAttachment,
		SizeEstimate:  f.SizeEstimate,
	}
}

// AsTableRenderer satisfies TableRenderable: Full's natural table shape
// (id/from/subject/date/attachment-count) differs from Summary's, so it
// renders through a small adapter rather than implementing TableRenderer
// directly on Full itself.
func (f *Full) AsTableRenderer() TableRenderer {
	return fullTableRenderer{f}
}

type fullTableRenderer struct{ f *Full }

func (r fullTableRenderer) Headers() []string {
	return []string{"ID", "From", "Subject", "Date", "Attachments"}
}

func (r fullTableRenderer) Rows() [][]string {
	return [][]string{{
		r.f.ID,
		r.f.From.Email(),
		r.f.Subject,
		r.f.Date.Format(time.RFC3339),
		strconv.Itoa(len(r.f.Attachments)),
	}}
}

func (r fullTableRenderer) EmptyMessage() string {
	return "No message found"
}

// OrderedHeaders is a multi-valued, insertion-order-preserving, case-
// insensitive header map.
type OrderedHeaders struct {
	order  []string
	values map[string][]string
}

// NewOrderedHeaders returns an empty header map.
func NewOrderedHeaders() *OrderedHeaders {
	return &OrderedHeaders{values: map[string][]string{}}
}

// Add appends a value under name, recording name in insertion order the
// first time it is seen.
func (h *OrderedHeaders) Add(name, value string) {
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = append(h.values[key], value)
}

// Get returns the values for name (case-insensitive), or nil.
func (h *OrderedHeaders) Get(name string) []string {
	return h.values[strings.ToLower(name)]
}

// Names returns header names in insertion order.
func (h *OrderedHeaders) Names() []string {
	return append([]string(nil), h.order...)
}

// headerPair is the ordered-array-of-pairs JSON shape for OrderedHeaders:
// a bare map would lose insertion order over the wire.
type headerPair struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// MarshalJSON renders the header map as an ordered array of {name, values}
// pairs so JSON consumers see insertion order rather than Go's randomized
// map iteration.
func (h *OrderedHeaders) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}
	pairs := make([]headerPair, 0, len(h.order))
	for _, name := range h.order {
		pairs = append(pairs, headerPair{Name: name, Values: h.values[name]})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON parses the {name, values} pair array back into the ordered
// map, restoring insertion order from the array order.
func (h *OrderedHeaders) UnmarshalJSON(data []byte) error {
	var pairs []headerPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	h.values = make(map[string][]string, len(pairs))
	h.order = make([]string, 0, len(pairs))
	for _, p := range pairs {
		h.order = append(h.order, p.Name)
		h.values[p.Name] = p.Values
	}
	return nil
}
