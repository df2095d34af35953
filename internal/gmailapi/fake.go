package gmailapi

import (
	"context"
	"fmt"

	"github.com/dl-alexandre/mail/internal/types"
)

// Fake is an in-memory stand-in for Adapter used by workflow and compose
// tests so they never touch the network. It implements the same method
// set as Adapter but is not bound to it by an interface — callers that
// need to swap implementations define their own narrow port (see
// internal/workflow.MailSource, internal/compose.Sender).
type Fake struct {
	Summaries map[types.MessageID]*types.Summary
	Fulls     map[types.MessageID]*types.Full
	IDOrder   []types.MessageID

	Actions []FakeAction
	Sent    [][]byte

	// ApplyActionErr, when set, is returned by every ApplyAction call
	// instead of recording it, letting tests exercise the engine's
	// non-advancing failure path without a real Gmail 200-but-silently-
	// ignored response.
	ApplyActionErr error

	// ProfileEmail is returned by GetProfile.
	ProfileEmail string
}

// FakeAction records one ApplyAction call for assertions.
type FakeAction struct {
	ID     types.MessageID
	Action Action
}

// NewFake returns an empty Fake ready to be populated by tests.
func NewFake() *Fake {
	return &Fake{
		Summaries: map[types.MessageID]*types.Summary{},
		Fulls:     map[types.MessageID]*types.Full{},
	}
}

// Seed registers a message with both its Summary and Full projections,
// preserving insertion order for ListIDs.
func (f *Fake) Seed(full *types.Full) {
	f.IDOrder = append(f.IDOrder, full.ID)
	f.Fulls[full.ID] = full
	s := full.ToSummary()
	f.Summaries[full.ID] = &s
}

func (f *Fake) ListIDs(ctx context.Context, query string, pageSize int64, pageToken string) ([]types.MessageID, string, error) {
	if len(query) > MaxQueryLength {
		return nil, "", &ErrQueryTooLarge{Length: len(query)}
	}
	return append([]types.MessageID{}, f.IDOrder...), "", nil
}

func (f *Fake) GetSummary(ctx context.Context, id types.MessageID) (*types.Summary, error) {
	s, ok := f.Summaries[id]
	if !ok {
		return nil, fmt.Errorf("fake: unknown message %q", id)
	}
	return s, nil
}

func (f *Fake) GetFull(ctx context.Context, id types.MessageID) (*types.Full, error) {
	full, ok := f.Fulls[id]
	if !ok {
		return nil, fmt.Errorf("fake: unknown message %q", id)
	}
	return full, nil
}

func (f *Fake) BatchGetSummaries(ctx context.Context, ids []types.MessageID) ([]*types.Summary, map[types.MessageID]error) {
	out := make([]*types.Summary, len(ids))
	errs := map[types.MessageID]error{}
	for i, id := range ids {
		s, err := f.GetSummary(ctx, id)
		if err != nil {
			errs[id] = err
			continue
		}
		out[i] = s
	}
	return out, errs
}

func (f *Fake) ApplyAction(ctx context.Context, id types.MessageID, action Action) error {
	if _, ok := f.Summaries[id]; !ok {
		return fmt.Errorf("fake: unknown message %q", id)
	}
	if f.ApplyActionErr != nil {
		return f.ApplyActionErr
	}
	f.Actions = append(f.Actions, FakeAction{ID: id, Action: action})
	return nil
}

func (f *Fake) SendMIME(ctx context.Context, raw []byte, threadID string) (types.MessageID, error) {
	f.Sent = append(f.Sent, raw)
	return fmt.Sprintf("sent-%d", len(f.Sent)), nil
}

func (f *Fake) LabelCounts(ctx context.Context) (map[string]types.LabelCount, error) {
	return map[string]types.LabelCount{}, nil
}

func (f *Fake) GetThreadFull(ctx context.Context, threadID types.ThreadID) ([]*types.Full, error) {
	var out []*types.Full
	for _, id := range f.IDOrder {
		if f.Fulls[id].ThreadID == threadID {
			out = append(out, f.Fulls[id])
		}
	}
	return out, nil
}

func (f *Fake) GetProfile(ctx context.Context) (string, error) {
	return f.ProfileEmail, nil
}
