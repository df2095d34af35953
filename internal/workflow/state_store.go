package workflow

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dl-alexandre/mail/internal/types"
	"github.com/google/uuid"
)

const stateDirName = "workflow-states"

// DefaultTTL is how long a session may sit idle before ErrExpired is
// returned on its next load. There is no background reaper;
// expiry is only ever discovered lazily, on the next continue/cleanup.
const DefaultTTL = 1 * time.Hour

// ErrUnknownToken is returned when a token has no state file.
type ErrUnknownToken struct{ Token string }

func (e *ErrUnknownToken) Error() string {
	return fmt.Sprintf("Workflow session '%s' not found or already completed.", e.Token)
}

// ErrExpired is returned on load when lastActivityAt + ttl has passed.
type ErrExpired struct {
	Token string
	Since time.Duration
}

func (e *ErrExpired) Error() string {
	return fmt.Sprintf("Workflow session '%s' expired %s ago. Start a new one with 'mail workflows start'.", e.Token, e.Since.Round(time.Second))
}

// StateStore persists one WorkflowState per token as an atomically
// written JSON file, matching the credential/group store discipline.
type StateStore struct {
	dir string
	ttl time.Duration
}

// NewStateStore returns a StateStore rooted at configDir/workflow-states
// with the default TTL.
func NewStateStore(configDir string) *StateStore {
	return &StateStore{dir: filepath.Join(configDir, stateDirName), ttl: DefaultTTL}
}

// WithTTL returns a copy of the store using ttl instead of DefaultTTL.
func (s *StateStore) WithTTL(ttl time.Duration) *StateStore {
	return &StateStore{dir: s.dir, ttl: ttl}
}

func (s *StateStore) pathFor(token string) string {
	return filepath.Join(s.dir, token+".json")
}

// NewToken mints a fresh, unguessable session token: 128 random bits
// rendered as 32 hex characters, so it is safe to use directly as a file
// name.
func NewToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Create writes a brand-new WorkflowState for token and returns it.
func (s *StateStore) Create(def types.WorkflowDefinition, ids []types.MessageID, now time.Time) (*types.WorkflowState, error) {
	state := &types.WorkflowState{
		Token:          NewToken(),
		WorkflowName:   def.Name,
		Query:          def.Query,
		AutoMarkRead:   def.AutoMarkRead,
		IDs:            ids,
		Cursor:         0,
		Total:          len(ids),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Load reads the state for token, enforcing TTL. A state past its TTL is
// reported as expired but left on disk exactly as written — only an
// explicit Cleanup pass removes it, so a crash-injection test
// that loads twice in a row sees ErrExpired both times.
func (s *StateStore) Load(token string, now time.Time) (*types.WorkflowState, error) {
	path := s.pathFor(token)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrUnknownToken{Token: token}
		}
		return nil, fmt.Errorf("failed to read workflow state: %w", err)
	}

	var state types.WorkflowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse workflow state: %w", err)
	}

	idle := now.Sub(state.LastActivityAt)
	if idle > s.ttl {
		return nil, &ErrExpired{Token: token, Since: idle}
	}

	return &state, nil
}

// Save persists state, bumping nothing itself — callers must update
// LastActivityAt before calling Save.
func (s *StateStore) Save(state *types.WorkflowState) error {
	return s.save(state)
}

func (s *StateStore) save(state *types.WorkflowState) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	path := s.pathFor(state.Token)
	tmp, err := os.CreateTemp(s.dir, state.Token+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Delete removes a token's state file, used by cleanup and by
// quit/completion.
func (s *StateStore) Delete(token string) error {
	if err := os.Remove(s.pathFor(token)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Cleanup scans every stored token and deletes the ones past TTL, plus
// any file that no longer parses as a WorkflowState (orphaned temp files
// from an interrupted save included), returning how many were removed.
// Unlike Load, this is the one place expiry is swept proactively, invoked
// explicitly via 'mail workflows cleanup' rather than a background
// reaper. Removal tolerates a concurrent sweep: a file that vanished
// between ReadDir and Remove is someone else's win, not an error.
func (s *StateStore) Cleanup(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var state types.WorkflowState
		if err := json.Unmarshal(data, &state); err != nil || state.Token == "" {
			if err := os.Remove(path); err == nil {
				removed++
			}
			continue
		}
		if now.Sub(state.LastActivityAt) > s.ttl {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
