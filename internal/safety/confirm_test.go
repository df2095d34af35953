package safety

import (
	"testing"
)

func TestConfirmWithForceFlag(t *testing.T) {
	opts := SafetyOptions{Force: true, Quiet: true}

	confirmed, err := Confirm("Test message", opts)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if !confirmed {
		t.Error("Confirm should return true with Force flag")
	}
}

func TestConfirmWithYesFlag(t *testing.T) {
	opts := SafetyOptions{Yes: true, Quiet: true}

	confirmed, err := Confirm("Test message", opts)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if !confirmed {
		t.Error("Confirm should return true with Yes flag")
	}
}

func TestConfirmWithDryRun(t *testing.T) {
	opts := SafetyOptions{DryRun: true, Quiet: true}

	confirmed, err := Confirm("Test message", opts)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if !confirmed {
		t.Error("Confirm should return true in DryRun mode")
	}
}

func TestConfirmNonInteractiveDeclinesWithoutError(t *testing.T) {
	opts := SafetyOptions{Interactive: false}

	confirmed, err := Confirm("Test message", opts)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if confirmed {
		t.Error("Confirm must decline when stdin is not a terminal and no auto-confirm flag is set")
	}
}

// Note: Testing interactive prompts that require stdin is difficult in unit tests.
// These tests cover the auto-confirm cases and the non-interactive decline path.
