package utils

import "testing"

func TestScopesGmailPreset(t *testing.T) {
	want := map[string]bool{
		ScopeGmailSend:          true,
		ScopeGmailCompose:       true,
		ScopeGmailModify:        true,
		ScopeGmailLabels:        true,
		ScopeGmailSettingsBasic: true,
	}
	if len(ScopesGmail) != len(want) {
		t.Fatalf("ScopesGmail = %v, want %d scopes", ScopesGmail, len(want))
	}
	for _, s := range ScopesGmail {
		if !want[s] {
			t.Errorf("unexpected scope in ScopesGmail: %s", s)
		}
	}
}

func TestScopesGmailReadonly(t *testing.T) {
	if len(ScopesGmailReadonly) != 1 || ScopesGmailReadonly[0] != ScopeGmailReadonly {
		t.Errorf("ScopesGmailReadonly = %v, want [%s]", ScopesGmailReadonly, ScopeGmailReadonly)
	}
}

func TestRetryConfigDefaults(t *testing.T) {
	if DefaultMaxRetries != 4 {
		t.Errorf("DefaultMaxRetries = %d, want 4 (five attempts total)", DefaultMaxRetries)
	}
	if DefaultRetryDelayMs != 1000 {
		t.Errorf("DefaultRetryDelayMs = %d, want 1000", DefaultRetryDelayMs)
	}
	if MaxRetryDelayMs != 32000 {
		t.Errorf("MaxRetryDelayMs = %d, want 32000", MaxRetryDelayMs)
	}
}
