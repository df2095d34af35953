package utils

// OAuth scopes
const (
	ScopeGmailReadonly      = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailSend          = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailCompose       = "https://www.googleapis.com/auth/gmail.compose"
	ScopeGmailModify        = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailLabels        = "https://www.googleapis.com/auth/gmail.labels"
	ScopeGmailSettingsBasic = "https://www.googleapis.com/auth/gmail.settings.basic"
	ScopeGmailFull          = "https://mail.google.com/" // restricted, full mailbox access
)

var (
	// ScopesGmail is the default scope preset: compose, send, modify
	// labels, read basic settings, but not the restricted full-mailbox
	// scope.
	ScopesGmail = []string{
		ScopeGmailSend,
		ScopeGmailCompose,
		ScopeGmailModify,
		ScopeGmailLabels,
		ScopeGmailSettingsBasic,
	}
	ScopesGmailReadonly = []string{
		ScopeGmailReadonly,
	}
	ScopesGmailFull = []string{
		ScopeGmailFull,
	}
)

// Retry configuration. DefaultMaxRetries counts retries after the first
// attempt, so the total budget is five attempts per request.
const (
	DefaultMaxRetries   = 4
	DefaultRetryDelayMs = 1000
	MaxRetryDelayMs     = 32000
)

// Cache TTL
const DefaultCacheTTLSeconds = 300

// Schema version
const SchemaVersion = "1.0"
