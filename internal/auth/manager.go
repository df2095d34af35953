// Package auth implements the opaque GmailSession capability: OAuth2 PKCE
// loopback login, token refresh, and credential storage. Nothing outside
// this package should construct an *oauth2.Config or touch a token directly.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dl-alexandre/mail/internal/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const metadataSuffix = ".json"
const keyringService = "mail-cli"

// Manager owns OAuth configuration and credential persistence for a single
// profile at a time. One Manager is constructed per CLI invocation.
type Manager struct {
	configDir   string
	oauthConfig *oauth2.Config
	useKeyring  bool
}

// NewManager creates a Manager rooted at configDir (typically
// os.UserConfigDir()/mail). useKeyring selects the OS keyring as the
// credential backend; when false, or when the keyring is unavailable at
// runtime, credentials fall back to the on-disk store.
func NewManager(configDir string, oauthConfig *oauth2.Config, useKeyring bool) *Manager {
	return &Manager{configDir: configDir, oauthConfig: oauthConfig, useKeyring: useKeyring}
}

// GetHTTPClient returns an HTTP client that transparently refreshes creds
// via the standard oauth2 TokenSource, persisting the refreshed token back
// to storage whenever it rotates.
func (m *Manager) GetHTTPClient(ctx context.Context, creds *types.Credentials) *http.Client {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiryDate,
	}
	src := m.oauthConfig.TokenSource(ctx, token)
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src))
}

// SaveCredentials persists creds for profile using the configured backend,
// always writing a non-secret metadata sidecar describing what is stored.
func (m *Manager) SaveCredentials(profile string, creds *types.Credentials) error {
	meta := &AuthMetadata{
		Profile:        profile,
		ClientIDHash:   hashClientID(m.oauthConfig.ClientID),
		ClientIDLast4:  last4(m.oauthConfig.ClientID),
		Scopes:         creds.Scopes,
		ExpiryDate:     creds.ExpiryDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
		RefreshToken:   creds.RefreshToken != "",
		CredentialType: string(creds.Type),
		UpdatedAt:      metadataTimestamp(),
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if m.useKeyring {
		if err := saveToKeyring(keyringService, profile, string(payload)); err == nil {
			meta.StorageBackend = "keyring"
			return writeMetadata(m.configDir, profile, meta)
		}
		// keyring unavailable (headless/no D-Bus session) — fall through to file store.
	}

	meta.StorageBackend = "file"
	if err := m.writeCredentialsFile(profile, payload); err != nil {
		return err
	}
	return writeMetadata(m.configDir, profile, meta)
}

// LoadCredentials retrieves stored credentials for profile, preferring the
// keyring when enabled and falling back to the file store.
func (m *Manager) LoadCredentials(profile string) (*types.Credentials, error) {
	if m.useKeyring {
		if raw, err := loadFromKeyring(keyringService, profile); err == nil {
			var creds types.Credentials
			if jerr := json.Unmarshal([]byte(raw), &creds); jerr == nil {
				return &creds, nil
			}
		}
	}

	data, err := os.ReadFile(m.credentialsFilePath(profile))
	if err != nil {
		return nil, fmt.Errorf("no stored credentials for profile %q: %w", profile, err)
	}
	var creds types.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse stored credentials: %w", err)
	}
	return &creds, nil
}

// DeleteCredentials removes stored credentials and metadata for profile.
func (m *Manager) DeleteCredentials(profile string) error {
	if m.useKeyring {
		_ = deleteFromKeyring(keyringService, profile)
	}
	_ = os.Remove(m.credentialsFilePath(profile))
	return os.Remove(metadataFilePath(m.configDir, profile))
}

func (m *Manager) credentialsFilePath(profile string) string {
	return filepath.Join(m.configDir, "credentials", profile+".cred.json")
}

func (m *Manager) writeCredentialsFile(profile string, payload []byte) error {
	dir := filepath.Join(m.configDir, "credentials")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, profile+".cred-*.tmp")
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
	return os.Rename(tmpPath, m.credentialsFilePath(profile))
}

func hashClientID(clientID string) string {
	sum := sha256.Sum256([]byte(clientID))
	return hex.EncodeToString(sum[:])
}

func last4(s string) string {
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}

// NewOAuthConfig builds the oauth2.Config for the Gmail scopes requested.
// clientSecret may be empty for public/installed clients using PKCE.
func NewOAuthConfig(clientID, clientSecret string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}
