// Package config resolves the single user-private configuration root this
// CLI reads and writes under, and loads the optional JSON config file that
// lives at its top. The config root is computed once at process start and
// threaded through constructors; nothing else in the tree consults the
// environment for paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the optional settings file at the root of
// the configuration directory.
const ConfigFileName = "config.json"

// Config holds the optional, persisted CLI settings. All fields are
// optional; an absent file yields a zero-value Config.
type Config struct {
	OAuthClientID     string `json:"oauthClientId,omitempty"`
	OAuthClientSecret string `json:"oauthClientSecret,omitempty"`
}

// GetConfigDir returns the configuration root: $CLAUDE_PLUGIN_ROOT/credentials
// when running embedded in a host that sets that variable,
// otherwise $MAIL_CONFIG_DIR if set, otherwise $HOME/.mail. The directory is
// created with owner-only permissions if it does not already exist.
func GetConfigDir() (string, error) {
	var dir string
	switch {
	case os.Getenv("CLAUDE_PLUGIN_ROOT") != "":
		dir = filepath.Join(os.Getenv("CLAUDE_PLUGIN_ROOT"), "credentials")
	case os.Getenv("MAIL_CONFIG_DIR") != "":
		dir = os.Getenv("MAIL_CONFIG_DIR")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".mail")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %q: %w", dir, err)
	}
	return dir, nil
}

// GetConfigPath returns the full path to the config.json file under the
// resolved configuration root.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads and parses config.json from the configuration root. A missing
// file is not an error; it yields a zero-value Config.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to config.json atomically (temp file + rename) with
// owner-only permissions, matching the credential store's write discipline.
func Save(cfg *Config) error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ConfigFileName+"-*.tmp")
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
	return os.Rename(tmpPath, filepath.Join(dir, ConfigFileName))
}
