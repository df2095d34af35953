package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dl-alexandre/mail/internal/auth"
	"github.com/dl-alexandre/mail/internal/config"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
)

// AuthCmd groups the capability's narrow surface: obtain, inspect and
// discard a GmailSession. There is no profile listing or scope-preset
// machinery here — every profile always carries the same Gmail scopes.
type AuthCmd struct {
	Login          AuthLoginCmd          `cmd:"" help:"Authenticate with Gmail"`
	Logout         AuthLogoutCmd         `cmd:"" help:"Remove stored credentials"`
	ServiceAccount AuthServiceAccountCmd `cmd:"service-account" help:"Authenticate with a service account"`
	Status         AuthStatusCmd         `cmd:"" help:"Show authentication status"`
}

type AuthLoginCmd struct {
	ReadOnly     bool    `help:"Request gmail.readonly instead of send/compose/modify" name:"read-only"`
	Full         bool    `help:"Request the restricted full-mailbox scope (mail.google.com)" name:"full"`
	NoBrowser    bool    `help:"Do not open a browser; use manual code entry" name:"no-browser"`
	ClientID     *string `help:"OAuth client ID" name:"client-id"`
	ClientSecret *string `help:"OAuth client secret" name:"client-secret"`
}

type AuthLogoutCmd struct{}

type AuthServiceAccountCmd struct {
	KeyFile         string `help:"Path to service account JSON key file" name:"key-file" required:""`
	ImpersonateUser string `help:"User email to impersonate" name:"impersonate-user"`
	ReadOnly        bool   `help:"Request gmail.readonly instead of send/compose/modify" name:"read-only"`
}

type AuthStatusCmd struct{}

func loginScopes(readOnly, full bool) []string {
	switch {
	case full:
		return utils.ScopesGmailFull
	case readOnly:
		return utils.ScopesGmailReadonly
	default:
		return utils.ScopesGmail
	}
}

func (cmd *AuthLoginCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	configDir := getConfigDir()
	resolvedID, resolvedSecret, source, cliErr := resolveOAuthClient(cmd.ClientID, cmd.ClientSecret, configDir)
	if cliErr != nil {
		return out.WriteError("auth.login", cliErr.Build())
	}
	if source == oauthClientSourceBundled {
		out.Log("Using default public OAuth client credentials.")
	}

	scopes := loginScopes(cmd.ReadOnly, cmd.Full)
	oauthCfg := auth.NewOAuthConfig(resolvedID, resolvedSecret, scopes)
	mgr := auth.NewManager(configDir, oauthCfg, true)

	ctx := context.Background()
	creds, err := mgr.Authenticate(ctx, flags.Profile, openBrowser, auth.OAuthAuthOptions{NoBrowser: cmd.NoBrowser})
	if err != nil {
		return out.WriteError("auth.login", buildAuthFlowError(err, source, resolvedSecret).Build())
	}

	out.Log("Successfully authenticated!")
	return out.WriteSuccess("auth.login", map[string]interface{}{
		"profile": flags.Profile,
		"scopes":  creds.Scopes,
		"expiry":  creds.ExpiryDate.Format(time.RFC3339),
	})
}

func (cmd *AuthLogoutCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	configDir := getConfigDir()
	mgr := auth.NewManager(configDir, nil, true)

	if err := mgr.DeleteCredentials(flags.Profile); err != nil {
		return out.WriteError("auth.logout", utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("No credentials found for profile '%s'", flags.Profile)).Build())
	}

	out.Log("Credentials removed for profile: %s", flags.Profile)
	return out.WriteSuccess("auth.logout", map[string]interface{}{
		"profile": flags.Profile,
		"status":  "logged_out",
	})
}

func (cmd *AuthStatusCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	configDir := getConfigDir()
	mgr := auth.NewManager(configDir, nil, true)

	creds, err := mgr.LoadCredentials(flags.Profile)
	if err != nil {
		return out.WriteSuccess("auth.status", map[string]interface{}{
			"profile":       flags.Profile,
			"authenticated": false,
		})
	}

	expired := time.Now().After(creds.ExpiryDate)
	authenticated := !expired || creds.Type != types.AuthTypeOAuth

	return out.WriteSuccess("auth.status", map[string]interface{}{
		"profile":        flags.Profile,
		"authenticated":  authenticated,
		"scopes":         creds.Scopes,
		"expiry":         creds.ExpiryDate.Format(time.RFC3339),
		"type":           creds.Type,
		"expired":        expired,
		"serviceAccount": creds.ServiceAccountEmail,
		"impersonated":   creds.ImpersonatedUser,
	})
}

func (cmd *AuthServiceAccountCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	scopes := loginScopes(cmd.ReadOnly, false)
	configDir := getConfigDir()
	mgr := auth.NewManager(configDir, nil, true)

	creds, err := mgr.LoadServiceAccount(context.Background(), cmd.KeyFile, scopes, cmd.ImpersonateUser)
	if err != nil {
		return out.WriteError("auth.service-account", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	if err := mgr.SaveCredentials(flags.Profile, creds); err != nil {
		return out.WriteError("auth.service-account", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	out.Log("Service account loaded")
	return out.WriteSuccess("auth.service-account", map[string]interface{}{
		"profile":        flags.Profile,
		"scopes":         creds.Scopes,
		"type":           creds.Type,
		"serviceAccount": creds.ServiceAccountEmail,
		"impersonated":   creds.ImpersonatedUser,
	})
}

func getConfigDir() string {
	dir, err := config.GetConfigDir()
	if err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mail")
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}

type oauthClientSource string

const (
	oauthClientSourceFlags   oauthClientSource = "flags"
	oauthClientSourceEnv     oauthClientSource = "env"
	oauthClientSourceConfig  oauthClientSource = "config"
	oauthClientSourceBundled oauthClientSource = "bundled"
)

// resolveOAuthClient picks a client ID/secret pair in priority order: flags,
// environment, config file, then the bundled public client.
func resolveOAuthClient(clientID *string, clientSecret *string, configDir string) (string, string, oauthClientSource, *utils.CLIErrorBuilder) {
	if clientID != nil {
		secret := ""
		if clientSecret != nil {
			secret = *clientSecret
		}
		if *clientID == "" {
			return "", "", "", buildOAuthClientError(configDir, "OAuth client ID flag was empty.")
		}
		return *clientID, secret, oauthClientSourceFlags, nil
	}

	envID := strings.TrimSpace(os.Getenv("MAIL_CLIENT_ID"))
	envSecret := strings.TrimSpace(os.Getenv("MAIL_CLIENT_SECRET"))
	if envID != "" {
		return envID, envSecret, oauthClientSourceEnv, nil
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return "", "", "", utils.NewCLIError(utils.ErrCodeInvalidArgument, fmt.Sprintf("Failed to load config: %v", cfgErr))
	}
	if cfg.OAuthClientID != "" {
		return cfg.OAuthClientID, cfg.OAuthClientSecret, oauthClientSourceConfig, nil
	}

	if bundledID, bundledSecret, ok := auth.GetBundledOAuthClient(); ok {
		return bundledID, bundledSecret, oauthClientSourceBundled, nil
	}

	return "", "", "", buildOAuthClientError(configDir,
		"OAuth client ID missing. Set MAIL_CLIENT_ID (and MAIL_CLIENT_SECRET if required) or configure oauthClientId in config.json.")
}

func buildOAuthClientError(configDir, message string) *utils.CLIErrorBuilder {
	configPath, err := config.GetConfigPath()
	if err != nil {
		configPath = filepath.Join(configDir, config.ConfigFileName)
	}
	fullMessage := fmt.Sprintf("%s\nConfig path: %s\nUse --no-browser for manual login when running headless.", message, configPath)
	return utils.NewCLIError(utils.ErrCodeAuthClientMissing, fullMessage).WithContext("configPath", configPath)
}

func buildAuthFlowError(err error, source oauthClientSource, resolvedClientSecret string) *utils.CLIErrorBuilder {
	message := err.Error()
	lower := strings.ToLower(message)

	if strings.Contains(lower, "client_secret is missing") || strings.Contains(lower, "invalid_client") {
		if strings.TrimSpace(resolvedClientSecret) == "" && source == oauthClientSourceBundled {
			message += "\nThis build is using a bundled public OAuth client without a secret. If Google requires one, configure MAIL_CLIENT_ID/MAIL_CLIENT_SECRET."
		}
	}

	builder := utils.NewCLIError(utils.ErrCodeAuthRequired, message)
	if source != "" {
		builder = builder.WithContext("oauthClientSource", string(source))
	}
	return builder
}
