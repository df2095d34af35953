package cli

import (
	"fmt"

	"github.com/dl-alexandre/mail/internal/logging"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/pkg/version"
)

// ============================================================
// KONG FOUNDATION - new CLI architecture
// ============================================================

// Globals holds all persistent flags inherited by every command.
// AfterApply runs before any command Run method.
type Globals struct {
	Profile string         `help:"Authentication profile to use" default:"default" name:"profile"`
	Output  string         `help:"Output format (rich, json)" default:"rich" name:"output-format"`
	Quiet   bool           `help:"Suppress non-essential output" short:"q" name:"quiet"`
	Verbose bool           `help:"Enable verbose logging" short:"v" name:"verbose"`
	Debug   bool           `help:"Enable debug output" name:"debug"`
	Strict  bool           `help:"Convert warnings to errors" name:"strict"`
	Config  string         `help:"Path to configuration file" name:"config"`
	LogFile string         `help:"Path to log file" name:"log-file"`
	DryRun  bool           `help:"Show what would be done without making changes" name:"dry-run"`
	Force   bool           `help:"Force operation without confirmation" short:"f" name:"force"`
	Yes     bool           `help:"Answer yes to all prompts" short:"y" name:"yes"`
	JSON    bool           `help:"Output in JSON format (alias for --output json)" name:"json"`
	Logger  logging.Logger `kong:"-"`
}

// AfterApply replaces cobra PersistentPreRunE for kong commands.
func (g *Globals) AfterApply() error {
	if g.JSON {
		g.Output = "json"
	}

	if g.Output != string(types.OutputFormatJSON) && g.Output != string(types.OutputFormatRich) {
		return fmt.Errorf("invalid output format: %s (must be rich or json)", g.Output)
	}

	logConfig := logging.LogConfig{
		Level:           logging.INFO,
		OutputFile:      g.LogFile,
		EnableConsole:   !g.Quiet,
		EnableDebug:     g.Debug,
		RedactSensitive: true,
		EnableColor:     true,
		EnableTimestamp: true,
	}
	if g.Verbose {
		logConfig.Level = logging.DEBUG
	}
	if g.Output == string(types.OutputFormatJSON) && !g.Verbose && !g.Debug {
		logConfig.EnableConsole = false
	}

	var err error
	g.Logger, err = logging.NewLogger(logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	globalFlags = g.ToGlobalFlags()
	logger = g.Logger

	return nil
}

// ToGlobalFlags converts kong globals to legacy manager-compatible flags.
func (g *Globals) ToGlobalFlags() types.GlobalFlags {
	outputFormat := types.OutputFormatJSON
	if g.Output == string(types.OutputFormatRich) {
		outputFormat = types.OutputFormatRich
	}

	return types.GlobalFlags{
		Profile:      g.Profile,
		OutputFormat: outputFormat,
		Quiet:        g.Quiet,
		Verbose:      g.Verbose,
		Debug:        g.Debug,
		Strict:       g.Strict,
		Config:       g.Config,
		LogFile:      g.LogFile,
		DryRun:       g.DryRun,
		Force:        g.Force,
		Yes:          g.Yes,
		JSON:         g.JSON,
	}
}

// CLI is the kong root command tree.
type CLI struct {
	Globals

	Version  VersionCmd  `cmd:"" help:"Print the version number"`
	Verify   VerifyCmd   `cmd:"" help:"Check that auth, config, and storage directories are usable"`
	Status   StatusCmd   `cmd:"" help:"Show authentication and mailbox status"`
	About    AboutCmd    `cmd:"" help:"Display account information and API capabilities"`
	Auth     AuthCmd     `cmd:"" help:"Authentication commands"`
	List     ListCmd     `cmd:"" help:"List recent messages"`
	Read     ReadCmd     `cmd:"" help:"Read a single message"`
	Thread   ThreadCmd   `cmd:"" help:"Read a full thread"`
	Search   SearchCmd   `cmd:"" help:"Search messages"`
	Send     SendCmd     `cmd:"" help:"Compose and send a message"`
	Reply    ReplyCmd    `cmd:"" help:"Reply to a message"`
	Groups   GroupsCmd   `cmd:"" help:"Manage local recipient alias groups"`
	Styles   StylesCmd   `cmd:"" help:"Manage and lint reply styles"`
	Workflow WorkflowCmd `cmd:"" name:"workflows" help:"Run and resume batch inbox workflows"`
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Println(version.Version)
	return nil
}

// globalFlags and logger are set by Globals.AfterApply() during kong initialization
var (
	globalFlags types.GlobalFlags
	logger      logging.Logger
)

// GetGlobalFlags returns the current global flags.
func GetGlobalFlags() types.GlobalFlags {
	return globalFlags
}

// GetLogger returns the current logger.
func GetLogger() logging.Logger {
	return logger
}

