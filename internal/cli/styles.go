package cli

import (
	"errors"

	"github.com/dl-alexandre/mail/internal/styles"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
)

// StylesCmd manages the named Markdown reply styles the composer resolves
// against: a fixed frontmatter + six-section document per style,
// linted before it is ever handed to the composer.
type StylesCmd struct {
	List         StylesListCmd         `cmd:"" help:"List style names"`
	Show         StylesShowCmd         `cmd:"" help:"Show a style's raw content"`
	Create       StylesCreateCmd       `cmd:"" help:"Create a style from the canonical template"`
	Edit         StylesEditCmd         `cmd:"" help:"Replace a style's content"`
	Delete       StylesDeleteCmd       `cmd:"" help:"Delete a style"`
	Validate     StylesValidateCmd     `cmd:"" help:"Lint a single style"`
	ValidateAll  StylesValidateAllCmd  `cmd:"" name:"validate-all" help:"Lint every style"`
}

type StylesListCmd struct{}

type StylesShowCmd struct {
	Name string `arg:"" name:"name" help:"Style name"`
}

type StylesCreateCmd struct {
	Name           string `arg:"" name:"name" help:"Style name"`
	SkipValidation bool   `help:"Write the template even if it fails lint" name:"skip-validation"`
}

type StylesEditCmd struct {
	Name           string `arg:"" name:"name" help:"Style name"`
	Content        string `help:"New style content" name:"content" required:""`
	SkipValidation bool   `help:"Write the content even if it fails lint" name:"skip-validation"`
}

type StylesDeleteCmd struct {
	Name string `arg:"" name:"name" help:"Style name"`
}

type StylesValidateCmd struct {
	Name string `arg:"" name:"name" help:"Style name"`
	Fix  bool   `help:"Apply narrowly-scoped auto-fixes for whitespace rules" name:"fix"`
}

type StylesValidateAllCmd struct {
	Fix bool `help:"Apply narrowly-scoped auto-fixes for whitespace rules" name:"fix"`
}

func openStyleStore() *styles.Store {
	return styles.NewStore(getConfigDir())
}

func styleErrorCode(err error) string {
	var unknown *styles.ErrUnknownStyle
	if errors.As(err, &unknown) {
		return utils.ErrCodeMessageNotFound
	}
	var invalidName *styles.ErrInvalidStyleName
	if errors.As(err, &invalidName) {
		return utils.ErrCodeInvalidArgument
	}
	return utils.ErrCodeStyleViolation
}

func (cmd *StylesListCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	names, err := openStyleStore().List()
	if err != nil {
		return out.WriteError("styles.list", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}
	return out.WriteSuccess("styles.list", &types.StyleList{Names: names})
}

func (cmd *StylesShowCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	content, err := openStyleStore().Show(cmd.Name)
	if err != nil {
		return out.WriteError("styles.show", utils.NewCLIError(styleErrorCode(err), err.Error()).Build())
	}
	return out.WriteSuccess("styles.show", map[string]string{"name": cmd.Name, "content": content})
}

func (cmd *StylesCreateCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	report, err := openStyleStore().CreateTemplate(cmd.Name, cmd.SkipValidation)
	if err != nil {
		return out.WriteError("styles.create", utils.NewCLIError(styleErrorCode(err), err.Error()).Build())
	}

	out.Log("Created style %q", cmd.Name)
	return out.WriteSuccess("styles.create", report)
}

func (cmd *StylesEditCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	report, err := openStyleStore().EditContent(cmd.Name, cmd.Content, cmd.SkipValidation)
	if err != nil {
		return out.WriteError("styles.edit", utils.NewCLIError(styleErrorCode(err), err.Error()).Build())
	}

	out.Log("Updated style %q", cmd.Name)
	return out.WriteSuccess("styles.edit", report)
}

func (cmd *StylesDeleteCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	if err := openStyleStore().Delete(cmd.Name); err != nil {
		return out.WriteError("styles.delete", utils.NewCLIError(styleErrorCode(err), err.Error()).Build())
	}

	out.Log("Deleted style %q (backup written)", cmd.Name)
	return out.WriteSuccess("styles.delete", map[string]string{"name": cmd.Name, "status": "deleted"})
}

func (cmd *StylesValidateCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	report, err := openStyleStore().Validate(cmd.Name, cmd.Fix)
	if err != nil {
		return out.WriteError("styles.validate", utils.NewCLIError(styleErrorCode(err), err.Error()).Build())
	}
	if err := out.WriteSuccess("styles.validate", report); err != nil {
		return err
	}
	if !report.OK {
		return utils.NewExitError(utils.ExitValidationFailed, "style failed validation")
	}
	return nil
}

func (cmd *StylesValidateAllCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	store := openStyleStore()
	names, err := store.List()
	if err != nil {
		return out.WriteError("styles.validate-all", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	results := make(map[string]*types.ValidationReport, len(names))
	allOK := true
	for _, name := range names {
		report, err := store.Validate(name, cmd.Fix)
		if err != nil {
			out.Verbose("failed to validate %q: %v", name, err)
			continue
		}
		results[name] = report
		if !report.OK {
			allOK = false
		}
	}

	if err := out.WriteSuccess("styles.validate-all", map[string]interface{}{"ok": allOK, "results": results}); err != nil {
		return err
	}
	if !allOK {
		return utils.NewExitError(utils.ExitValidationFailed, "one or more styles failed validation")
	}
	return nil
}
