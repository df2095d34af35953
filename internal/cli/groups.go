package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dl-alexandre/mail/internal/groups"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
)

// GroupsCmd manages the local recipient alias groups used by Send/Reply
// to expand a single token ("eng-team") into a flat address list.
type GroupsCmd struct {
	List     GroupsListCmd     `cmd:"" help:"List group names"`
	Show     GroupsShowCmd     `cmd:"" help:"Show a group's members"`
	Create   GroupsCreateCmd   `cmd:"" help:"Create a group"`
	Add      GroupsAddCmd      `cmd:"" help:"Add a member to a group"`
	Remove   GroupsRemoveCmd   `cmd:"" help:"Remove a member from a group"`
	Delete   GroupsDeleteCmd   `cmd:"" help:"Delete a group"`
	Validate GroupsValidateCmd `cmd:"" help:"Check every member address for syntax errors"`
}

type GroupsListCmd struct{}

type GroupsShowCmd struct {
	Name string `arg:"" name:"name" help:"Group name"`
}

type GroupsCreateCmd struct {
	Name    string `arg:"" name:"name" help:"Group name"`
	Members string `help:"Comma-separated member addresses" name:"members"`
}

type GroupsAddCmd struct {
	Name   string `arg:"" name:"name" help:"Group name"`
	Member string `arg:"" name:"member" help:"Address to add"`
}

type GroupsRemoveCmd struct {
	Name   string `arg:"" name:"name" help:"Group name"`
	Member string `arg:"" name:"member" help:"Address to remove"`
}

type GroupsDeleteCmd struct {
	Name string `arg:"" name:"name" help:"Group name"`
}

type GroupsValidateCmd struct {
	Name string `arg:"" optional:"" name:"name" help:"Group name (every group when omitted)"`
}

func openGroupStore() *groups.Store {
	return groups.NewStore(getConfigDir())
}

func groupErrorCode(err error) string {
	var unknown *groups.ErrUnknownGroup
	if errors.As(err, &unknown) {
		return utils.ErrCodeGroupNotFound
	}
	return utils.ErrCodeInvalidArgument
}

func (cmd *GroupsListCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	names, err := openGroupStore().List()
	if err != nil {
		return out.WriteError("groups.list", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}
	return out.WriteSuccess("groups.list", map[string]interface{}{"groups": names})
}

func (cmd *GroupsShowCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	group, err := openGroupStore().Get(cmd.Name)
	if err != nil {
		return out.WriteError("groups.show", utils.NewCLIError(groupErrorCode(err), err.Error()).Build())
	}
	return out.WriteSuccess("groups.show", group)
}

func (cmd *GroupsCreateCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	members, err := parseAddressList(cmd.Members)
	if err != nil {
		return out.WriteError("groups.create", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	group, err := openGroupStore().Create(cmd.Name, members)
	if err != nil {
		return out.WriteError("groups.create", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	out.Log("Created group %q with %d member(s)", cmd.Name, len(group.Members))
	return out.WriteSuccess("groups.create", group)
}

func (cmd *GroupsAddCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	addr, err := types.ParseAddress(cmd.Member)
	if err != nil {
		return out.WriteError("groups.add", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	group, err := openGroupStore().AddMember(cmd.Name, addr)
	if err != nil {
		return out.WriteError("groups.add", utils.NewCLIError(groupErrorCode(err), err.Error()).Build())
	}

	out.Log("Added %s to group %q", cmd.Member, cmd.Name)
	return out.WriteSuccess("groups.add", group)
}

func (cmd *GroupsRemoveCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	addr, err := types.ParseAddress(cmd.Member)
	if err != nil {
		return out.WriteError("groups.remove", utils.NewCLIError(utils.ErrCodeInvalidArgument, err.Error()).Build())
	}

	group, err := openGroupStore().RemoveMember(cmd.Name, addr)
	if err != nil {
		return out.WriteError("groups.remove", utils.NewCLIError(groupErrorCode(err), err.Error()).Build())
	}

	out.Log("Removed %s from group %q", cmd.Member, cmd.Name)
	return out.WriteSuccess("groups.remove", group)
}

func (cmd *GroupsDeleteCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	if err := openGroupStore().Delete(cmd.Name); err != nil {
		return out.WriteError("groups.delete", utils.NewCLIError(groupErrorCode(err), err.Error()).Build())
	}

	out.Log("Deleted group %q", cmd.Name)
	return out.WriteSuccess("groups.delete", map[string]string{"name": cmd.Name, "status": "deleted"})
}

func (cmd *GroupsValidateCmd) Run(globals *Globals) error {
	flags := globals.ToGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	verdicts, err := openGroupStore().Validate(cmd.Name)
	if err != nil {
		return out.WriteError("groups.validate", utils.NewCLIError(groupErrorCode(err), err.Error()).Build())
	}

	ok := true
	for _, v := range verdicts {
		if !v.OK {
			ok = false
			break
		}
	}

	if err := out.WriteSuccess("groups.validate", map[string]interface{}{
		"name":     cmd.Name,
		"ok":       ok,
		"verdicts": verdicts,
	}); err != nil {
		return err
	}
	if !ok {
		return utils.NewExitError(utils.ExitValidationFailed, "one or more groups failed validation")
	}
	return nil
}

// parseAddressList splits a comma-separated address list, trimming blanks.
func parseAddressList(raw string) ([]types.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []types.Address
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := types.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", part, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// splitCSV splits a comma-separated token list, trimming blanks and
// dropping empty entries, for recipient flags that mix addresses and
// #group tokens and so cannot go through parseAddressList.
func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
