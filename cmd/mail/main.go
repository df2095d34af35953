package main

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dl-alexandre/mail/internal/cli"
	"github.com/dl-alexandre/mail/internal/utils"
	"github.com/dl-alexandre/mail/pkg/version"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(
		&c,
		kong.Name("mail"),
		kong.Description(`mail is a command-line Gmail client and automation toolkit.
It supports reading, searching, composing and sending messages, named
recipient groups, reply styles, and a resumable batch workflow engine for
driving an inbox from scripts or agents one action at a time.

All commands support JSON output for automation and scripting.`),
		kong.Vars{"version": version.Version},
		kong.UsageOnError(),
	)

	err := ctx.Run(&c.Globals)
	var exitErr *utils.ExitError
	if errors.As(err, &exitErr) {
		// The structured error envelope is already on stdout; only the
		// exit code is left to deliver.
		os.Exit(exitErr.Code)
	}
	ctx.FatalIfErrorf(err)
}
