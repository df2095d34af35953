package safety

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// StdinIsTerminal reports whether stdin is attached to an interactive
// terminal. Commands use this to decide whether prompting for
// confirmation is possible at all, rather than trusting a caller-supplied
// Interactive flag that may be wrong under e.g. a piped script.
func StdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// ResolveOptions builds SafetyOptions from CLI flags, downgrading
// Interactive to false whenever stdin isn't a real terminal so commands
// don't hang waiting for input that will never arrive.
func ResolveOptions(dryRun, force, yes, quiet bool) SafetyOptions {
	return SafetyOptions{
		DryRun:      dryRun,
		Force:       force,
		Yes:         yes,
		Quiet:       quiet,
		Interactive: StdinIsTerminal(),
	}
}

// Confirm prompts the user with a yes/no question and returns whether the
// operation may proceed.
//
// Force, Yes and DryRun auto-confirm without prompting. A non-interactive
// stdin without an auto-confirm flag declines: piped input is never read
// as an implicit yes. Only an exact "y" or "yes" (case-insensitive,
// trimmed) proceeds; anything else, including empty input and EOF,
// declines without error.
func Confirm(message string, opts SafetyOptions) (bool, error) {
	if opts.AutoConfirm() {
		if !opts.Quiet && !opts.DryRun {
			fmt.Printf("%s [auto-confirmed]\n", message)
		}
		return true, nil
	}

	if !opts.Interactive {
		return false, nil
	}

	fmt.Printf("%s [y/N]: ", message)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		// EOF mid-prompt is a decline, not a failure.
		return false, nil
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
