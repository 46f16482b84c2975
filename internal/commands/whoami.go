package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct {
	format string
}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "todo whoami [--format text|json|yaml]" }
func (c *WhoamiCmd) Route() string     { return "/profile" }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", string(output.Text), "")
}

func (c *WhoamiCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	user, code := requireUser(ctx, rt, errOut)
	if code != exitcode.Success {
		return code
	}

	if format == output.Text {
		output.FormatUser(out, user)
		return exitcode.Success
	}
	if err := output.Encode(out, format, user); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
