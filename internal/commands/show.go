package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	format string
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show a task" }
func (c *ShowCmd) Usage() string     { return "todo show [--format text|json|yaml] <id>" }
func (c *ShowCmd) Route() string     { return "/tasks" }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", string(output.Text), "")
}

func (c *ShowCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	id, code := taskIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	user, code := requireUser(ctx, rt, errOut)
	if code != exitcode.Success {
		return code
	}

	task, err := rt.Service.GetTask(ctx, user.ID, id)
	if service.IsNotFound(err) {
		fmt.Fprintf(errOut, "error: task %d not found\n", id)
		return exitcode.UserError
	}
	if err != nil {
		return report(rt, errOut, err)
	}

	if format == output.Text {
		output.FormatTaskDetail(out, task)
		return exitcode.Success
	}
	if err := output.Encode(out, format, task); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
