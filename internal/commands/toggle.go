package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/tasks"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string  { return "Flip a task between pending and completed" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <id>" }
func (c *ToggleCmd) Route() string     { return "/tasks" }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	id, code := taskIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	task, err := rt.Tasks.Toggle(ctx, id)
	if err != nil {
		return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgToggleFailed, err))
	}

	if !rt.Config.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}
