package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/tasks"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "todo rm <id>" }
func (c *RmCmd) Route() string     { return "/tasks" }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	id, code := taskIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	if err := rt.Tasks.Delete(ctx, id); err != nil {
		return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgDeleteFailed, err))
	}
	return exitcode.Success
}
