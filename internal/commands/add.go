package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/tasks"
	"todo/internal/validate"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todo add [--description <text>] [--priority low|medium|high] <title...>"
}
func (c *AddCmd) Route() string { return "/tasks" }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *AddCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	in := service.CreateTaskInput{
		Title:       strings.TrimSpace(strings.Join(args, " ")),
		Description: strings.TrimSpace(c.description),
		Priority:    service.Priority(strings.ToLower(strings.TrimSpace(c.priority))),
	}
	// Rejected before any backend call
	if err := validate.CreateTask(&in); err != nil {
		return report(rt, errOut, err)
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	task, err := rt.Tasks.Create(ctx, in)
	if err != nil {
		return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgSaveFailed, err))
	}

	if !rt.Config.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}
