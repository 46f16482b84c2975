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
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given, so
// an explicit empty value can be told apart from an absent flag.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optionalString
	description optionalString
	priority    optionalString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title, description or priority" }
func (c *EditCmd) Usage() string {
	return "todo edit [--title <title>] [--description <text>] [--priority low|medium|high] <id>"
}
func (c *EditCmd) Route() string { return "/tasks" }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title = optionalString{}
	c.description = optionalString{}
	c.priority = optionalString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	id, code := taskIDArg(args, errOut)
	if code != exitcode.Success {
		return code
	}

	in := c.input()
	if err := validate.UpdateTask(in); err != nil {
		return report(rt, errOut, err)
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	task, err := rt.Tasks.Update(ctx, id, in)
	if err != nil {
		return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgSaveFailed, err))
	}

	if !rt.Config.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}

func (c *EditCmd) input() service.UpdateTaskInput {
	var in service.UpdateTaskInput
	if c.title.set {
		title := strings.TrimSpace(c.title.value)
		in.Title = &title
	}
	if c.description.set {
		desc := strings.TrimSpace(c.description.value)
		in.Description = &desc
	}
	if c.priority.set {
		p := service.Priority(strings.ToLower(strings.TrimSpace(c.priority.value)))
		in.Priority = &p
	}
	return in
}
