package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	status string
	sort   string
	order  string
	format string
	remote bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todo list [--status all|pending|completed] [--sort created_at|title|updated_at] [--order asc|desc] [--format text|json|yaml] [--remote]"
}
func (c *ListCmd) Route() string { return "/tasks" }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", string(view.Default.Status), "")
	fs.StringVar(&c.sort, "sort", string(view.Default.Sort), "")
	fs.StringVar(&c.order, "order", string(view.Default.Order), "")
	fs.StringVar(&c.format, "format", string(output.Text), "")
	fs.BoolVar(&c.remote, "remote", false, "")
}

func (c *ListCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	opts, err := c.options()
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	// With --remote the backend filters and sorts too; the local view is
	// applied either way so both paths print the same order.
	var query service.ListOptions
	if c.remote {
		query = service.ListOptions{Status: opts.Status, Sort: opts.Sort, Order: opts.Order}
	}
	if code := loadTasks(ctx, rt, query, errOut); code != exitcode.Success {
		return code
	}

	shown := view.Apply(rt.Tasks.Tasks(), opts)
	if format == output.Text {
		if len(shown) == 0 && rt.Config.Quiet {
			return exitcode.Success
		}
		output.FormatTasks(out, shown)
		return exitcode.Success
	}
	if err := output.Encode(out, format, shown); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

func (c *ListCmd) options() (view.Options, error) {
	status, err := service.ParseStatus(c.status)
	if err != nil {
		return view.Options{}, err
	}
	field, err := service.ParseSortField(c.sort)
	if err != nil {
		return view.Options{}, err
	}
	order, err := service.ParseSortOrder(c.order)
	if err != nil {
		return view.Options{}, err
	}
	return view.Options{Status: status, Sort: field, Order: order}, nil
}
