package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/route"
	"todo/internal/service"
	"todo/internal/view"
)

func init() {
	Register(&StatsCmd{})
}

// StatsCmd implements the stats command.
type StatsCmd struct {
	format string
}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show task totals and completion rate" }
func (c *StatsCmd) Usage() string     { return "todo stats [--format text|json|yaml]" }
func (c *StatsCmd) Route() string     { return route.DashboardPath }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", string(output.Text), "")
}

func (c *StatsCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	stats := view.Summarize(rt.Tasks.Tasks())
	if format == output.Text {
		output.FormatStats(out, stats)
		return exitcode.Success
	}
	if err := output.Encode(out, format, stats); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
