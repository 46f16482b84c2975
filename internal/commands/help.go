package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) Route() string     { return "" }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	registry := c.registry
	if registry == nil {
		registry = DefaultRegistry
	}
	fmt.Fprint(out, Help(registry))
	return exitcode.Success
}

// Help renders usage for every command in r.
func Help(r *Registry) string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	b.WriteString("  todo                                   List tasks\n")

	cmds := r.All()
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "  %s\n", cmd.Usage())
	}

	b.WriteString("\nCommands:\n")
	for _, cmd := range cmds {
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(&b, "  %-15s %s\n", cmd.Name(), line)
	}

	b.WriteString(commonFlagsHelp)
	return b.String()
}

const commonFlagsHelp = `
Common flags:
  --config <dir>    Override config directory
  --api-url <url>   Backend base URL (default http://localhost:8000, env TODO_API_URL)
  --quiet           Suppress informational output
  --debug           Print debug logs to stderr
  --json-log        Write logs as JSON lines
`
