package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"

	"todo/internal/exitcode"
	"todo/internal/server"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	listen string
}

func (c *ServeCmd) Name() string      { return "serve" }
func (c *ServeCmd) Aliases() []string { return nil }
func (c *ServeCmd) Synopsis() string  { return "Serve the guarded task pages and metrics over HTTP" }
func (c *ServeCmd) Usage() string     { return "todo serve [--listen <addr>]" }
func (c *ServeCmd) Route() string     { return "" }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
}

// Run blocks until ctx is cancelled.
func (c *ServeCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if rt.Backend == nil {
		fmt.Fprintln(errOut, "error: serve is not available")
		return exitcode.UserError
	}

	addr := c.listen
	if addr == "" {
		addr = rt.Config.Listen
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	if !rt.Config.Quiet {
		fmt.Fprintf(out, "listening on http://%s\n", listener.Addr())
	}
	if err := server.New(rt.Backend).Serve(ctx, listener); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
