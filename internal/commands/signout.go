package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/exitcode"
	"todo/internal/logging"
)

func init() {
	Register(&SignoutCmd{})
}

// SignoutCmd implements the signout command.
type SignoutCmd struct{}

func (c *SignoutCmd) Name() string      { return "signout" }
func (c *SignoutCmd) Aliases() []string { return []string{"logout"} }
func (c *SignoutCmd) Synopsis() string  { return "Sign out and remove stored credentials" }
func (c *SignoutCmd) Usage() string     { return "todo signout" }
func (c *SignoutCmd) Route() string     { return "" }

func (c *SignoutCmd) RegisterFlags(fs *flag.FlagSet) {}

// Run ends the server session. Local credentials are gone afterwards even
// when the backend call fails, so signout itself never fails.
func (c *SignoutCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if _, ok := rt.Credentials.Retrieve(); !ok {
		if !rt.Config.Quiet {
			fmt.Fprintln(out, "not signed in")
		}
		return exitcode.Success
	}

	if err := rt.Session.SignOut(ctx); err != nil {
		log := logging.WithComponent("commands")
		log.Debug().Err(err).Msg("logout request failed")
		fmt.Fprintf(errOut, "warning: logout completed with warnings: %s\n", err)
	}
	rt.Tasks.Reset()

	if !rt.Config.Quiet {
		fmt.Fprintln(out, "signed out")
	}
	return exitcode.Success
}
