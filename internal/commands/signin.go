package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/route"
	"todo/internal/service"
	"todo/internal/validate"
)

func init() {
	Register(&SigninCmd{})
}

// SigninCmd implements the signin command.
type SigninCmd struct {
	email    string
	password string
}

func (c *SigninCmd) Name() string      { return "signin" }
func (c *SigninCmd) Aliases() []string { return []string{"login"} }
func (c *SigninCmd) Synopsis() string  { return "Sign in to the backend" }
func (c *SigninCmd) Usage() string     { return "todo signin --email <email> --password <password>" }
func (c *SigninCmd) Route() string     { return route.SignInPath }

func (c *SigninCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SigninCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	in := service.SignInInput{
		Email:    strings.TrimSpace(c.email),
		Password: c.password,
	}
	if err := validate.SignIn(in); err != nil {
		return report(rt, errOut, err)
	}

	resp, err := rt.Session.SignIn(ctx, in)
	if err != nil {
		return report(rt, errOut, err)
	}

	if !rt.Config.Quiet {
		fmt.Fprintf(out, "signed in as %s\n", signedInAs(resp, in.Email))
	}
	return exitcode.Success
}

// signedInAs names the account an auth response belongs to.
func signedInAs(resp service.AuthResponse, email string) string {
	if resp.User != nil && resp.User.Email != "" {
		return resp.User.Email
	}
	return email
}
