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
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	name        string
	email       string
	password    string
	confirm     string
	acceptTerms bool
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account" }
func (c *SignupCmd) Usage() string {
	return "todo signup --name <name> --email <email> --password <password> --confirm <password> --accept-terms"
}
func (c *SignupCmd) Route() string { return route.SignUpPath }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirm, "confirm", "", "")
	fs.BoolVar(&c.acceptTerms, "accept-terms", false, "")
}

func (c *SignupCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	in := service.SignUpInput{
		Name:            strings.TrimSpace(c.name),
		Email:           strings.TrimSpace(c.email),
		Password:        c.password,
		ConfirmPassword: c.confirm,
		AcceptTerms:     c.acceptTerms,
	}
	if err := validate.SignUp(in); err != nil {
		return report(rt, errOut, err)
	}

	resp, err := rt.Session.SignUp(ctx, in)
	if err != nil {
		return report(rt, errOut, err)
	}

	if !rt.Config.Quiet {
		fmt.Fprintf(out, "account created, signed in as %s\n", signedInAs(resp, in.Email))
	}
	return exitcode.Success
}
