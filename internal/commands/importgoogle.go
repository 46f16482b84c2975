package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/backend/googletasks"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/tasks"
	"todo/internal/validate"
)

func init() {
	Register(&ImportGoogleCmd{})
}

// ImportGoogleCmd implements the import-google command.
type ImportGoogleCmd struct {
	listName string
	login    bool
	dryRun   bool
}

func (c *ImportGoogleCmd) Name() string      { return "import-google" }
func (c *ImportGoogleCmd) Aliases() []string { return nil }
func (c *ImportGoogleCmd) Synopsis() string  { return "Copy open Google Tasks into the backend" }
func (c *ImportGoogleCmd) Usage() string {
	return "todo import-google [--login] [--list <list-name>] [--dry-run]"
}
func (c *ImportGoogleCmd) Route() string { return "/tasks" }

func (c *ImportGoogleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.BoolVar(&c.login, "login", false, "")
	fs.BoolVar(&c.dryRun, "dry-run", false, "")
}

func (c *ImportGoogleCmd) Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if c.login {
		if err := googletasks.Login(ctx, rt.Config, out); err != nil {
			if errors.Is(err, googletasks.ErrNoOAuthClient) {
				fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, rt.Config.Dir)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return exitcode.AuthError
		}
		if !rt.Config.Quiet {
			fmt.Fprintln(out, "google account linked")
		}
	}

	if rt.Google == nil {
		fmt.Fprintln(errOut, "error: google import is not available")
		return exitcode.UserError
	}
	if !rt.Config.HasGoogleToken() {
		fmt.Fprintln(errOut, "error: google account not linked (run: todo import-google --login)")
		return exitcode.AuthError
	}

	if code := loadTasks(ctx, rt, service.ListOptions{}, errOut); code != exitcode.Success {
		return code
	}

	src, err := rt.Google(ctx, rt.Config)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %s\n", err)
		return exitcode.AuthError
	}

	var list googletasks.List
	if c.listName != "" {
		list, err = src.ResolveList(ctx, c.listName)
	} else {
		list, err = src.DefaultList(ctx)
	}
	if err != nil {
		return reportGoogle(errOut, c.listName, err)
	}

	open, err := src.OpenTasks(ctx, list.ID)
	if err != nil {
		return reportGoogle(errOut, list.Title, err)
	}

	// Titles already in the backend are skipped so repeated imports do not
	// duplicate anything.
	existing := make(map[string]bool)
	for _, t := range rt.Tasks.Tasks() {
		existing[strings.ToLower(t.Title)] = true
	}

	imported, skipped := 0, 0
	for _, gt := range open {
		in, ok := googletasks.CreateInput(gt)
		if !ok || existing[strings.ToLower(in.Title)] {
			skipped++
			continue
		}
		if err := validate.CreateTask(&in); err != nil {
			skipped++
			continue
		}
		if c.dryRun {
			fmt.Fprintf(out, "would import: %s\n", in.Title)
		} else if _, err := rt.Tasks.Create(ctx, in); err != nil {
			return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgSaveFailed, err))
		}
		existing[strings.ToLower(in.Title)] = true
		imported++
	}

	if !rt.Config.Quiet {
		verb := "imported"
		if c.dryRun {
			verb = "would import"
		}
		fmt.Fprintf(out, "%s %d task(s) from %s, skipped %d\n", verb, imported, list.Title, skipped)
	}
	return exitcode.Success
}

func reportGoogle(errOut io.Writer, listName string, err error) int {
	switch {
	case errors.Is(err, googletasks.ErrListNotFound):
		fmt.Fprintf(errOut, "error: list not found: %s\n", listName)
		return exitcode.UserError
	case errors.Is(err, googletasks.ErrAmbiguousList):
		fmt.Fprintf(errOut, "error: ambiguous list name: %s\n", listName)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
