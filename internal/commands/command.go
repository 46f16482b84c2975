// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/backend/googletasks"
	"todo/internal/config"
	"todo/internal/credential"
	"todo/internal/route"
	"todo/internal/server"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/tasks"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Route returns the page the command stands for. The dispatcher runs
	// the route guard on it before Run; "" means no guard applies.
	Route() string

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// rt is always provided.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, rt *Runtime, args []string, out, errOut io.Writer) int
}

// GoogleSource is the part of the Google Tasks client used for imports.
type GoogleSource interface {
	DefaultList(ctx context.Context) (googletasks.List, error)
	ResolveList(ctx context.Context, name string) (googletasks.List, error)
	OpenTasks(ctx context.Context, listID string) ([]googletasks.Task, error)
}

// GoogleFactory opens a GoogleSource.
type GoogleFactory func(ctx context.Context, cfg *config.Config) (GoogleSource, error)

// Runtime is the session context a command runs in: the credential, the
// location the guard and the gateway agree on, and the stores built on
// top of the backend.
type Runtime struct {
	Config      *config.Config
	Service     service.Service
	Credentials credential.Holder
	Cookies     credential.CookieStore
	Location    *route.Location
	Session     *session.Store
	Tasks       *tasks.Store

	// Google opens the import source; nil disables import-google.
	Google GoogleFactory

	// Backend builds per-request gateways for serve; nil disables serve.
	Backend server.Backend

	out io.Writer
}

// NewRuntime wires the session and task stores to svc.
func NewRuntime(cfg *config.Config, svc service.Service, creds credential.Holder, cookies credential.CookieStore, loc *route.Location) *Runtime {
	rt := &Runtime{
		Config:      cfg,
		Service:     svc,
		Credentials: creds,
		Cookies:     cookies,
		Location:    loc,
	}
	rt.Session = session.New(svc, creds)
	rt.Tasks = tasks.New(svc, tasks.NotifierFunc(rt.notify))
	return rt
}

// SetOutput sets where success notices are written.
func (rt *Runtime) SetOutput(out io.Writer) {
	rt.out = out
}

// notify prints success notices; failures are reported by the command.
func (rt *Runtime) notify(n tasks.Notice) {
	if n.Level != tasks.Success || rt.out == nil || rt.Config.Quiet {
		return
	}
	fmt.Fprintln(rt.out, n.Message)
}
