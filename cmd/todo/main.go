// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/rest"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/credential"
	"todo/internal/route"
	"todo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newRuntime)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newRuntime wires the file-backed credentials and points the gateway at
// the configured backend, starting at the command's route.
func newRuntime(ctx context.Context, cfg *config.Config, path string) (*commands.Runtime, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}
	creds := credential.NewFiles(cfg.CredentialsPath(), cfg.CookiesPath())

	loc := route.NewLocation(path)
	rt := commands.NewRuntime(cfg, rest.New(cfg.APIURL, creds, loc), creds, creds.Cookies(), loc)
	rt.Google = func(ctx context.Context, cfg *config.Config) (commands.GoogleSource, error) {
		return googletasks.New(ctx, cfg)
	}
	rt.Backend = func(creds credential.Holder, nav route.Navigator) service.Service {
		return rest.New(cfg.APIURL, creds, nav)
	}
	return rt, nil
}
