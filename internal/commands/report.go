package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/tasks"
	"todo/internal/validate"
)

// Messages shared by several commands and the dispatcher.
const (
	MsgNotSignedIn    = "not signed in (run: todo signin)"
	MsgSessionExpired = "session expired (run: todo signin)"
)

// report prints err and maps it to an exit code.
func report(rt *Runtime, errOut io.Writer, err error) int {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		fmt.Fprintf(errOut, "error: %s\n", verrs.Error())
		return exitcode.UserError
	case errors.Is(err, tasks.ErrNoUser):
		fmt.Fprintf(errOut, "error: %s\n", MsgNotSignedIn)
		return exitcode.AuthError
	case service.IsUnauthorized(err):
		if rt.Location != nil && rt.Location.Redirected() != "" {
			fmt.Fprintf(errOut, "error: %s\n", MsgSessionExpired)
		} else {
			fmt.Fprintf(errOut, "error: %s\n", err)
		}
		return exitcode.AuthError
	case service.IsTransport(err):
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}

	status := service.StatusOf(err)
	if status >= 400 && status < 500 {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %s\n", err)
	return exitcode.BackendError
}

// requireUser resolves the session and returns the signed-in user.
// When there is none it reports why and returns a non-zero exit code.
func requireUser(ctx context.Context, rt *Runtime, errOut io.Writer) (service.User, int) {
	if rt.Session.Resolve(ctx) == session.Authenticated {
		return *rt.Session.User(), exitcode.Success
	}
	if err := rt.Session.Err(); err != nil {
		return service.User{}, report(rt, errOut, err)
	}
	fmt.Fprintf(errOut, "error: %s\n", MsgNotSignedIn)
	return service.User{}, exitcode.AuthError
}

// loadTasks resolves the user and loads their tasks into rt.Tasks.
func loadTasks(ctx context.Context, rt *Runtime, opts service.ListOptions, errOut io.Writer) int {
	user, code := requireUser(ctx, rt, errOut)
	if code != exitcode.Success {
		return code
	}
	if err := rt.Tasks.LoadWith(ctx, user.ID, opts); err != nil {
		return report(rt, errOut, fmt.Errorf("%s: %w", tasks.MsgLoadFailed, err))
	}
	return exitcode.Success
}

// ParseTaskID parses a task reference: the numeric id, optionally prefixed
// with '#'.
func ParseTaskID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}
	raw := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// ErrTaskIDRequired is returned by ParseTaskID without arguments.
var ErrTaskIDRequired = errors.New("task id required")

// taskIDArg parses the task id argument, reporting a user error.
func taskIDArg(args []string, errOut io.Writer) (int, int) {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return 0, exitcode.UserError
	}
	return id, exitcode.Success
}
