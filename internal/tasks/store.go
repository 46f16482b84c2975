// Package tasks keeps the local, ordered copy of the signed-in user's tasks
// and applies mutations to it, optimistically where the operation allows.
package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"todo/internal/logging"
	"todo/internal/metrics"
	"todo/internal/service"
)

// ErrNoUser is returned when an operation runs before Load has bound the
// collection to a user.
var ErrNoUser = errors.New("no user loaded")

// Notification messages.
const (
	MsgLoadFailed   = "Failed to load tasks"
	MsgCreated      = "Task created"
	MsgUpdated      = "Task updated"
	MsgSaveFailed   = "Operation failed"
	MsgToggleFailed = "Failed to update status"
	MsgDeleted      = "Task deleted"
	MsgDeleteFailed = "Failed to delete task"
)

// Level distinguishes success from failure notices.
type Level int

const (
	Success Level = iota
	Failure
)

// Notice is a user-facing message about a finished operation.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Store is the local task collection for one user. Concurrent toggles and
// deletes are not serialized against each other: each restores the snapshot
// it took, so a later rollback can undo an earlier success.
type Store struct {
	svc    service.Service
	notify Notifier
	log    zerolog.Logger

	mu     sync.Mutex
	userID string
	tasks  []service.Task
	loaded bool
}

// New creates an empty store. notify may be nil.
func New(svc service.Service, notify Notifier) *Store {
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}
	return &Store{
		svc:    svc,
		notify: notify,
		log:    logging.WithComponent("tasks"),
	}
}

// Tasks returns a copy of the collection in its current order.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// UserID returns the user the collection belongs to, or "".
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Loaded reports whether Load has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Get returns the local task with id.
func (s *Store) Get(id int) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return service.Task{}, false
}

func (s *Store) index(id int) int {
	return slices.IndexFunc(s.tasks, func(t service.Task) bool { return t.ID == id })
}

func (s *Store) owner() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return "", ErrNoUser
	}
	return s.userID, nil
}

// Load replaces the collection with the server's list for userID.
// Switching to a different user empties the collection first, so a failed
// load never shows another user's tasks.
func (s *Store) Load(ctx context.Context, userID string) error {
	return s.LoadWith(ctx, userID, service.ListOptions{})
}

// LoadWith is Load with server-side list options.
func (s *Store) LoadWith(ctx context.Context, userID string, opts service.ListOptions) error {
	if userID == "" {
		return ErrNoUser
	}
	s.mu.Lock()
	if s.userID != userID {
		s.userID = userID
		s.tasks = nil
		s.loaded = false
	}
	s.mu.Unlock()

	log := logging.WithUserID(userID)
	list, err := s.svc.ListTasks(ctx, userID, opts)
	if err != nil {
		log.Debug().Err(err).Str("component", "tasks").Msg("load failed")
		s.notify.Notify(Notice{Level: Failure, Message: MsgLoadFailed, Err: err})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		// a load for another user started meanwhile
		return nil
	}
	s.tasks = dedupe(list)
	s.loaded = true
	log.Debug().Str("component", "tasks").Int("count", len(s.tasks)).Msg("tasks loaded")
	return nil
}

// dedupe keeps the first occurrence of each id.
func dedupe(list []service.Task) []service.Task {
	seen := make(map[int]struct{}, len(list))
	out := make([]service.Task, 0, len(list))
	for _, t := range list {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Create sends the task to the server and prepends the result. Nothing is
// added locally until the server has assigned an id.
func (s *Store) Create(ctx context.Context, in service.CreateTaskInput) (service.Task, error) {
	userID, err := s.owner()
	if err != nil {
		return service.Task{}, err
	}
	t, err := s.svc.CreateTask(ctx, userID, in)
	if err != nil {
		s.notify.Notify(Notice{Level: Failure, Message: MsgSaveFailed, Err: err})
		return service.Task{}, err
	}

	s.mu.Lock()
	if i := s.index(t.ID); i >= 0 {
		s.tasks = slices.Delete(s.tasks, i, i+1)
	}
	s.tasks = slices.Insert(s.tasks, 0, t)
	s.mu.Unlock()

	s.notify.Notify(Notice{Level: Success, Message: MsgCreated})
	return t, nil
}

// Update sends the change to the server and replaces the local entry with
// the result. The old values stay in place until the response arrives.
func (s *Store) Update(ctx context.Context, id int, in service.UpdateTaskInput) (service.Task, error) {
	userID, err := s.owner()
	if err != nil {
		return service.Task{}, err
	}
	t, err := s.svc.UpdateTask(ctx, userID, id, in)
	if err != nil {
		s.notify.Notify(Notice{Level: Failure, Message: MsgSaveFailed, Err: err})
		return service.Task{}, err
	}

	s.replace(t)
	s.notify.Notify(Notice{Level: Success, Message: MsgUpdated})
	return t, nil
}

func (s *Store) replace(t service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(t.ID); i >= 0 {
		s.tasks[i] = t
	}
}

// Toggle flips the local completion flag at once, then asks the server.
// On failure the whole collection is restored to its state before the flip.
func (s *Store) Toggle(ctx context.Context, id int) (service.Task, error) {
	userID, err := s.owner()
	if err != nil {
		return service.Task{}, err
	}

	snapshot := s.apply(func(tasks []service.Task) []service.Task {
		if i := slices.IndexFunc(tasks, func(t service.Task) bool { return t.ID == id }); i >= 0 {
			tasks[i].Completed = !tasks[i].Completed
		}
		return tasks
	})

	t, err := s.svc.ToggleComplete(ctx, userID, id)
	if err != nil {
		s.rollback("toggle", snapshot)
		s.notify.Notify(Notice{Level: Failure, Message: MsgToggleFailed, Err: err})
		return service.Task{}, err
	}
	s.replace(t)
	return t, nil
}

// Delete removes the task locally at once, then asks the server. On failure
// the whole collection is restored, putting the task back where it was.
func (s *Store) Delete(ctx context.Context, id int) error {
	userID, err := s.owner()
	if err != nil {
		return err
	}

	snapshot := s.apply(func(tasks []service.Task) []service.Task {
		return slices.DeleteFunc(tasks, func(t service.Task) bool { return t.ID == id })
	})

	if err := s.svc.DeleteTask(ctx, userID, id); err != nil {
		s.rollback("delete", snapshot)
		s.notify.Notify(Notice{Level: Failure, Message: MsgDeleteFailed, Err: err})
		return err
	}
	s.notify.Notify(Notice{Level: Success, Message: MsgDeleted})
	return nil
}

// apply snapshots the collection and mutates a copy of it in place of the
// original. It returns the snapshot.
func (s *Store) apply(mutate func([]service.Task) []service.Task) []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := slices.Clone(s.tasks)
	s.tasks = mutate(slices.Clone(s.tasks))
	return snapshot
}

func (s *Store) rollback(op string, snapshot []service.Task) {
	s.mu.Lock()
	s.tasks = snapshot
	s.mu.Unlock()
	metrics.OptimisticRollbacksTotal.WithLabelValues(op).Inc()
	s.log.Debug().Str("op", op).Msg("optimistic change rolled back")
}

// Reset empties the collection and unbinds it from its user.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.tasks = nil
	s.loaded = false
}
