package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

const (
	msgTaskAdded     = "Task added successfully!"
	msgTaskCompleted = "Task completed! Great job! 🎉"
	msgTaskPending   = "Task marked as pending."
	msgTaskDeleted   = "Task deleted successfully!"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrAmbiguous   = errors.New("task reference matches several tasks")
	ErrDuplicateID = errors.New("task id already exists")
)

// TaskSnapshots loads and saves the whole task list.
type TaskSnapshots interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Stats are the aggregate counts over the list.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// TaskStore owns the ordered task list (newest first) and writes it back after every mutation.
type TaskStore struct {
	mu       sync.Mutex
	repo     TaskSnapshots
	notifier Notifier
	tasks    []model.Task
	stats    Stats
}

// NewTaskStore loads the saved list. A malformed snapshot is replaced by an
// empty list and reported with a warning; storage access errors are returned.
func NewTaskStore(ctx context.Context, repo TaskSnapshots, notifier Notifier) (*TaskStore, error) {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	tasks, err := repo.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrMalformed):
		log.Warnf("discarding stored tasks: %v", err)
		notifier.Notify(Notice{Level: LevelWarning, Message: "Saved tasks could not be read, starting with an empty list."})
		tasks = nil
	default:
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	s := &TaskStore{repo: repo, notifier: notifier, tasks: tasks}
	s.stats = ComputeStats(tasks)
	return s, nil
}

// Add prepends task to the list.
func (s *TaskStore) Add(ctx context.Context, task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(task.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, task.ID)
	}
	s.tasks = append([]model.Task{task}, s.tasks...)
	if err := s.persistLocked(ctx); err != nil {
		return err
	}
	log.Debugf("task added id=%s category=%s", task.ID, task.CategoryID)
	s.notifier.Notify(Notice{Level: LevelSuccess, Message: msgTaskAdded})
	return nil
}

// ToggleComplete flips the completed flag of id. ok is false when id is unknown.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) (task model.Task, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	task = s.tasks[i]
	if err := s.persistLocked(ctx); err != nil {
		return task, true, err
	}
	log.Debugf("task toggled id=%s completed=%t", id, task.Completed)
	if task.Completed {
		s.notifier.Notify(Notice{Level: LevelSuccess, Message: msgTaskCompleted})
	} else {
		s.notifier.Notify(Notice{Level: LevelInfo, Message: msgTaskPending})
	}
	return task, true, nil
}

// Remove deletes id from the list. ok is false when id is unknown.
func (s *TaskStore) Remove(ctx context.Context, id string) (task model.Task, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false, nil
	}
	task = s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	if err := s.persistLocked(ctx); err != nil {
		return task, true, err
	}
	log.Debugf("task deleted id=%s", id)
	s.notifier.Notify(Notice{Level: LevelSuccess, Message: msgTaskDeleted})
	return task, true, nil
}

// Stats returns the counts as of the last mutation.
func (s *TaskStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Tasks returns a copy of the list, newest first.
func (s *TaskStore) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Filter returns the tasks of one category, or all of them for "all".
func (s *TaskStore) Filter(categoryID string) []model.Task {
	return FilterByCategory(s.Tasks(), categoryID)
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

// Resolve finds a task by exact id or by a unique id prefix.
func (s *TaskStore) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(ref); i >= 0 {
		return s.tasks[i], nil
	}
	var match *model.Task
	for i := range s.tasks {
		if !strings.HasPrefix(s.tasks[i].ID, ref) {
			continue
		}
		if match != nil {
			return model.Task{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
		}
		match = &s.tasks[i]
	}
	if match == nil {
		return model.Task{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return *match, nil
}

// Flush writes the current list even if nothing changed.
func (s *TaskStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked recomputes stats and saves the snapshot. The in-memory change
// is kept when saving fails.
func (s *TaskStore) persistLocked(ctx context.Context) error {
	s.stats = ComputeStats(s.tasks)
	if err := s.repo.Save(ctx, s.tasks); err != nil {
		log.Errorf("save tasks: %v", err)
		s.notifier.Notify(Notice{Level: LevelError, Message: "Could not save tasks: " + err.Error()})
		return err
	}
	return nil
}

// ComputeStats counts tasks in a single pass.
func ComputeStats(tasks []model.Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

// FilterByCategory returns tasks whose category matches categoryID, preserving
// order. "all" returns tasks unchanged.
func FilterByCategory(tasks []model.Task, categoryID string) []model.Task {
	if categoryID == model.AllCategoryID {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out
}
