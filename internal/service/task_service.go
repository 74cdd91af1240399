package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmaster/internal/model"
)

// DefaultCategoryID is used when the entry form leaves the category empty.
const DefaultCategoryID = "personal"

// ErrInvalidInput wraps every entry form validation failure.
var ErrInvalidInput = errors.New("invalid task input")

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	CategoryID  string
	Priority    string
	DueDate     string
}

// BuildTask validates input and produces a new, not completed task.
func BuildTask(input TaskInput, now time.Time) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	categoryID := strings.ToLower(strings.TrimSpace(input.CategoryID))
	if categoryID == "" {
		categoryID = DefaultCategoryID
	}
	if c, ok := model.LookupCategory(categoryID); !ok || c.ID == model.AllCategoryID {
		return model.Task{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.CategoryID)
	}

	priority := model.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		p, err := model.ParsePriority(input.Priority)
		if err != nil {
			return model.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		priority = p
	}

	var due *model.Date
	if raw := strings.TrimSpace(input.DueDate); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Task{}, fmt.Errorf("%w: due date must look like 2025-11-30", ErrInvalidInput)
		}
		due = &d
	}

	return model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  categoryID,
		Priority:    priority,
		DueDate:     due,
		CreatedAt:   now.UTC(),
	}, nil
}

// TaskService is what the views talk to: it accepts human typed references
// and entry form input on top of the store.
type TaskService struct {
	store *TaskStore
	now   func() time.Time
}

func NewTaskService(store *TaskStore) *TaskService {
	return &TaskService{store: store, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (model.Task, error) {
	task, err := BuildTask(input, s.now())
	if err != nil {
		return model.Task{}, err
	}
	if err := s.store.Add(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// ToggleTask flips completion of the task referenced by ref (id or unique prefix).
func (s *TaskService) ToggleTask(ctx context.Context, ref string) (model.Task, error) {
	task, err := s.store.Resolve(ref)
	if err != nil {
		return model.Task{}, err
	}
	toggled, ok, err := s.store.ToggleComplete(ctx, task.ID)
	if err != nil {
		return toggled, err
	}
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return toggled, nil
}

// DeleteTask removes the task referenced by ref.
func (s *TaskService) DeleteTask(ctx context.Context, ref string) (model.Task, error) {
	task, err := s.store.Resolve(ref)
	if err != nil {
		return model.Task{}, err
	}
	removed, ok, err := s.store.Remove(ctx, task.ID)
	if err != nil {
		return removed, err
	}
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return removed, nil
}

func (s *TaskService) GetTask(ref string) (model.Task, error) {
	return s.store.Resolve(ref)
}

// ListTasks returns tasks of categoryID ("all" for every task), newest first.
func (s *TaskService) ListTasks(categoryID string) ([]model.Task, error) {
	if categoryID == "" {
		categoryID = model.AllCategoryID
	}
	if _, ok := model.LookupCategory(categoryID); !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, categoryID)
	}
	return s.store.Filter(categoryID), nil
}

func (s *TaskService) Stats() Stats {
	return s.store.Stats()
}
