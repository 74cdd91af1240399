package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"taskmaster/internal/model"
)

// TasksKey holds the JSON snapshot of the whole task list.
const TasksKey = "tasks"

// ErrMalformed reports a stored value that could not be decoded.
var ErrMalformed = errors.New("malformed stored data")

// TaskRepository reads and writes the task list snapshot.
type TaskRepository struct {
	storage Storage
}

func NewTaskRepository(storage Storage) *TaskRepository {
	return &TaskRepository{storage: storage}
}

// Load returns the stored list, or an empty list when nothing was saved yet.
// Decode failures wrap ErrMalformed.
func (r *TaskRepository) Load(ctx context.Context) ([]model.Task, error) {
	raw, found, err := r.storage.Get(ctx, TasksKey)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !found {
		return []model.Task{}, nil
	}
	tasks, err := DecodeTasks([]byte(raw))
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save replaces the stored snapshot with tasks.
func (r *TaskRepository) Save(ctx context.Context, tasks []model.Task) error {
	data, err := EncodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := r.storage.Set(ctx, TasksKey, string(data)); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// EncodeTasks serializes tasks as a JSON array; nil encodes as [].
func EncodeTasks(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := sonic.ConfigStd.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// DecodeTasks parses a snapshot produced by EncodeTasks.
func DecodeTasks(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := sonic.ConfigStd.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", ErrMalformed, err)
	}
	if tasks == nil {
		// "null" decodes without error.
		tasks = []model.Task{}
	}
	return tasks, nil
}
