package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"taskmaster/internal/model"
	"taskmaster/internal/repository"
)

type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type stubSnapshots struct {
	loadFn func(ctx context.Context) ([]model.Task, error)
	saveFn func(ctx context.Context, tasks []model.Task) error
	saves  int
}

func (s *stubSnapshots) Load(ctx context.Context) ([]model.Task, error) {
	if s.loadFn == nil {
		return nil, nil
	}
	return s.loadFn(ctx)
}

func (s *stubSnapshots) Save(ctx context.Context, tasks []model.Task) error {
	s.saves++
	if s.saveFn == nil {
		return nil
	}
	return s.saveFn(ctx, tasks)
}

var errDiskFull = errors.New("disk full")

func newMemoryStore(t *testing.T) (*TaskStore, *repository.MemoryStorage, *recorder) {
	t.Helper()
	storage := repository.NewMemoryStorage()
	rec := &recorder{}
	store, err := NewTaskStore(context.Background(), repository.NewTaskRepository(storage), rec)
	require.NoError(t, err)
	return store, storage, rec
}

func task(id, category string) model.Task {
	return model.Task{ID: id, Title: "task " + id, CategoryID: category, Priority: model.PriorityMedium}
}
