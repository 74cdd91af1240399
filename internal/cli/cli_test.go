package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/config"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

func memoryFactory(storage repository.Storage) AppFactory {
	return func(ctx context.Context, cfg config.Config) (*App, error) {
		return NewApp(ctx, cfg, storage)
	}
}

func run(t *testing.T, factory AppFactory, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TASKMASTER_CONFIG", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEFAULT_THEME", "")

	var out bytes.Buffer
	root := NewRootCmd(factory)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func storedTasks(t *testing.T, storage repository.Storage) []model.Task {
	t.Helper()
	tasks, err := repository.NewTaskRepository(storage).Load(context.Background())
	require.NoError(t, err)
	return tasks
}

func TestAddListToggleRemove(t *testing.T) {
	storage := repository.NewMemoryStorage()
	factory := memoryFactory(storage)

	out, err := run(t, factory, "add", "Buy", "milk", "-c", "shopping", "-p", "low", "--due", "2025-11-30", "-d", "2 litres")
	require.NoError(t, err)
	assert.Contains(t, out, "Task added successfully!")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Due: Nov 30, 2025")

	_, err = run(t, factory, "add", "Write report", "--category", "work")
	require.NoError(t, err)

	tasks := storedTasks(t, storage)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Write report", tasks[0].Title)
	milk := tasks[1]

	out, err = run(t, factory, "list", "-c", "shopping")
	require.NoError(t, err)
	assert.Contains(t, out, "Shopping (1)")
	assert.Contains(t, out, "Buy milk")
	assert.NotContains(t, out, "Write report")

	out, err = run(t, factory, "toggle", milk.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Task completed! Great job!")

	out, err = run(t, factory, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 2")
	assert.Contains(t, out, "Completed: 1")
	assert.Contains(t, out, "Pending: 1")

	out, err = run(t, factory, "done", milk.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Task marked as pending.")

	out, err = run(t, factory, "rm", milk.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Task deleted successfully!")
	assert.Len(t, storedTasks(t, storage), 1)

	_, err = run(t, factory, "rm", milk.ID)
	assert.Error(t, err)
	assert.Len(t, storedTasks(t, storage), 1)
}

func TestAddValidation(t *testing.T) {
	storage := repository.NewMemoryStorage()
	factory := memoryFactory(storage)

	_, err := run(t, factory, "add", "x", "-c", "hobby")
	assert.Error(t, err)
	_, err = run(t, factory, "add")
	assert.Error(t, err)
	assert.Empty(t, storedTasks(t, storage))
}

func TestListEmptyAndUnknownCategory(t *testing.T) {
	factory := memoryFactory(repository.NewMemoryStorage())

	out, err := run(t, factory, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "All Tasks (0)")
	assert.Contains(t, out, "No tasks yet")

	_, err = run(t, factory, "list", "-c", "hobby")
	assert.Error(t, err)
}

func TestThemeCommand(t *testing.T) {
	storage := repository.NewMemoryStorage()
	factory := memoryFactory(storage)

	out, err := run(t, factory, "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "light")

	out, err = run(t, factory, "theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "dark")

	raw, _, err := storage.Get(context.Background(), repository.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)

	_, err = run(t, factory, "theme", "light")
	require.NoError(t, err)
	_, err = run(t, factory, "theme", "sepia")
	assert.Error(t, err)
}

func TestCategoriesAndReport(t *testing.T) {
	factory := memoryFactory(repository.NewMemoryStorage())
	_, err := run(t, factory, "add", "Gym", "-c", "health")
	require.NoError(t, err)

	out, err := run(t, factory, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "All Tasks")
	assert.Contains(t, out, "health")

	out, err = run(t, factory, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily digest")
	assert.Contains(t, out, "Gym")
}

func TestBotRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	_, err := run(t, memoryFactory(repository.NewMemoryStorage()), "bot")
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestOpenAppWithSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DatabaseURL = filepath.Join(dir, "data", "taskmaster.db")

	app, err := OpenApp(ctx, cfg)
	require.NoError(t, err)
	_, err = app.Tasks.CreateTask(ctx, service.TaskInput{Title: "Persist me"})
	require.NoError(t, err)
	require.NoError(t, app.Close(ctx))

	_, err = os.Stat(cfg.DatabaseURL)
	require.NoError(t, err)

	app, err = OpenApp(ctx, cfg)
	require.NoError(t, err)
	defer app.Close(ctx)
	tasks := app.Store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Persist me", tasks[0].Title)
}

func TestOpenAppUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StorageDriver = "floppy"
	_, err := OpenApp(context.Background(), cfg)
	assert.Error(t, err)
}
