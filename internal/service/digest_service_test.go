package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/model"
)

func dated(id, due string) model.Task {
	t := task(id, "work")
	if due != "" {
		d, err := model.ParseDate(due)
		if err != nil {
			panic(err)
		}
		t.DueDate = &d
	}
	return t
}

func TestSortByDueDate(t *testing.T) {
	list := []model.Task{dated("none1", ""), dated("late", "2025-12-10"), dated("none2", ""), dated("soon", "2025-11-21")}
	SortByDueDate(list)
	assert.Equal(t, []string{"soon", "late", "none1", "none2"}, ids(list))
}

func TestStatusOf(t *testing.T) {
	now := time.Date(2025, time.November, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DueNone, StatusOf(dated("a", ""), now))
	assert.Equal(t, DueOverdue, StatusOf(dated("a", "2025-11-19"), now))
	assert.Equal(t, DueSoon, StatusOf(dated("a", "2025-11-20"), now))
	assert.Equal(t, DueSoon, StatusOf(dated("a", "2025-11-22"), now))
	assert.Equal(t, DueLater, StatusOf(dated("a", "2025-11-30"), now))
}

func TestDigestSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.November, 20, 12, 0, 0, 0, time.UTC)
	store, _, _ := newMemoryStore(t)

	done := dated("done", "2025-11-01")
	done.Title = "Already finished"
	done.Completed = true
	overdue := dated("overdue", "2025-11-18")
	overdue.Title = "Pay rent"
	overdue.Description = "landlord account"
	undated := dated("undated", "")
	undated.Title = "Read a book"

	for _, tk := range []model.Task{done, undated, overdue} {
		require.NoError(t, store.Add(ctx, tk))
	}

	summary := NewDigestService(store).Summary(now)
	assert.Contains(t, summary, "Thursday, November 20, 2025")
	assert.Contains(t, summary, "Pay rent [medium] (Work)")
	assert.Contains(t, summary, "due 2025-11-18, overdue")
	assert.Contains(t, summary, "landlord account")
	assert.NotContains(t, summary, "Already finished")
	assert.Less(t, strings.Index(summary, "Pay rent"), strings.Index(summary, "Read a book"))
	assert.True(t, strings.HasSuffix(summary, "Total 3 · Completed 1 · Pending 2"))
}

func TestDigestSummaryEmpty(t *testing.T) {
	store, _, _ := newMemoryStore(t)
	summary := NewDigestService(store).Summary(time.Now())
	assert.Contains(t, summary, "No pending tasks")
}
