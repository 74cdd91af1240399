package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/model"
)

func TestCategoryServiceList(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newMemoryStore(t)
	require.NoError(t, store.Add(ctx, task("1", "work")))
	require.NoError(t, store.Add(ctx, task("2", "work")))
	require.NoError(t, store.Add(ctx, task("3", "health")))

	list := NewCategoryService(store).List()
	require.Len(t, list, len(model.Categories()))

	counts := make(map[string]int)
	for _, c := range list {
		counts[c.ID] = c.Count
	}
	assert.Equal(t, model.AllCategoryID, list[0].ID)
	assert.Equal(t, 3, counts[model.AllCategoryID])
	assert.Equal(t, 2, counts["work"])
	assert.Equal(t, 1, counts["health"])
	assert.Equal(t, 0, counts["shopping"])
}
