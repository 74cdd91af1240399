package service

import "taskmaster/internal/model"

// CategorySummary is a category with the number of tasks in it.
type CategorySummary struct {
	model.Category
	Count int
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	store *TaskStore
}

func NewCategoryService(store *TaskStore) *CategoryService {
	return &CategoryService{store: store}
}

// List returns every category, "all" first, with task counts.
func (s *CategoryService) List() []CategorySummary {
	tasks := s.store.Tasks()
	counts := make(map[string]int, len(tasks))
	for _, t := range tasks {
		counts[t.CategoryID]++
	}

	cats := model.Categories()
	out := make([]CategorySummary, 0, len(cats))
	for _, c := range cats {
		n := counts[c.ID]
		if c.ID == model.AllCategoryID {
			n = len(tasks)
		}
		out = append(out, CategorySummary{Category: c, Count: n})
	}
	return out
}
