package model

// AllCategoryID selects every task; it is never stored on a task.
const AllCategoryID = "all"

// UncategorizedName is shown for tasks whose category is not in the list.
const UncategorizedName = "Uncategorized"

// Category groups tasks by area (work, health, shopping, etc.).
type Category struct {
	ID    string
	Name  string
	Color string
}

var categories = []Category{
	{ID: AllCategoryID, Name: "All Tasks", Color: "#3B82F6"},
	{ID: "work", Name: "Work", Color: "#8B5CF6"},
	{ID: "personal", Name: "Personal", Color: "#10B981"},
	{ID: "shopping", Name: "Shopping", Color: "#F59E0B"},
	{ID: "health", Name: "Health", Color: "#EF4444"},
}

// Categories returns the fixed category list, the "all" selector first.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// AssignableCategories returns the categories a task can belong to.
func AssignableCategories() []Category {
	out := make([]Category, 0, len(categories)-1)
	for _, c := range categories {
		if c.ID != AllCategoryID {
			out = append(out, c)
		}
	}
	return out
}

// LookupCategory finds a category by id, including the "all" selector.
func LookupCategory(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryName returns the display name for id, or UncategorizedName.
func CategoryName(id string) string {
	if c, ok := LookupCategory(id); ok && c.ID != AllCategoryID {
		return c.Name
	}
	return UncategorizedName
}
