package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskmaster/internal/icon"
	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	high   lipgloss.Color
	medium lipgloss.Color
	low    lipgloss.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeLight: {text: "#1E293B", muted: "#94A3B8", high: "#DC2626", medium: "#D97706", low: "#059669"},
	model.ThemeDark:  {text: "#F1F5F9", muted: "#64748B", high: "#F87171", medium: "#FBBF24", low: "#34D399"},
}

// view renders store state for a terminal.
type view struct {
	w   io.Writer
	r   *lipgloss.Renderer
	pal palette
}

func newView(w io.Writer, theme model.Theme) *view {
	pal, ok := palettes[theme]
	if !ok {
		pal = palettes[model.ThemeLight]
	}
	return &view{w: w, r: lipgloss.NewRenderer(w), pal: pal}
}

func (v *view) style() lipgloss.Style {
	return v.r.NewStyle().Foreground(v.pal.text)
}

func (v *view) priorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return v.r.NewStyle().Foreground(v.pal.high).Bold(true)
	case model.PriorityMedium:
		return v.r.NewStyle().Foreground(v.pal.medium)
	default:
		return v.r.NewStyle().Foreground(v.pal.low)
	}
}

func (v *view) categoryStyle(id string) lipgloss.Style {
	if c, ok := model.LookupCategory(id); ok {
		return v.r.NewStyle().Foreground(lipgloss.Color(c.Color))
	}
	return v.r.NewStyle().Foreground(v.pal.muted)
}

func (v *view) taskList(categoryID string, tasks []model.Task) {
	title := "All Tasks"
	if c, ok := model.LookupCategory(categoryID); ok {
		title = c.Name
	}
	fmt.Fprintf(v.w, "%s (%d)\n", v.style().Bold(true).Render(title), len(tasks))

	if len(tasks) == 0 {
		fmt.Fprintf(v.w, "%s No tasks yet. Add your first task to get started!\n", icon.Glyph("plus"))
		return
	}
	for _, t := range tasks {
		v.task(t)
	}
}

func (v *view) task(t model.Task) {
	box := icon.Glyph("circle")
	titleStyle := v.style().Bold(true)
	if t.Completed {
		box = icon.Glyph("check-circle")
		titleStyle = v.r.NewStyle().Foreground(v.pal.muted).Strikethrough(true)
	}

	fmt.Fprintf(v.w, "%s %s  %s  %s  %s\n",
		box,
		titleStyle.Render(t.Title),
		v.priorityStyle(t.Priority).Render(string(t.Priority)),
		v.categoryStyle(t.CategoryID).Render(model.CategoryName(t.CategoryID)),
		v.r.NewStyle().Foreground(v.pal.muted).Render(shortID(t.ID)),
	)
	if t.Description != "" {
		fmt.Fprintf(v.w, "    %s\n", v.r.NewStyle().Foreground(v.pal.muted).Render(t.Description))
	}
	if t.DueDate != nil {
		fmt.Fprintf(v.w, "    %s Due: %s\n", icon.Glyph("clock"), t.DueDate.In(time.UTC).Format("Jan 2, 2006"))
	}
}

func (v *view) stats(st service.Stats) {
	fmt.Fprintf(v.w, "%s Total: %d\n", icon.Glyph("list"), st.Total)
	fmt.Fprintf(v.w, "%s Completed: %d\n", icon.Glyph("check-circle"), st.Completed)
	fmt.Fprintf(v.w, "%s Pending: %d\n", icon.Glyph("circle"), st.Pending)
}

func (v *view) categories(list []service.CategorySummary) {
	for _, c := range list {
		fmt.Fprintf(v.w, "%s %-10s %-10s %d\n",
			v.r.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●"),
			c.ID, c.Name, c.Count)
	}
}

// shortID is the prefix shown to users; any unique prefix is accepted back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func noticeLine(n service.Notice) string {
	var glyph string
	switch n.Level {
	case service.LevelSuccess:
		glyph = icon.Glyph("check")
	case service.LevelInfo:
		glyph = icon.Glyph("chevron-right")
	default:
		glyph = icon.Glyph("alert-triangle")
	}
	return strings.TrimSpace(glyph + " " + n.Message)
}
