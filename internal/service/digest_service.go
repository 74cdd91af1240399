package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taskmaster/internal/icon"
	"taskmaster/internal/model"
)

// dueSoonWindow marks tasks due within two days.
const dueSoonWindow = 48 * time.Hour

// DigestService builds human-readable summaries of open tasks.
type DigestService struct {
	store *TaskStore
}

func NewDigestService(store *TaskStore) *DigestService {
	return &DigestService{store: store}
}

// Summary lists pending tasks by due date (undated last, newest first) followed by the stats line.
func (s *DigestService) Summary(now time.Time) string {
	var pending []model.Task
	for _, t := range s.store.Tasks() {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	SortByDueDate(pending)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s Daily digest\n", icon.Glyph("list")))
	builder.WriteString(fmt.Sprintf("%s\n\n", now.Format("Monday, January 2, 2006")))

	if len(pending) == 0 {
		builder.WriteString("No pending tasks. Enjoy your day!\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatDigestTask(task, now))
		}
	}

	st := s.store.Stats()
	builder.WriteString(fmt.Sprintf("\nTotal %d · Completed %d · Pending %d", st.Total, st.Completed, st.Pending))
	return strings.TrimSpace(builder.String())
}

// SortByDueDate orders tasks by due date ascending; tasks without one keep their list order at the end.
func SortByDueDate(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		default:
			return a.Before(*b)
		}
	})
}

// DueStatus classifies a due date relative to now.
type DueStatus int

const (
	DueNone DueStatus = iota
	DueLater
	DueSoon
	DueOverdue
)

// StatusOf reports whether the task is overdue, due soon, or neither.
func StatusOf(task model.Task, now time.Time) DueStatus {
	if task.DueDate == nil {
		return DueNone
	}
	today := model.DateOf(now)
	if task.DueDate.Before(today) {
		return DueOverdue
	}
	if task.DueDate.In(now.Location()).Sub(now) <= dueSoonWindow {
		return DueSoon
	}
	return DueLater
}

func statusIcon(st DueStatus) icon.Icon {
	switch st {
	case DueOverdue:
		return icon.AlertTriangle
	case DueSoon:
		return icon.Clock
	default:
		return icon.Circle
	}
}

func formatDigestTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	st := StatusOf(task, now)
	sb.WriteString(fmt.Sprintf("%s %s [%s] (%s)", statusIcon(st).Glyph(), strings.TrimSpace(task.Title), task.Priority, model.CategoryName(task.CategoryID)))

	if task.DueDate != nil {
		if st == DueOverdue {
			sb.WriteString(fmt.Sprintf("\n   due %s, overdue", task.DueDate))
		} else {
			daysLeft := int(task.DueDate.In(now.Location()).Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   due %s, ≈%d day(s) left", task.DueDate, daysLeft))
		}
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   %s", strings.TrimSpace(task.Description)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
