package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/icon"
	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

func formatTaskList(categoryID string, tasks []model.Task, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	title := "All Tasks"
	if c, ok := model.LookupCategory(categoryID); ok {
		title = c.Name
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <b>%s</b> (%d)\n\n", icon.Glyph("list"), escape(title), len(tasks)))
	if len(tasks) == 0 {
		builder.WriteString(fmt.Sprintf("%s No tasks yet. Add your first task with /newtask!", icon.Glyph("plus")))
		return builder.String(), nil
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now))

		toggleLabel := fmt.Sprintf("%s %s", icon.Glyph("check"), shortTitle(task.Title, 24))
		if task.Completed {
			toggleLabel = fmt.Sprintf("%s %s", icon.Glyph("circle"), shortTitle(task.Title, 24))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData(icon.Glyph("trash-2"), cbDeletePrefix+task.ID),
		))
	}
	return strings.TrimSpace(builder.String()), buttons
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	box := icon.Glyph("circle")
	title := escape(strings.TrimSpace(task.Title))
	if task.Completed {
		box = icon.Glyph("check-circle")
		title = "<s>" + title + "</s>"
	}
	sb.WriteString(fmt.Sprintf("%s %s · <i>%s</i> · %s · <code>%s</code>",
		box, title, task.Priority, escape(model.CategoryName(task.CategoryID)), shortID(task.ID)))

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   %s", escape(strings.TrimSpace(task.Description))))
	}
	if task.DueDate != nil {
		due := task.DueDate.In(time.UTC).Format("Jan 2, 2006")
		if !task.Completed && service.StatusOf(task, now) == service.DueOverdue {
			sb.WriteString(fmt.Sprintf("\n   %s Due: %s — <b>overdue</b>", icon.Glyph("alert-triangle"), due))
		} else {
			sb.WriteString(fmt.Sprintf("\n   %s Due: %s", icon.Glyph("clock"), due))
		}
	}

	sb.WriteString("\n\n")
	return sb.String()
}

func formatStats(st service.Stats) string {
	return fmt.Sprintf("📊 <b>Stats</b>\n%s Total: %d\n%s Completed: %d\n%s Pending: %d",
		icon.Glyph("list"), st.Total,
		icon.Glyph("check-circle"), st.Completed,
		icon.Glyph("circle"), st.Pending)
}

func noticeText(n service.Notice) string {
	var glyph string
	switch n.Level {
	case service.LevelSuccess:
		glyph = icon.Glyph("check")
	case service.LevelInfo:
		glyph = icon.Glyph("chevron-right")
	default:
		glyph = icon.Glyph("alert-triangle")
	}
	return glyph + " " + escape(n.Message)
}

func lookupErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrAmbiguous):
		return "That id matches several tasks, type a few more characters."
	case errors.Is(err, service.ErrNotFound):
		return "Task not found."
	default:
		return fmt.Sprintf("Error: %s", escape(err.Error()))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// categoryFromInput accepts a category id or display name.
func categoryFromInput(text string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if isSkipInput(text) {
		return service.DefaultCategoryID, true
	}
	for _, c := range model.AssignableCategories() {
		if norm == c.ID || norm == strings.ToLower(c.Name) {
			return c.ID, true
		}
	}
	return "", false
}

func isSkipInput(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	return norm == strings.ToLower(btnSkip) || norm == "skip" || norm == "-"
}

func isCancelDialogInput(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), btnCancelDialog)
}

func isConfirmInput(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	return norm == strings.ToLower(btnConfirm) || norm == "yes" || norm == "y"
}

func isCancelInput(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	return norm == strings.ToLower(btnCancel) || norm == "no" || norm == "n"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCategories),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTheme),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, c := range model.AssignableCategories() {
		row = append(row, tgbotapi.NewKeyboardButton(c.Name))
	}
	kb := tgbotapi.NewReplyKeyboard(row, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityLow)),
			tgbotapi.NewKeyboardButton(string(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
