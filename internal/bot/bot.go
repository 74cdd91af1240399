package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taskmaster/internal/config"
	"taskmaster/internal/icon"
	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageDueDate
)

const (
	cbTogglePrefix  = "toggle:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
	cbFilterPrefix  = "filter:"
)

const (
	btnSkip             = "⏭️ Skip"
	btnConfirm          = "✅ Confirm"
	btnCancel           = "↩️ Cancel"
	btnCancelDialog     = "⏪ Stop input"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelCategories = "📂 Categories"
	menuLabelStats      = "📊 Stats"
	menuLabelTheme      = "🌓 Theme"
	menuLabelHelp       = "ℹ️ Help"
)

// noticeQueueSize bounds pending toasts; older ones are dropped when full.
const noticeQueueSize = 3

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the core operations the bot renders.
type Services struct {
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Theme      *service.ThemeService
	Digest     *service.DigestService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           sender
	poller        *tgbotapi.BotAPI
	svc           Services
	config        *config.Config
	conversations map[int64]*conversationState
	confirmations map[int64]string
	activeChat    atomic.Int64
	notices       chan service.Notice
	mu            sync.Mutex
	now           func() time.Time
}

func New(token string, svc Services, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, svc, cfg)
	b.poller = api
	return b, nil
}

func newBot(api sender, svc Services, cfg *config.Config) *Bot {
	b := &Bot{
		api:           api,
		svc:           svc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
		notices:       make(chan service.Notice, noticeQueueSize),
		now:           time.Now,
	}
	if cfg != nil && cfg.OwnerChatID != 0 {
		b.activeChat.Store(cfg.OwnerChatID)
	}
	return b
}

// Notify queues a toast for the chat that last talked to the bot. It never blocks.
func (b *Bot) Notify(n service.Notice) {
	select {
	case b.notices <- n:
	default:
		log.Warnf("dropping notice %q: queue full", n.Message)
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()
	go b.deliverNotices(ctx)

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) deliverNotices(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.notices:
			b.deliverNotice(n)
		}
	}
}

func (b *Bot) deliverNotice(n service.Notice) {
	chatID := b.activeChat.Load()
	if chatID == 0 {
		return
	}
	if err := b.sendText(chatID, noticeText(n)); err != nil {
		log.Printf("send notice: %v", err)
	}
}

// allowed restricts the bot to the owner chat when one is configured.
func (b *Bot) allowed(chatID int64) bool {
	if b.config == nil || b.config.OwnerChatID == 0 {
		return true
	}
	return chatID == b.config.OwnerChatID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	if !b.allowed(msg.Chat.ID) {
		log.Printf("[info] ignoring chat %d", msg.Chat.ID)
		return nil
	}
	b.activeChat.Store(msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task entry cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if taskID, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, taskID)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		category := strings.ToLower(args)
		if category == "" {
			category = model.AllCategoryID
		}
		return b.sendTaskList(msg.Chat.ID, category)
	case "toggle", "complete":
		if args == "" {
			return b.sendText(msg.Chat.ID, "Give me the task id: /toggle 3f2a")
		}
		return b.toggleTaskAndRefresh(ctx, msg.Chat.ID, args)
	case "delete":
		if args == "" {
			return b.sendText(msg.Chat.ID, "Give me the task id: /delete 3f2a")
		}
		return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, args)
	case "stats":
		return b.sendText(msg.Chat.ID, formatStats(b.svc.Tasks.Stats()))
	case "categories":
		return b.handleCategories(msg.Chat.ID)
	case "theme":
		return b.handleTheme(ctx, msg.Chat.ID, args)
	case "report":
		return b.sendText(msg.Chat.ID, escape(b.svc.Digest.Summary(b.now())))
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task entry cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /newtask — add a task step by step\n" +
	"• /tasks [category] — list tasks, tap a button to toggle\n" +
	"• /toggle &lt;id&gt; — mark a task completed or pending\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /stats — total, completed and pending\n" +
	"• /categories — categories with task counts\n" +
	"• /theme [dark|light] — show or switch the theme\n" +
	"• /report — digest of pending tasks\n" +
	"• /cancel — stop the current input"

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>TaskMaster keeps your to-do list.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. What should the task be called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or tap Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category.", categoryKeyboard())
	case stageCategory:
		id, ok := categoryFromInput(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the categories below.", categoryKeyboard())
		}
		state.input.CategoryID = id
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡ Priority?", priorityKeyboard())
	case stagePriority:
		p := model.PriorityMedium
		if !isSkipInput(text) {
			parsed, err := model.ParsePriority(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Priority is low, medium or high.", priorityKeyboard())
			}
			p = parsed
		}
		state.input.Priority = string(p)
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2025-11-30</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			if _, err := model.ParseDate(text); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-11-30</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = text
		}
		err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.svc.Tasks.CreateTask(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task created id=%s category=%s", task.ID, task.CategoryID)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", shortID(task.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(model.CategoryName(task.CategoryID))))
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", task.DueDate))
	}

	if err := b.sendText(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(chatID, model.AllCategoryID)
}

func (b *Bot) handleCategories(chatID int64) error {
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, c := range b.svc.Categories.List() {
		builder.WriteString(fmt.Sprintf("• %s — %d\n", escape(c.Name), c.Count))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%d)", c.Name, c.Count), cbFilterPrefix+c.ID),
		))
	}
	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleTheme(ctx context.Context, chatID int64, arg string) error {
	var (
		theme model.Theme
		err   error
	)
	switch strings.ToLower(arg) {
	case "":
		theme, err = b.svc.Theme.Current(ctx)
	case "toggle":
		theme, err = b.svc.Theme.Toggle(ctx)
	default:
		theme, err = model.ParseTheme(arg)
		if err != nil {
			return b.sendText(chatID, "Theme is dark or light.")
		}
		err = b.svc.Theme.Set(ctx, theme)
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Theme error: %s", escape(err.Error())))
	}
	glyph := icon.Glyph("sun")
	if theme == model.ThemeDark {
		glyph = icon.Glyph("moon")
	}
	return b.sendText(chatID, fmt.Sprintf("%s Theme: <b>%s</b>", glyph, theme))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, taskID string) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Nothing deleted.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

// SendDigest sends the pending task digest to the active chat.
func (b *Bot) SendDigest(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := b.activeChat.Load()
	if chatID == 0 {
		return nil
	}
	return b.sendText(chatID, escape(b.svc.Digest.Summary(b.now())))
}

func (b *Bot) sendTaskList(chatID int64, categoryID string) error {
	tasks, err := b.svc.Tasks.ListTasks(categoryID)
	if err != nil {
		return b.sendText(chatID, "Unknown category. See /categories.")
	}

	text, buttons := formatTaskList(categoryID, tasks, b.now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
	chatID := cb.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}
	b.activeChat.Store(chatID)

	data := cb.Data
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggleTaskAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(chatID, cb.From.ID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbConfirmPrefix):
		b.clearConfirmation(cb.From.ID)
		return b.deleteTaskAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		b.clearConfirmation(cb.From.ID)
		return nil
	case strings.HasPrefix(data, cbFilterPrefix):
		return b.sendTaskList(chatID, strings.TrimPrefix(data, cbFilterPrefix))
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, ref string) error {
	task, err := b.svc.Tasks.GetTask(ref)
	if err != nil {
		return b.sendText(chatID, lookupErrorText(err))
	}
	b.setConfirmation(userID, task.ID)

	text := fmt.Sprintf("Delete task \"%s\" (<code>%s</code>)?", escape(task.Title), shortID(task.ID))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnConfirm, cbConfirmPrefix+task.ID),
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancelPrefix+task.ID),
	))
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) toggleTaskAndRefresh(ctx context.Context, chatID int64, ref string) error {
	task, err := b.svc.Tasks.ToggleTask(ctx, ref)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrAmbiguous) {
			return b.sendText(chatID, lookupErrorText(err))
		}
		// Save failures already reached the user as a notice.
		return err
	}
	log.Printf("[info] task toggled id=%s completed=%t", task.ID, task.Completed)
	return b.sendTaskList(chatID, model.AllCategoryID)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, ref string) error {
	task, err := b.svc.Tasks.DeleteTask(ctx, ref)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrAmbiguous) {
			return b.sendText(chatID, lookupErrorText(err))
		}
		return err
	}
	log.Printf("[info] task deleted id=%s", task.ID)
	return b.sendTaskList(chatID, model.AllCategoryID)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(msg.Chat.ID, model.AllCategoryID)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(msg.Chat.ID)
	case strings.ToLower(menuLabelStats):
		return true, b.sendText(msg.Chat.ID, formatStats(b.svc.Tasks.Stats()))
	case strings.ToLower(menuLabelTheme):
		return true, b.handleTheme(ctx, msg.Chat.ID, "toggle")
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.confirmations[userID]
	return id, ok
}

func (b *Bot) setConfirmation(userID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = taskID
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	return html.EscapeString(s)
}
