package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmaster/internal/config"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeAPI) texts() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var parts []string
	for _, m := range f.sent {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n---\n")
}

type fixture struct {
	bot   *Bot
	api   *fakeAPI
	store *service.TaskStore
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()
	storage := repository.NewMemoryStorage()
	store, err := service.NewTaskStore(ctx, repository.NewTaskRepository(storage), service.LogNotifier{})
	require.NoError(t, err)

	api := &fakeAPI{}
	b := newBot(api, Services{
		Tasks:      service.NewTaskService(store),
		Categories: service.NewCategoryService(store),
		Theme:      service.NewThemeService(repository.NewSettingsRepository(storage), model.ThemeLight),
		Digest:     service.NewDigestService(store),
	}, cfg)
	b.now = func() time.Time { return time.Date(2025, time.November, 20, 12, 0, 0, 0, time.UTC) }
	return &fixture{bot: b, api: api, store: store}
}

func message(chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Alex"},
	}
	if strings.HasPrefix(text, "/") {
		length := strings.IndexByte(text, ' ')
		if length < 0 {
			length = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func (f *fixture) say(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.bot.handleMessage(context.Background(), message(1, text)))
}

func (f *fixture) callback(t *testing.T, data string) {
	t.Helper()
	cb := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "private"}},
		Data:    data,
	}
	require.NoError(t, f.bot.handleCallback(context.Background(), cb))
}

func TestNewTaskConversation(t *testing.T) {
	f := newFixture(t, &config.Config{})

	f.say(t, "/newtask")
	f.say(t, "Buy <milk>")
	f.say(t, btnSkip)
	f.say(t, "Shopping")
	f.say(t, "low")
	f.say(t, "2025-11-30")

	tasks := f.store.Tasks()
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, "Buy <milk>", got.Title)
	assert.Empty(t, got.Description)
	assert.Equal(t, "shopping", got.CategoryID)
	assert.Equal(t, model.PriorityLow, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-11-30", got.DueDate.String())

	all := f.api.texts()
	assert.Contains(t, all, "Task saved")
	assert.Contains(t, all, "Buy &lt;milk&gt;")
	assert.False(t, f.bot.hasConversation(1))

	last := f.api.last()
	markup, ok := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "task list carries inline buttons")
	require.Len(t, markup.InlineKeyboard, 1)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbTogglePrefix+got.ID, *markup.InlineKeyboard[0][0].CallbackData)
}

func TestConversationRejectsBadInput(t *testing.T) {
	f := newFixture(t, &config.Config{})

	f.say(t, "/newtask")
	f.say(t, "Pay rent")
	f.say(t, "-")
	f.say(t, "hobby")
	assert.Contains(t, f.api.last().Text, "Pick one of the categories")
	f.say(t, "work")
	f.say(t, "urgent")
	assert.Contains(t, f.api.last().Text, "low, medium or high")
	f.say(t, "high")
	f.say(t, "tomorrow")
	assert.Contains(t, f.api.last().Text, "cannot read that date")
	assert.Empty(t, f.store.Tasks())

	f.say(t, btnCancelDialog)
	assert.False(t, f.bot.hasConversation(1))
	assert.Empty(t, f.store.Tasks())
}

func seed(t *testing.T, f *fixture, title, category string) model.Task {
	t.Helper()
	task, err := service.BuildTask(service.TaskInput{Title: title, CategoryID: category}, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Add(context.Background(), task))
	return task
}

func TestToggleCommandAndCallback(t *testing.T) {
	f := newFixture(t, &config.Config{})
	task := seed(t, f, "Write report", "work")

	f.say(t, "/toggle "+task.ID[:6])
	got, _ := f.store.Get(task.ID)
	assert.True(t, got.Completed)
	assert.Contains(t, f.api.last().Text, "<s>Write report</s>")

	f.callback(t, cbTogglePrefix+task.ID)
	got, _ = f.store.Get(task.ID)
	assert.False(t, got.Completed)
	assert.Equal(t, 1, f.api.requests)

	f.say(t, "/toggle nope")
	assert.Equal(t, "Task not found.", f.api.last().Text)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t, &config.Config{})
	task := seed(t, f, "Old task", "personal")

	f.callback(t, cbDeletePrefix+task.ID)
	assert.Contains(t, f.api.last().Text, "Delete task")
	assert.Len(t, f.store.Tasks(), 1)

	f.callback(t, cbCancelPrefix+task.ID)
	assert.Len(t, f.store.Tasks(), 1)

	f.say(t, "/delete "+task.ID)
	f.say(t, "yes")
	assert.Empty(t, f.store.Tasks())
	assert.Contains(t, f.api.last().Text, "No tasks yet")

	f.callback(t, cbConfirmPrefix+task.ID)
	assert.Equal(t, "Task not found.", f.api.last().Text)
}

func TestStatsCategoriesAndFilter(t *testing.T) {
	f := newFixture(t, &config.Config{})
	seed(t, f, "Gym", "health")
	seed(t, f, "Ship release", "work")

	f.say(t, "/stats")
	assert.Contains(t, f.api.last().Text, "Total: 2")
	assert.Contains(t, f.api.last().Text, "Pending: 2")

	f.say(t, "/categories")
	assert.Contains(t, f.api.last().Text, "Health — 1")

	f.callback(t, cbFilterPrefix+"health")
	assert.Contains(t, f.api.last().Text, "Gym")
	assert.NotContains(t, f.api.last().Text, "Ship release")

	f.say(t, "/tasks shopping")
	assert.Contains(t, f.api.last().Text, "No tasks yet")

	f.say(t, "/tasks hobby")
	assert.Contains(t, f.api.last().Text, "Unknown category")
}

func TestThemeCommand(t *testing.T) {
	f := newFixture(t, &config.Config{})

	f.say(t, "/theme")
	assert.Contains(t, f.api.last().Text, "light")
	f.say(t, menuLabelTheme)
	assert.Contains(t, f.api.last().Text, "dark")
	f.say(t, "/theme light")
	assert.Contains(t, f.api.last().Text, "light")
	f.say(t, "/theme neon")
	assert.Contains(t, f.api.last().Text, "dark or light")
}

func TestOwnerRestriction(t *testing.T) {
	f := newFixture(t, &config.Config{OwnerChatID: 5})

	require.NoError(t, f.bot.handleMessage(context.Background(), message(6, "/stats")))
	assert.Zero(t, f.api.count())

	require.NoError(t, f.bot.handleMessage(context.Background(), message(5, "/stats")))
	assert.Equal(t, 1, f.api.count())
}

func TestNotifyNeverBlocks(t *testing.T) {
	f := newFixture(t, &config.Config{})
	for i := 0; i < noticeQueueSize*3; i++ {
		f.bot.Notify(service.Notice{Level: service.LevelSuccess, Message: "x"})
	}
	assert.Len(t, f.bot.notices, noticeQueueSize)

	// No chat yet, nothing is sent.
	f.bot.deliverNotice(<-f.bot.notices)
	assert.Zero(t, f.api.count())

	f.say(t, "/help")
	f.bot.deliverNotice(service.Notice{Level: service.LevelError, Message: "Could not save <tasks>"})
	assert.Contains(t, f.api.last().Text, "Could not save &lt;tasks&gt;")
}

func TestSendDigest(t *testing.T) {
	f := newFixture(t, &config.Config{})
	require.NoError(t, f.bot.SendDigest(context.Background()))
	assert.Zero(t, f.api.count(), "no chat known yet")

	f.bot.activeChat.Store(1)
	seed(t, f, "Water plants", "personal")
	require.NoError(t, f.bot.SendDigest(context.Background()))
	assert.Contains(t, f.api.last().Text, "Water plants")
	assert.Contains(t, f.api.last().Text, "Pending 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, f.bot.SendDigest(ctx))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "Hello…", shortTitle("Hello world", 6))
	assert.Equal(t, "Hi there", shortTitle(" Hi\nthere ", 20))

	id, ok := categoryFromInput("Work")
	assert.True(t, ok)
	assert.Equal(t, "work", id)
	id, ok = categoryFromInput(btnSkip)
	assert.True(t, ok)
	assert.Equal(t, service.DefaultCategoryID, id)
	_, ok = categoryFromInput("All Tasks")
	assert.False(t, ok)

	text, buttons := formatTaskList(model.AllCategoryID, nil, time.Now())
	assert.Contains(t, text, "All Tasks")
	assert.Nil(t, buttons)

	due := model.Date{Year: 2025, Month: time.November, Day: 1}
	overdue := model.Task{ID: "t1", Title: "Late", CategoryID: "work", Priority: model.PriorityHigh, DueDate: &due}
	line := formatTask(overdue, time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, line, "Due: Nov 1, 2025")
	assert.Contains(t, line, "overdue")
}
