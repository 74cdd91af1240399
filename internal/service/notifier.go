package service

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Level is the severity of a user-facing notice.
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a short non-blocking message for the user.
type Notice struct {
	Level   Level
	Message string
}

// Notifier delivers notices to whatever view is active. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to the process log; success and info notices at debug level.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	entry := log.WithField("notice", n.Level.String())
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Debug(n.Message)
	}
}

// FanoutNotifier forwards every notice to all registered notifiers.
type FanoutNotifier struct {
	mu      sync.RWMutex
	targets []Notifier
}

func NewFanoutNotifier(targets ...Notifier) *FanoutNotifier {
	return &FanoutNotifier{targets: targets}
}

// Add registers another target, e.g. a view created after the store.
func (f *FanoutNotifier) Add(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, n)
}

func (f *FanoutNotifier) Notify(n Notice) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.targets {
		t.Notify(n)
	}
}
