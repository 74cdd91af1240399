package repository

import (
	"context"
	"fmt"
	"sync"
)

// Storage is a durable string key/value store, the local storage of the app.
type Storage interface {
	// Get returns the value for key; found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a storage backend.
type Options struct {
	Driver      string
	DatabaseURL string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		db, err := NewDB(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStorage(db), nil
	case DriverRedis:
		return NewRedisStorage(ctx, opts.RedisAddr, opts.RedisPrefix)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// MemoryStorage keeps values in process memory.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Close() error { return nil }
