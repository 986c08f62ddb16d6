//go:build !integration

package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// memClient is an in-memory Client with expiry driven by an adjustable clock.
type memClient struct {
	mu      sync.Mutex
	now     time.Time
	values  map[string]string
	expires map[string]time.Time
	fail    error
}

var _ Client = (*memClient)(nil)

func newMemClient() *memClient {
	return &memClient{
		now:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		values:  map[string]string{},
		expires: map[string]time.Time{},
	}
}

func (m *memClient) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *memClient) live(key string) (string, bool) {
	v, ok := m.values[key]
	if !ok {
		return "", false
	}
	if exp, ok := m.expires[key]; ok && !m.now.Before(exp) {
		delete(m.values, key)
		delete(m.expires, key)
		return "", false
	}
	return v, true
}

func (m *memClient) Ping(ctx context.Context) error { return m.fail }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprint(v)
	}
	delete(m.expires, key)
	if expiration > 0 {
		m.expires[key] = m.now.Add(expiration)
	}
	return nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	v, ok := m.live(key)
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	if m.fail != nil {
		m.mu.Unlock()
		return false, m.fail
	}
	_, exists := m.live(key)
	m.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, m.Set(ctx, key, value, expiration)
}

func (m *memClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	v, _ := m.live(key)
	var n int64
	if v != "" {
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, errors.New("value is not an integer")
		}
	}
	n++
	m.values[key] = fmt.Sprint(n)
	return n, nil
}

func (m *memClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.live(key); ok {
		m.expires[key] = m.now.Add(expiration)
	}
	return nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, k := range keys {
		delete(m.values, k)
		delete(m.expires, k)
	}
	return nil
}

func (m *memClient) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	if v, ok := m.live(key); ok && v == value {
		delete(m.values, key)
		delete(m.expires, key)
		return true, nil
	}
	return false, nil
}

func (m *memClient) Close() error { return nil }
