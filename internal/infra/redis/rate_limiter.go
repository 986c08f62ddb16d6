package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts calls per key in aligned windows. Each window has its own key, so a
// counter whose expiry was never set cannot block the key beyond its window.
type RateLimiter struct {
	client Client
	prefix string
	now    func() time.Time
}

func NewRateLimiter(client Client, appName string) *RateLimiter {
	return &RateLimiter{client: client, prefix: appName + ":rate_limit:", now: time.Now}
}

// Allow reports whether one more call under key fits in limit calls per window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	bucket := r.now().UnixNano() / int64(window)
	windowKey := fmt.Sprintf("%s%s:%d", r.prefix, key, bucket)

	count, err := r.client.Incr(ctx, windowKey)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, windowKey, 2*window); err != nil {
			return false, fmt.Errorf("rate limit %s: %w", key, err)
		}
	}
	return count <= int64(limit), nil
}

// ChatActionKey scopes a budget to one chat and one kind of action (command, callback).
func ChatActionKey(chatID int64, action string) string {
	return fmt.Sprintf("%d:%s", chatID, action)
}
