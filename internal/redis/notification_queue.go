package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"camwatch/internal/domain"
	"camwatch/pkg/e"
)

// NotificationQueue is a Redis list of pending notification intents. Producers LPUSH and
// the sender BRPOPs, so delivery is FIFO per queue.
type NotificationQueue struct {
	client *redis.Client
	key    string
}

func NewNotificationQueue(client *redis.Client, key string) *NotificationQueue {
	return &NotificationQueue{client: client, key: key}
}

// Notify enqueues intents in one round trip.
func (q *NotificationQueue) Notify(ctx context.Context, intents []domain.NotificationIntent) error {
	if len(intents) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(intents))
	for _, in := range intents {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		values = append(values, b)
	}
	return q.client.LPush(ctx, q.key, values...).Err()
}

// Requeue puts a failed intent back at the tail with its attempt counter raised.
func (q *NotificationQueue) Requeue(ctx context.Context, in domain.NotificationIntent) error {
	in.Attempts++
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// DeadLetter parks an intent that exhausted its retries.
func (q *NotificationQueue) DeadLetter(ctx context.Context, in domain.NotificationIntent) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key+":dead", b).Err()
}

func (q *NotificationQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.NotificationIntent, error) {
	var in domain.NotificationIntent

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return in, e.ErrQueueEmpty
		}
		return in, err
	}
	if len(res) < 2 {
		return in, e.ErrQueueEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &in); err != nil {
		return in, err
	}
	return in, nil
}

func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
