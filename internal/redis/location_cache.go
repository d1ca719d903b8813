package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"camwatch/internal/domain"
)

// LocationCache pins the fuzzed location served to a role for a camera or marker. Serving
// the same point for the TTL stops a viewer from averaging many fresh samples back to the
// true location.
type LocationCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewLocationCache(r *Redis, ttl time.Duration) *LocationCache {
	return &LocationCache{
		client: r.Client,
		prefix: "location:public",
		ttl:    ttl,
	}
}

func (c *LocationCache) key(subjectID uuid.UUID, role domain.Role) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, subjectID, role)
}

// Get returns the cached location and whether it was present.
func (c *LocationCache) Get(ctx context.Context, subjectID uuid.UUID, role domain.Role) (domain.Location, bool, error) {
	var loc domain.Location

	data, err := c.client.Get(ctx, c.key(subjectID, role)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return loc, false, nil
		}
		return loc, false, err
	}
	if err := json.Unmarshal(data, &loc); err != nil {
		return loc, false, err
	}
	return loc, true, nil
}

func (c *LocationCache) Set(ctx context.Context, subjectID uuid.UUID, role domain.Role, loc domain.Location) error {
	b, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(subjectID, role), b, c.ttl).Err()
}

// Forget drops every cached location of a subject, used when it moves or is deleted.
func (c *LocationCache) Forget(ctx context.Context, subjectID uuid.UUID) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("%s:%s:*", c.prefix, subjectID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
