package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-live/models"
	"github.com/redis/go-redis/v9"
)

// TimelineCache — короткоживущий кэш собранных таймлайнов события.
// Используется только для публичной выдачи; промах или недоступный
// Redis означают сборку заново, а не ошибку запроса.
type TimelineCache interface {
	Get(ctx context.Context, eventID int) (*models.EventTimeline, bool)
	Set(ctx context.Context, eventID int, timeline *models.EventTimeline)
	Invalidate(ctx context.Context, eventID int) error
}

const defaultTimelineTTL = 15 * time.Second

type redisTimelineCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTimelineCache(client *redis.Client, ttl time.Duration) TimelineCache {
	if ttl <= 0 {
		ttl = defaultTimelineTTL
	}
	return &redisTimelineCache{client: client, ttl: ttl}
}

func timelineKey(eventID int) string {
	return fmt.Sprintf("timeline:event:%d", eventID)
}

func (c *redisTimelineCache) Get(ctx context.Context, eventID int) (*models.EventTimeline, bool) {
	data, err := c.client.Get(ctx, timelineKey(eventID)).Bytes()
	if err != nil {
		return nil, false
	}
	var timeline models.EventTimeline
	if err := json.Unmarshal(data, &timeline); err != nil {
		return nil, false
	}
	return &timeline, true
}

func (c *redisTimelineCache) Set(ctx context.Context, eventID int, timeline *models.EventTimeline) {
	data, err := json.Marshal(timeline)
	if err != nil {
		return
	}
	c.client.Set(ctx, timelineKey(eventID), data, c.ttl)
}

func (c *redisTimelineCache) Invalidate(ctx context.Context, eventID int) error {
	err := c.client.Del(ctx, timelineKey(eventID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// noopTimelineCache применяется, когда REDIS_ADDR не задан.
type noopTimelineCache struct{}

func NewNoopTimelineCache() TimelineCache { return noopTimelineCache{} }

func (noopTimelineCache) Get(context.Context, int) (*models.EventTimeline, bool) { return nil, false }
func (noopTimelineCache) Set(context.Context, int, *models.EventTimeline)        {}
func (noopTimelineCache) Invalidate(context.Context, int) error                  { return nil }
