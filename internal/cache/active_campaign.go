package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kkkkikiki/promo/internal/metrics"
	"github.com/kkkkikiki/promo/internal/model"
	"github.com/kkkkikiki/promo/internal/repository"
)

const (
	activeCampaignKey = "promo:campaign:active"
	// activeGenerationKey is bumped by every invalidation
	activeGenerationKey = "promo:campaign:active:gen"
)

// noneMarker records "no campaign is active" so misses are cached too
const noneMarker = "none"

// fillScript writes the entry only while the generation still matches the one read
// before the store lookup. A missing generation key reads as "".
var fillScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if (gen == false and ARGV[1] == "") or gen == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// ActiveCampaignCache is a read-through Redis cache for the active campaign lookup.
// Redis failures are logged and the lookup falls through to the store.
type ActiveCampaignCache struct {
	client *redis.Client
	store  repository.ActiveFinder
	ttl    time.Duration
	logger *zap.Logger
}

// NewActiveCampaignCache wraps store with a cache whose entries live for ttl
func NewActiveCampaignCache(client *redis.Client, store repository.ActiveFinder, ttl time.Duration, logger *zap.Logger) *ActiveCampaignCache {
	return &ActiveCampaignCache{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// FindActive serves from Redis when the cached entry is still valid at now
func (c *ActiveCampaignCache) FindActive(ctx context.Context, now time.Time) (*model.Campaign, error) {
	raw, err := c.client.Get(ctx, activeCampaignKey).Bytes()
	switch {
	case err == nil:
		if string(raw) == noneMarker {
			metrics.RecordCacheLookup("hit")
			return nil, nil
		}
		var campaign model.Campaign
		if jsonErr := json.Unmarshal(raw, &campaign); jsonErr == nil && campaign.LiveAt(now) {
			metrics.RecordCacheLookup("hit")
			return &campaign, nil
		}
		// Undecodable or its window closed since it was cached
		metrics.RecordCacheLookup("stale")
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		c.logger.Warn("active campaign cache read failed", zap.Error(err))
		return c.store.FindActive(ctx, now)
	}

	gen, err := c.client.Get(ctx, activeGenerationKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("active campaign generation read failed", zap.Error(err))
		return c.store.FindActive(ctx, now)
	}

	campaign, err := c.store.FindActive(ctx, now)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, campaign, now, gen)
	return campaign, nil
}

// fill caches campaign unless an invalidation happened after gen was read
func (c *ActiveCampaignCache) fill(ctx context.Context, campaign *model.Campaign, now time.Time, gen string) {
	value := []byte(noneMarker)
	ttl := c.ttl
	if campaign != nil {
		encoded, err := json.Marshal(campaign)
		if err != nil {
			c.logger.Warn("failed to encode active campaign", zap.Error(err))
			return
		}
		value = encoded
		// Never keep the entry past the end of the campaign window
		if untilEnd := campaign.EndDate.Sub(now); untilEnd < ttl {
			ttl = untilEnd
		}
	}
	if ttl < time.Millisecond {
		return
	}
	written, err := fillScript.Run(ctx, c.client, []string{activeCampaignKey, activeGenerationKey},
		gen, value, ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("active campaign cache write failed", zap.Error(err))
		return
	}
	if written == 0 {
		c.logger.Debug("active campaign cache fill skipped after invalidation")
	}
}

// Invalidate drops the cached entry and bumps the generation so lookups already
// in flight cannot write back what they read before the change
func (c *ActiveCampaignCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, activeGenerationKey)
		pipe.Del(ctx, activeCampaignKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("active campaign cache invalidation failed", zap.Error(err))
	}
}
