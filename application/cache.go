package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "statuslookup:application:"

// CachedRepository is a read-through redis cache in front of another Finder.
// Only found records are cached; misses always reach the inner finder.
type CachedRepository struct {
	inner  Finder
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps inner with a redis cache whose entries live for ttl.
func NewCachedRepository(inner Finder, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

type cachedRecord struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
	LastUpdated  string `json:"lastUpdated"`
}

// Find serves id from redis when present, otherwise from the inner finder.
// Redis failures are logged and treated as misses.
func (c *CachedRepository) Find(ctx context.Context, id string) (Record, error) {
	key := cacheKeyPrefix + id

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if rec, ok := decodeCached(raw); ok {
			return rec, nil
		}
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	rec, err := c.inner.Find(ctx, id)
	if err != nil {
		return Record{}, err
	}

	payload, err := json.Marshal(cachedRecord{
		SubmissionID: rec.SubmissionID,
		Status:       rec.Status,
		LastUpdated:  rec.LastUpdatedDate(),
	})
	if err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rec, nil
}

func decodeCached(raw []byte) (Record, bool) {
	var cr cachedRecord
	if err := json.Unmarshal(raw, &cr); err != nil {
		return Record{}, false
	}
	updated, err := time.Parse(DateLayout, cr.LastUpdated)
	if err != nil {
		return Record{}, false
	}
	return Record{SubmissionID: cr.SubmissionID, Status: cr.Status, LastUpdated: updated}, true
}
