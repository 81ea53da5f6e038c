package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"audioforge/logger"
	"audioforge/model"
)

// fileCacheTTL bounds staleness of cached audio-file metadata.
const fileCacheTTL = 5 * time.Minute

// AudioFileCache caches audio-file metadata in Redis in front of the
// store, used on the hot stream path. All methods are nil-safe so the
// server can run without Redis configured.
type AudioFileCache struct {
	client *redis.Client
}

// NewAudioFileCache wraps the given Redis client. A nil client yields a
// cache whose lookups always miss.
func NewAudioFileCache(client *redis.Client) *AudioFileCache {
	if client == nil {
		return nil
	}
	return &AudioFileCache{client: client}
}

func fileKey(id string) string {
	return fmt.Sprintf("audiofile:%s", id)
}

// Get returns the cached record or (nil, nil) on a miss.
func (c *AudioFileCache) Get(ctx context.Context, id string) (*model.AudioFile, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, fileKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file %s from cache: %w", id, err)
	}

	var file model.AudioFile
	if err := json.Unmarshal([]byte(data), &file); err != nil {
		// Corrupt entry; drop it and treat as a miss.
		c.client.Del(ctx, fileKey(id))
		return nil, nil
	}
	return &file, nil
}

// Set stores the record with the cache TTL. Failures are logged, not
// returned; the cache is best-effort.
func (c *AudioFileCache) Set(ctx context.Context, file *model.AudioFile) {
	if c == nil || file == nil {
		return
	}
	data, err := json.Marshal(file)
	if err != nil {
		logger.Warn("failed to marshal audio file for cache",
			logger.String("fileId", file.ID), logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, fileKey(file.ID), data, fileCacheTTL).Err(); err != nil {
		logger.Warn("failed to cache audio file",
			logger.String("fileId", file.ID), logger.ErrorField(err))
	}
}

// Invalidate drops the cache entry for the given file id.
func (c *AudioFileCache) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, fileKey(id)).Err(); err != nil {
		logger.Warn("failed to invalidate cached audio file",
			logger.String("fileId", id), logger.ErrorField(err))
	}
}

// InvalidateByStoredName drops the entry whose stored filename matches.
// Used by the uploads watcher, which only sees filesystem names. The
// reverse index is maintained by SetNameIndex.
func (c *AudioFileCache) InvalidateByStoredName(ctx context.Context, filename string) {
	if c == nil {
		return
	}
	id, err := c.client.Get(ctx, nameKey(filename)).Result()
	if err != nil {
		return
	}
	c.Invalidate(ctx, id)
	c.client.Del(ctx, nameKey(filename))
}

// SetNameIndex records the stored-filename→id mapping for the watcher.
func (c *AudioFileCache) SetNameIndex(ctx context.Context, filename, id string) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, nameKey(filename), id, 0).Err(); err != nil {
		logger.Warn("failed to index cached audio file name",
			logger.String("filename", filename), logger.ErrorField(err))
	}
}

func nameKey(filename string) string {
	return fmt.Sprintf("audiofile:name:%s", filename)
}
