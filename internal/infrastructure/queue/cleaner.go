package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deleteTimeout  = 10 * time.Second
)

// MediaCleaner removes media files in the background. URLs are sharded by
// hash so operations on one file are handled by a single worker.
type MediaCleaner struct {
	workers []chan string
	store   ports.MediaStore
	log     zerolog.Logger
}

// NewMediaCleaner creates a MediaCleaner with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMediaCleaner(numWorkers int, store ports.MediaStore, log zerolog.Logger) *MediaCleaner {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	c := &MediaCleaner{
		workers: make([]chan string, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range c.workers {
		c.workers[i] = make(chan string, channelBuffer)
	}
	return c
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (c *MediaCleaner) Start(ctx context.Context) {
	for i, ch := range c.workers {
		go c.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules mediaURL for removal. It never blocks; when the
// worker's buffer is full the file is left behind and a warning is logged.
func (c *MediaCleaner) Enqueue(mediaURL string) {
	select {
	case c.workers[c.shardIndex(mediaURL)] <- mediaURL:
	default:
		c.log.Warn().Str("media_url", mediaURL).Msg("media cleanup queue full, dropping")
	}
}

func (c *MediaCleaner) shardIndex(mediaURL string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mediaURL))
	return int(h.Sum32() % uint32(len(c.workers)))
}

func (c *MediaCleaner) runWorker(ctx context.Context, id int, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case url, ok := <-ch:
			if !ok {
				return
			}
			dctx, cancel := context.WithTimeout(ctx, deleteTimeout)
			err := c.store.Delete(dctx, url)
			cancel()
			if err != nil {
				c.log.Error().Err(err).
					Str("media_url", url).
					Int("worker_id", id).
					Msg("media cleanup failed")
				continue
			}
			c.log.Debug().Str("media_url", url).Int("worker_id", id).Msg("media removed")
		}
	}
}
