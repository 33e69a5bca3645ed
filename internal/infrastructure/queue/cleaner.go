package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Cleaner routes artifact deletions to a fixed set of workers using
// consistent hashing on the owner id, so deletes for one owner are applied
// in the order they were requested. Deletion is idempotent and best-effort;
// failures are logged, never surfaced.
type Cleaner struct {
	workers []chan string
	store   ports.ArtifactStore
	log     zerolog.Logger
}

// NewCleaner creates a Cleaner with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleaner(numWorkers int, store ports.ArtifactStore, log zerolog.Logger) *Cleaner {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	c := &Cleaner{
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
func (c *Cleaner) Start(ctx context.Context) {
	for i, ch := range c.workers {
		go c.runWorker(ctx, i, ch)
	}
}

// Enqueue submits one artifact path for deletion on the owner's shard.
// Empty paths (records whose artifact was never retained) are dropped here.
// When the shard's buffer is full the delete happens inline instead of
// blocking the request.
func (c *Cleaner) Enqueue(ownerID, publicPath string) {
	if publicPath == "" {
		return
	}
	select {
	case c.workers[c.shardIndex(ownerID)] <- publicPath:
	default:
		c.store.RemoveArtifact(publicPath)
	}
}

// shardIndex maps an owner id deterministically to a worker index.
func (c *Cleaner) shardIndex(ownerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return int(h.Sum32()) % len(c.workers)
}

func (c *Cleaner) runWorker(ctx context.Context, id int, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-ch:
			if !ok {
				return
			}
			c.store.RemoveArtifact(path)
			c.log.Debug().Str("path", path).Int("worker_id", id).Msg("artifact removed")
		}
	}
}
