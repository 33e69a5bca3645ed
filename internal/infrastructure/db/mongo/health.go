package mongo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Health is the process-wide "is the datastore currently reachable" flag.
// It is set on the initial connect attempt, kept fresh by a background
// pinger, and injected into the handlers that degrade gracefully (global
// stats, readiness) instead of being read from an ambient global.
type Health struct {
	reachable atomic.Bool
}

// NewHealth returns a flag initialised to the given state.
func NewHealth(reachable bool) *Health {
	h := &Health{}
	h.reachable.Store(reachable)
	return h
}

// Reachable reports the last observed datastore state.
func (h *Health) Reachable() bool {
	return h.reachable.Load()
}

// Set records a connect/disconnect observation.
func (h *Health) Set(reachable bool) {
	h.reachable.Store(reachable)
}

// Watch pings the datastore at the given interval and updates the flag,
// logging transitions. It blocks until ctx is cancelled.
func (h *Health) Watch(ctx context.Context, client *mongo.Client, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := client.Ping(pingCtx, nil)
			cancel()

			was := h.reachable.Load()
			now := err == nil
			if was != now {
				if now {
					log.Info().Msg("mongodb reachable again")
				} else {
					log.Warn().Err(err).Msg("mongodb unreachable")
				}
			}
			h.reachable.Store(now)
		}
	}
}
