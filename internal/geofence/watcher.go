package geofence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storypath/storypath-cli/internal/codec"
)

// SubscriptionConfig mirrors the device geolocation subscription settings:
// high accuracy, a minimum time between updates and a minimum displacement.
type SubscriptionConfig struct {
	MinInterval       rate.Limit // updates per second; 0 disables the time filter
	MinDistanceMeters float64
}

// DefaultSubscription is the 5 second / 5 meter device filter.
func DefaultSubscription() SubscriptionConfig {
	return SubscriptionConfig{
		MinInterval:       rate.Every(5 * time.Second),
		MinDistanceMeters: 5,
	}
}

// Watcher consumes a raw position stream and re-applies the subscription
// filter. Device streams can deliver bursty or duplicated updates after a
// wake-up; the watcher guarantees downstream consumers see at most one update
// per interval and only after meaningful movement. Arrival order is the only
// ordering assumed.
type Watcher struct {
	cfg     SubscriptionConfig
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewWatcher creates a Watcher with the given filter settings.
func NewWatcher(cfg SubscriptionConfig, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(cfg.MinInterval, 1)
	}
	return &Watcher{cfg: cfg, limiter: limiter, log: log}
}

// Watch filters src until ctx is cancelled or src closes, then closes the
// returned channel. The first position always passes. Cancelling ctx is the
// subscription teardown; the goroutine never outlives it.
func (w *Watcher) Watch(ctx context.Context, src <-chan codec.Coordinate) <-chan codec.Coordinate {
	out := make(chan codec.Coordinate, 1)

	go func() {
		defer close(out)
		var last *codec.Coordinate

		for {
			select {
			case <-ctx.Done():
				return
			case pos, ok := <-src:
				if !ok {
					return
				}
				if last != nil && DistanceMeters(*last, pos) < w.cfg.MinDistanceMeters {
					continue
				}
				if w.limiter != nil && !w.limiter.Allow() {
					continue
				}
				p := pos
				last = &p

				select {
				case out <- pos:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
