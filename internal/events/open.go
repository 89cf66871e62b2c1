package events

import (
	"context"

	"github.com/example/studyplanner/internal/logger"
)

// Open returns a Redis bus when redisAddr is set and an in-process bus otherwise.
func Open(ctx context.Context, log *logger.Logger, redisAddr, channel string) (Bus, error) {
	if redisAddr == "" {
		log.Info("using in-process event bus")
		return NewMemoryBus(log), nil
	}
	b, err := NewRedisBus(ctx, log, redisAddr, channel)
	if err != nil {
		return nil, err
	}
	log.Info("using redis event bus", "addr", redisAddr, "channel", b.channel)
	return b, nil
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
