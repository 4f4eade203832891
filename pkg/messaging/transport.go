// Package messaging carries notification payloads between producers and the
// dashboard. A Transport is either durable (Redis), process-local (memory) or
// degraded, in which case every operation is a no-op.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/university-api/pkg/logger"
	"github.com/jwalitptl/university-api/pkg/messaging/memory"
	"github.com/jwalitptl/university-api/pkg/messaging/redis"
)

const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
	DriverNone   = "none"

	DefaultQueue          = "university:notifications"
	DefaultReceiveTimeout = time.Second
)

// Transport is a FIFO of opaque payloads safe for concurrent producers.
type Transport interface {
	Enqueue(ctx context.Context, payload []byte) error
	// Dequeue waits up to timeout. ok is false when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (payload []byte, ok bool, err error)
	Degraded() bool
	Close() error
}

// Sequencer is implemented by transports that can allocate notification ids.
type Sequencer interface {
	NextID(ctx context.Context) (int64, error)
}

// Depther is implemented by transports that can report how many messages wait.
type Depther interface {
	Depth(ctx context.Context) (int64, error)
}

type Config struct {
	Driver          string
	URL             string
	Queue           string
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	ConnectAttempts int
	MemoryCapacity  int
}

// Open builds the configured transport. It never fails: when the backing
// cannot be reached the returned transport is degraded and a single warning
// is logged.
func Open(ctx context.Context, cfg Config, log *logger.Logger) Transport {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverRedis, "":
		q, err := redis.NewQueue(ctx, redis.Config{
			URL:             cfg.URL,
			Queue:           cfg.Queue,
			MaxRetries:      cfg.MaxRetries,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnectAttempts: cfg.ConnectAttempts,
		}, log)
		if err != nil {
			return degrade(log, cfg, err)
		}
		log.Info("notification transport ready", "driver", DriverRedis, "queue", cfg.Queue)
		return q
	case DriverMemory:
		log.Info("notification transport ready", "driver", DriverMemory, "queue", cfg.Queue)
		return memory.New(cfg.Queue, cfg.MemoryCapacity)
	case DriverNone:
		return degrade(log, cfg, fmt.Errorf("notification transport disabled"))
	default:
		return degrade(log, cfg, fmt.Errorf("unknown transport driver %q", cfg.Driver))
	}
}

func degrade(log *logger.Logger, cfg Config, cause error) Transport {
	log.Warn(cause, "notification transport unavailable, notifications will be dropped",
		"driver", cfg.Driver, "queue", cfg.Queue)
	return Degraded{}
}
