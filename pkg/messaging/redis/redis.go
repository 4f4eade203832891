package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/university-api/pkg/logger"
)

// Queue is a durable FIFO backed by a Redis list: producers LPUSH, consumers BRPOP.
type Queue struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	key    string
	seqKey string
	logger *logger.Logger
}

type Config struct {
	URL             string
	Queue           string
	MaxRetries      int
	RetryBackoff    time.Duration
	PoolSize        int
	MinIdleConns    int
	ConnectAttempts int
}

// NewQueue connects to Redis and checks that the queue key is usable. The
// list itself is created by the first push.
func NewQueue(ctx context.Context, config Config, log *logger.Logger) (*Queue, error) {
	if config.Queue == "" {
		return nil, fmt.Errorf("queue name is required")
	}

	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.MaxRetries != 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := ping(ctx, client, config.ConnectAttempts); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	kind, err := client.Type(ctx, config.Queue).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to inspect queue %q: %w", config.Queue, err)
	}
	if kind != "none" && kind != "list" {
		client.Close()
		return nil, fmt.Errorf("queue key %q holds a %s, not a list", config.Queue, kind)
	}

	q := &Queue{
		client: client,
		key:    config.Queue,
		seqKey: config.Queue + ":seq",
		logger: log,
	}
	q.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-notifications",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return q, nil
}

func ping(ctx context.Context, client *redis.Client, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 100 * time.Millisecond
	expo.MaxInterval = time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		return client.Ping(ctx).Err()
	}, policy)
}

func (q *Queue) Name() string {
	return q.key
}

func (q *Queue) Enqueue(ctx context.Context, payload []byte) error {
	_, err := q.cb.Execute(func() (interface{}, error) {
		return nil, q.client.LPush(ctx, q.key, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", q.key, err)
	}
	return nil
}

// Dequeue blocks up to timeout on BRPOP. Redis counts the timeout in whole
// seconds, so anything below one second waits one second.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	if timeout < time.Second {
		timeout = time.Second
	}

	res, err := q.cb.Execute(func() (interface{}, error) {
		vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []byte(vals[1]), nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to pop from %s: %w", q.key, err)
	}
	if res == nil {
		return nil, false, nil
	}
	return res.([]byte), true, nil
}

// NextID allocates a notification id shared by every process using the queue.
func (q *Queue) NextID(ctx context.Context) (int64, error) {
	return q.client.Incr(ctx, q.seqKey).Result()
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.Len(ctx)
}

// Ping reports whether the server is currently reachable.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) Degraded() bool {
	return false
}

func (q *Queue) Close() error {
	return q.client.Close()
}
