package store

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	codeSequenceDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trialreg_volunteer_code_sequence_duration_ms",
		Help:    "Latency of volunteer code allocation in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for yearly volunteer code counters
	codeSequenceKeyPrefix = "trialreg:volunteer_code:"
)

// RedisCodeSequence allocates volunteer code numbers with INCR on one key per
// year. Numbers taken by a transaction that later rolls back are not
// returned, so codes may skip numbers. Codes remain unique: the record store
// still rejects a duplicate code.
type RedisCodeSequence struct {
	client *redis.Client
	prefix string
}

// RedisCodeSequenceOption configures a RedisCodeSequence.
type RedisCodeSequenceOption func(*RedisCodeSequence)

// WithKeyPrefix overrides the counter key prefix.
func WithKeyPrefix(prefix string) RedisCodeSequenceOption {
	return func(s *RedisCodeSequence) {
		s.prefix = prefix
	}
}

func NewRedisCodeSequence(client *redis.Client, opts ...RedisCodeSequenceOption) *RedisCodeSequence {
	seq := &RedisCodeSequence{
		client: client,
		prefix: codeSequenceKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(seq)
		}
	}
	return seq
}

// Next returns the next number of year, starting at 1.
func (s *RedisCodeSequence) Next(ctx context.Context, year int) (int64, error) {
	start := time.Now()
	defer func() {
		codeSequenceDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	n, err := s.client.Incr(ctx, s.key(year)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr volunteer code sequence: %w", err)
	}
	return n, nil
}

// seedScript raises a counter to ARGV[1] without ever lowering it.
var seedScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current < tonumber(ARGV[1]) then
  redis.call('SET', KEYS[1], ARGV[1])
end
return current
`)

// Seed raises the counter of year to at least floor, so numbers already
// issued by another allocator are never handed out again.
func (s *RedisCodeSequence) Seed(ctx context.Context, year int, floor int64) error {
	if err := seedScript.Run(ctx, s.client, []string{s.key(year)}, floor).Err(); err != nil {
		return fmt.Errorf("seed volunteer code sequence: %w", err)
	}
	return nil
}

func (s *RedisCodeSequence) key(year int) string {
	return fmt.Sprintf("%s%d", s.prefix, year)
}
