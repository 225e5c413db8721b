package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rotchain-bot/internal/domain"

	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"
)

// DigestTTL is how long the latest digest of a job stays readable.
const DigestTTL = 24 * time.Hour

// DigestStore keeps the most recent digest of each scheduled job.
type DigestStore interface {
	Save(ctx context.Context, d domain.Digest) error
	Latest(ctx context.Context, job string) (domain.Digest, bool, error)
}

// RedisClient is the subset of *redis.Client used by RedisDigestStore.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

func digestKey(job string) string {
	return "digest:" + job
}

type RedisDigestStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisDigestStore(client RedisClient) *RedisDigestStore {
	return &RedisDigestStore{client: client, ttl: DigestTTL}
}

func (s *RedisDigestStore) Save(ctx context.Context, d domain.Digest) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	if err := s.client.Set(ctx, digestKey(d.Job), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store digest %s: %w", d.Job, err)
	}
	return nil
}

func (s *RedisDigestStore) Latest(ctx context.Context, job string) (domain.Digest, bool, error) {
	raw, err := s.client.Get(ctx, digestKey(job)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Digest{}, false, nil
	}
	if err != nil {
		return domain.Digest{}, false, fmt.Errorf("load digest %s: %w", job, err)
	}

	var d domain.Digest
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Digest{}, false, fmt.Errorf("decode digest %s: %w", job, err)
	}
	return d, true, nil
}

// LocalDigestStore is the in-process fallback used when Redis is not configured.
type LocalDigestStore struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewLocalDigestStore() (*LocalDigestStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        100,
		MaxCost:            int64(len(domain.DigestJobs)) * 4,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create digest cache: %w", err)
	}
	return &LocalDigestStore{cache: c, ttl: DigestTTL}, nil
}

func (s *LocalDigestStore) Save(_ context.Context, d domain.Digest) error {
	if !s.cache.SetWithTTL(digestKey(d.Job), d, 1, s.ttl) {
		return fmt.Errorf("store digest %s: dropped by cache", d.Job)
	}
	s.cache.Wait()
	return nil
}

func (s *LocalDigestStore) Latest(_ context.Context, job string) (domain.Digest, bool, error) {
	v, ok := s.cache.Get(digestKey(job))
	if !ok {
		return domain.Digest{}, false, nil
	}
	d, ok := v.(domain.Digest)
	return d, ok, nil
}

func (s *LocalDigestStore) Close() { s.cache.Close() }
