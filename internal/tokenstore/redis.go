package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBackend keeps one key per token type. Records carry their own
// expires_at, which stays authoritative; the backend's native TTL is only a
// secondary guard that lets unused entries age out of the cache.
type redisBackend struct {
	client    *redis.Client
	namespace string
}

// Compile-time check to ensure redisBackend implements backend
var _ backend = (*redisBackend)(nil)

// newRedisBackend parses the URL, builds a client, and probes the server
// with a single PING. A failed probe returns errBackendUnavailable so the
// caller can fall back; a malformed URL is an ordinary error.
func newRedisBackend(ctx context.Context, cfg Config) (*redisBackend, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	// Bounded I/O so a slow cache cannot stall token operations.
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.ProbeTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(opts)

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()
	if err := client.Ping(probeCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", errBackendUnavailable, err)
	}

	return &redisBackend{
		client:    client,
		namespace: cfg.Namespace,
	}, nil
}

func (r *redisBackend) name() string { return "redis" }

// key builds the storage key for a token type, e.g. "cafe24:token:access".
func (r *redisBackend) key(typ Type) string {
	return r.namespace + ":token:" + string(typ)
}

func (r *redisBackend) load(ctx context.Context, typ Type) (Record, bool, error) {
	data, err := r.client.Get(ctx, r.key(typ)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decoding cached record: %w", err)
	}
	return rec, true, nil
}

func (r *redisBackend) store(ctx context.Context, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return r.client.Set(ctx, r.key(rec.Type), data, ttl).Err()
}

func (r *redisBackend) clear(ctx context.Context) error {
	keys := make([]string, 0, len(Types))
	for _, typ := range Types {
		keys = append(keys, r.key(typ))
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close releases the client's connection pool.
func (r *redisBackend) Close() error {
	return r.client.Close()
}
