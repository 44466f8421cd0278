package revocation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const insertScript = `
local ok
if tonumber(ARGV[2]) > 0 then
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
else
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX")
end
if not ok then
  return 0
end
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
return 1
`

var insertLua = redis.NewScript(insertScript)

// KEYS[1] is the index, KEYS[i+1] the record key of member ARGV[i].
const sweepScript = `
local removed = 0
for i, m in ipairs(ARGV) do
  redis.call("DEL", KEYS[i + 1])
  removed = removed + redis.call("ZREM", KEYS[1], m)
end
return removed
`

var sweepLua = redis.NewScript(sweepScript)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "{sg:rv}:"

const sweepBatch = 256

// RedisStore is a [Store] on Redis. Each record is a string key with a TTL
// matching the token expiry; a sorted set indexes fingerprints by expiry so
// [RedisStore.DeleteExpired] can report what it removed. The clock is used
// only to derive the key TTL.
//
// Insert and sweep touch a record key and the index in one script, so all
// keys share one hash tag and one Redis Cluster slot.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a [RedisStore] using keys under prefix (default
// [DefaultRedisPrefix]). A prefix without a hash tag is wrapped in one, so
// "app:rv:" becomes "{app:rv}:". A nil now uses time.Now.
func NewRedisStore(redisClient redis.UniversalClient, prefix string, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{redis: redisClient, prefix: slotPrefix(prefix), now: now}
}

// slotPrefix returns prefix with a {hash tag} covering it.
func slotPrefix(prefix string) string {
	if prefix == "" {
		return DefaultRedisPrefix
	}
	if open := strings.IndexByte(prefix, '{'); open >= 0 {
		if end := strings.IndexByte(prefix[open:], '}'); end > 1 {
			return prefix
		}
	}
	tag := strings.TrimRight(prefix, ":")
	if tag == "" {
		return DefaultRedisPrefix
	}
	return "{" + tag + "}:"
}

func (s *RedisStore) key(fingerprint string) string {
	return s.prefix + fingerprint
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "idx"
}

// Insert implements [Store]. Tokens that have already expired are stored
// without a TTL and removed by the next sweep.
func (s *RedisStore) Insert(ctx context.Context, rec Record) error {
	fp := Fingerprint(rec.Token)
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(s.now())
	ttlMillis := int64(0)
	if ttl > 0 {
		ttlMillis = (ttl + time.Millisecond - 1).Milliseconds()
	}

	res, err := insertLua.Run(ctx, s.redis,
		[]string{s.key(fp), s.indexKey()},
		payload,
		strconv.FormatInt(ttlMillis, 10),
		strconv.FormatInt(rec.ExpiresAt.UnixMicro(), 10),
		fp,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// Exists implements [Store].
func (s *RedisStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(Fingerprint(token))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// DeleteExpired implements [Store]. The count includes records whose key
// Redis had already expired on its own. Expired fingerprints are read in
// batches and each batch is removed by one script naming every key it
// touches.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	bound := "(" + strconv.FormatInt(now.UnixMicro(), 10)
	total := 0
	for {
		members, err := s.redis.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   bound,
			Count: sweepBatch,
		}).Result()
		if err != nil {
			return total, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(members) == 0 {
			return total, nil
		}

		keys := make([]string, 0, len(members)+1)
		keys = append(keys, s.indexKey())
		args := make([]any, len(members))
		for i, m := range members {
			keys = append(keys, s.key(m))
			args[i] = m
		}
		n, err := sweepLua.Run(ctx, s.redis, keys, args...).Int64()
		if err != nil {
			return total, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		total += int(n)
		if len(members) < sweepBatch {
			return total, nil
		}
	}
}
