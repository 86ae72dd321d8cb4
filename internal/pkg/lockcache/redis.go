package lockcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "slot_lock:"

// Redis is a Cache backed by a shared Redis instance. SET NX provides the
// single-winner guarantee across processes; the key TTL is the eviction
// path, the stored expiry the lazy one.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Put(ctx context.Context, slotID uuid.UUID, lock SlotLock, ttl time.Duration) error {
	payload, err := json.Marshal(lock)
	if err != nil {
		return err
	}

	ok, err := c.client.SetNX(ctx, redisKeyPrefix+slotID.String(), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, slotID uuid.UUID) (SlotLock, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+slotID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return SlotLock{}, ErrNotFound
	}
	if err != nil {
		return SlotLock{}, err
	}

	var lock SlotLock
	if err := json.Unmarshal([]byte(val), &lock); err != nil {
		return SlotLock{}, err
	}
	// The key TTL and the stored expiry must agree on liveness.
	if !time.Now().Before(lock.ExpiresAt) {
		return SlotLock{}, ErrNotFound
	}
	return lock, nil
}

// releaseScript deletes the key only when the stored lock belongs to the
// given user, so a commit landing after the holder's TTL cannot evict a
// fresh lock taken by someone else.
var releaseScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
local lock = cjson.decode(v)
if lock.user_id == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *Redis) Release(ctx context.Context, slotID, userID uuid.UUID) error {
	return releaseScript.Run(ctx, c.client, []string{redisKeyPrefix + slotID.String()}, userID.String()).Err()
}
