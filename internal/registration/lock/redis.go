package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "sendcore/pkg/domain"
	"sendcore/pkg/platform/sentinel"
)

const lockKeyPrefix = "a2p:reg-lock:"

// releaseScript deletes the lock only if this holder still owns it, so a
// release after TTL expiry cannot drop a lock someone else acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is the production TenantLock, shared across instances. SET NX with a
// TTL means a crashed holder frees the lock without operator action.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (l *Redis) Acquire(ctx context.Context, tenantID id.TenantID, ttl time.Duration) (func(), error) {
	key := lockKeyPrefix + tenantID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire tenant lock: %w", err)
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Best-effort: the TTL is the backstop if this fails.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}
	return release, nil
}
