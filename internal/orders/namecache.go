package orders

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sander-0/sanberbe59-sander/internal/redisx"
)

// UnknownUserName dipakai kalau record user-nya tidak ketemu; resolusi nama
// best-effort, tidak pernah menggagalkan order.
const UnknownUserName = "Unknown"

type UserFinder interface {
	FindByID(ctx context.Context, id string) (User, error)
}

// NameCache me-resolve fullName user utk field createdByName.
// Redis opsional (nil = langsung ke DB); lookup paralel utk user yang sama
// di-collapse lewat singleflight.
type NameCache struct {
	Users UserFinder
	Redis *redis.Client

	sf singleflight.Group
}

func (c *NameCache) DisplayName(ctx context.Context, userID string) string {
	key := fmt.Sprintf(redisx.KeyUserName, userID)
	if c.Redis != nil {
		if s, err := c.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			return s
		}
	}

	v, _, _ := c.sf.Do(userID, func() (any, error) {
		u, err := c.Users.FindByID(ctx, userID)
		if err != nil {
			return UnknownUserName, nil
		}
		if c.Redis != nil {
			_ = c.Redis.Set(ctx, key, u.FullName, redisx.TTLUserName).Err()
		}
		return u.FullName, nil
	})
	return v.(string)
}
